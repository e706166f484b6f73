package reports

import (
	"bytes"
	"fmt"

	"stock-backend/internal/apperr"
	"stock-backend/internal/config"
	"stock-backend/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	dailySheet   = "Daily"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// BuildWorkbook writes the totals to a "Summary" sheet and the per-day
// breakdown to a "Daily" sheet.
func BuildWorkbook(p Period, totals Totals, days []DailyTotals) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(dailySheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return nil, err
	}

	summary := [][]any{
		{"Start", p.Start.Format(dateLayout)},
		{"End", p.End.Format(dateLayout)},
		{"Sales total", totals.SalesTotal},
		{"Purchases total", totals.PurchasesTotal},
		{"COGS (approx.)", totals.COGSApprox},
		{"Gross profit (approx.)", totals.GrossProfitApprox},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, "B3", fmt.Sprintf("B%d", len(summary)), amount); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 24); err != nil {
		return nil, err
	}

	header := []any{"Date", "Sales total", "Purchases total"}
	if err := f.SetSheetRow(dailySheet, "A1", &header); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(dailySheet, "A1", "C1", bold); err != nil {
		return nil, err
	}
	for i, d := range days {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{d.Date, d.SalesTotal, d.PurchasesTotal}
		if err := f.SetSheetRow(dailySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if len(days) > 0 {
		if err := f.SetCellStyle(dailySheet, "B2", fmt.Sprintf("C%d", len(days)+1), amount); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(dailySheet, "A", "C", 16); err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}

// GET /api/reports/period/export/?start=YYYY-MM-DD&end=YYYY-MM-DD
func ExportPeriodReportHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := periodFromQuery(c, cfg)
		if err != nil {
			return err
		}

		totals, err := Aggregate(database.DB, p)
		if err != nil {
			return apperr.ToFiber(err, "Report could not be built.")
		}
		days, err := Breakdown(database.DB, p)
		if err != nil {
			return apperr.ToFiber(err, "Report could not be built.")
		}

		buf, err := BuildWorkbook(p, totals, days)
		if err != nil {
			return apperr.ToFiber(err, "Report could not be exported.")
		}

		c.Attachment(fmt.Sprintf("report_%s_%s.xlsx", p.Start.Format(dateLayout), p.End.Format(dateLayout)))
		c.Set(fiber.HeaderContentType, xlsxMIME)
		return c.Send(buf.Bytes())
	}
}
