package reports

import (
	"strings"

	"stock-backend/internal/apperr"
	"stock-backend/internal/config"
	"stock-backend/internal/database"

	"github.com/gofiber/fiber/v2"
)

type DayReportResponse struct {
	Date string `json:"date"`
	Totals
}

type PeriodReportResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Totals
	DailyBreakdown []DailyTotals `json:"daily_breakdown"`
}

type SummaryReportResponse struct {
	Type  string `json:"type"`
	Start string `json:"start"`
	End   string `json:"end"`
	Totals
	DailyBreakdown []DailyTotals `json:"daily_breakdown,omitempty"`
}

// periodFromQuery reads start/end; a missing value means today.
func periodFromQuery(c *fiber.Ctx, cfg *config.Config) (Period, error) {
	start, okStart := ParseDate(c.Query("start"), cfg.Location)
	end, okEnd := ParseDate(c.Query("end"), cfg.Location)
	if !okStart || !okEnd {
		return Period{}, fiber.NewError(fiber.StatusBadRequest, "Provide valid start and end dates in YYYY-MM-DD.")
	}
	p, err := NewPeriod(start, end, cfg.Location)
	if err != nil {
		return Period{}, apperr.ToFiber(err, "Report could not be built.")
	}
	return p, nil
}

// GET /api/reports/day/?date=YYYY-MM-DD
func DayReportHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, ok := ParseDate(c.Query("date"), cfg.Location)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD.")
		}

		totals, err := Aggregate(database.DB, Period{Start: d, End: d, Location: cfg.Location})
		if err != nil {
			return apperr.ToFiber(err, "Report could not be built.")
		}

		return c.JSON(DayReportResponse{
			Date:   d.Format(dateLayout),
			Totals: totals,
		})
	}
}

// GET /api/reports/period/?start=YYYY-MM-DD&end=YYYY-MM-DD
func PeriodReportHandler(cfg *config.Config) fiber.Handler {
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

		return c.JSON(PeriodReportResponse{
			Start:          p.Start.Format(dateLayout),
			End:            p.End.Format(dateLayout),
			Totals:         totals,
			DailyBreakdown: days,
		})
	}
}

// GET /api/reports/summary/?type=day|week|month|year&date=YYYY-MM-DD
// The daily breakdown is included for day, week and month.
func SummaryReportHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		typ := strings.ToLower(c.Query("type", "day"))
		d, ok := ParseDate(c.Query("date"), cfg.Location)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid date.")
		}

		p, err := SummaryPeriod(typ, d, cfg.Location)
		if err != nil {
			return apperr.ToFiber(err, "Report could not be built.")
		}

		totals, err := Aggregate(database.DB, p)
		if err != nil {
			return apperr.ToFiber(err, "Report could not be built.")
		}

		resp := SummaryReportResponse{
			Type:   typ,
			Start:  p.Start.Format(dateLayout),
			End:    p.End.Format(dateLayout),
			Totals: totals,
		}
		if typ != "year" {
			if resp.DailyBreakdown, err = Breakdown(database.DB, p); err != nil {
				return apperr.ToFiber(err, "Report could not be built.")
			}
		}

		return c.JSON(resp)
	}
}
