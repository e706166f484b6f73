package reports

import (
	"math"
	"strings"
	"time"

	"stock-backend/internal/apperr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// Totals are computed in floating point and rounded to two places for display.
// cogs_approx uses each product's current buying price, not the price paid
// at the time of the sale.
type Totals struct {
	SalesTotal        float64 `json:"sales_total"`
	PurchasesTotal    float64 `json:"purchases_total"`
	COGSApprox        float64 `json:"cogs_approx"`
	GrossProfitApprox float64 `json:"gross_profit_approx"`
}

type DailyTotals struct {
	Date           string  `json:"date"`
	SalesTotal     float64 `json:"sales_total"`
	PurchasesTotal float64 `json:"purchases_total"`
}

// Period is an inclusive range of calendar days in Location.
type Period struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
}

func (p Period) bounds() (time.Time, time.Time) {
	return p.Start.UTC(), p.End.AddDate(0, 0, 1).UTC()
}

// Today returns midnight of the current day in loc.
func Today(loc *time.Location) time.Time {
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
}

// ParseDate parses YYYY-MM-DD in loc; an empty string yields today.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return Today(loc), true
	}
	d, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// NewPeriod validates that end is not before start.
func NewPeriod(start, end time.Time, loc *time.Location) (Period, error) {
	if end.Before(start) {
		return Period{}, apperr.Validation("end must be >= start.")
	}
	return Period{Start: start, End: end, Location: loc}, nil
}

// SummaryPeriod derives the window for a quick summary anchored on date:
// day is the date itself, week the seven days ending on it, month and year
// the calendar month or year containing it.
func SummaryPeriod(typ string, date time.Time, loc *time.Location) (Period, error) {
	y, m, _ := date.Date()
	switch strings.ToLower(typ) {
	case "day":
		return Period{Start: date, End: date, Location: loc}, nil
	case "week":
		return Period{Start: date.AddDate(0, 0, -6), End: date, Location: loc}, nil
	case "month":
		first := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return Period{Start: first, End: first.AddDate(0, 1, -1), Location: loc}, nil
	case "year":
		return Period{
			Start:    time.Date(y, time.January, 1, 0, 0, 0, 0, loc),
			End:      time.Date(y, time.December, 31, 0, 0, 0, 0, loc),
			Location: loc,
		}, nil
	}
	return Period{}, apperr.Validation("Invalid type. Use day, week, month, or year.")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Aggregate sums sales, purchases and approximate COGS for the period.
// Empty periods give zero for every field.
func Aggregate(db *gorm.DB, p Period) (Totals, error) {
	from, to := p.bounds()

	var sales, purchases, cogs float64

	if err := db.Table("sale_items").
		Joins("JOIN sale_invoices ON sale_invoices.id = sale_items.invoice_id").
		Where("sale_invoices.date >= ? AND sale_invoices.date < ?", from, to).
		Select("COALESCE(SUM(sale_items.quantity * sale_items.price), 0)").
		Scan(&sales).Error; err != nil {
		return Totals{}, err
	}

	if err := db.Table("purchase_items").
		Joins("JOIN purchase_invoices ON purchase_invoices.id = purchase_items.invoice_id").
		Where("purchase_invoices.date >= ? AND purchase_invoices.date < ?", from, to).
		Select("COALESCE(SUM(purchase_items.quantity * purchase_items.price), 0)").
		Scan(&purchases).Error; err != nil {
		return Totals{}, err
	}

	if err := db.Table("sale_items").
		Joins("JOIN sale_invoices ON sale_invoices.id = sale_items.invoice_id").
		Joins("JOIN products ON products.id = sale_items.product_id").
		Where("sale_invoices.date >= ? AND sale_invoices.date < ?", from, to).
		Select("COALESCE(SUM(sale_items.quantity * products.buying_price), 0)").
		Scan(&cogs).Error; err != nil {
		return Totals{}, err
	}

	return Totals{
		SalesTotal:        round2(sales),
		PurchasesTotal:    round2(purchases),
		COGSApprox:        round2(cogs),
		GrossProfitApprox: round2(sales - cogs),
	}, nil
}

type lineRow struct {
	Date     time.Time
	Quantity int
	Price    decimal.Decimal
}

// Breakdown returns one entry per calendar day of the period, zero-filled.
func Breakdown(db *gorm.DB, p Period) ([]DailyTotals, error) {
	from, to := p.bounds()

	var saleRows, purchaseRows []lineRow
	if err := db.Table("sale_items").
		Joins("JOIN sale_invoices ON sale_invoices.id = sale_items.invoice_id").
		Where("sale_invoices.date >= ? AND sale_invoices.date < ?", from, to).
		Select("sale_invoices.date AS date, sale_items.quantity AS quantity, sale_items.price AS price").
		Scan(&saleRows).Error; err != nil {
		return nil, err
	}
	if err := db.Table("purchase_items").
		Joins("JOIN purchase_invoices ON purchase_invoices.id = purchase_items.invoice_id").
		Where("purchase_invoices.date >= ? AND purchase_invoices.date < ?", from, to).
		Select("purchase_invoices.date AS date, purchase_items.quantity AS quantity, purchase_items.price AS price").
		Scan(&purchaseRows).Error; err != nil {
		return nil, err
	}

	days := make([]DailyTotals, 0)
	index := make(map[string]int)
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		index[key] = len(days)
		days = append(days, DailyTotals{Date: key})
	}

	for _, r := range saleRows {
		if i, ok := index[r.Date.In(p.Location).Format(dateLayout)]; ok {
			v, _ := r.Price.Mul(decimal.NewFromInt(int64(r.Quantity))).Float64()
			days[i].SalesTotal += v
		}
	}
	for _, r := range purchaseRows {
		if i, ok := index[r.Date.In(p.Location).Format(dateLayout)]; ok {
			v, _ := r.Price.Mul(decimal.NewFromInt(int64(r.Quantity))).Float64()
			days[i].PurchasesTotal += v
		}
	}

	for i := range days {
		days[i].SalesTotal = round2(days[i].SalesTotal)
		days[i].PurchasesTotal = round2(days[i].PurchasesTotal)
	}
	return days, nil
}
