package invoices

import (
	"time"

	"stock-backend/internal/apperr"
)

const dateLayout = "2006-01-02"

// parseDay turns "YYYY-MM-DD" into midnight of that day in loc, stored as UTC.
// An empty string means today.
func parseDay(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).UTC(), nil
	}
	d, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, apperr.Validation("Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}
	return d.UTC(), nil
}

func formatDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}
