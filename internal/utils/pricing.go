package utils

import (
	"fmt"
	"time"

	"rentease-backend/internal/domain"
)

const dateLayout = "2006-01-02"

// ParseDate converts a yyyy-mm-dd formatted string into a UTC midnight time.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, dateStr, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected yyyy-mm-dd", dateStr)
	}
	return t, nil
}

// FormatDate renders a time as yyyy-mm-dd.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// Today returns the current calendar day at UTC midnight.
func Today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RentalDays counts the days between start and end with both ends included.
// Same-day rentals count as one day.
func RentalDays(start, end time.Time) (int64, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("end date must be >= start date")
	}
	return int64(end.Sub(start).Hours()/24) + 1, nil
}

// LineTotalCents computes one line's rental charge from its price snapshot.
func LineTotalCents(pricePerDayCents int64, quantity int32, days int64) int64 {
	return pricePerDayCents * int64(quantity) * days
}

// OrderTotals computes the order total and deposit from snapshotted lines.
// Totals are derived exactly once at creation and are immutable afterwards.
func OrderTotals(lines []domain.OrderLine, days int64) (totalCents, depositCents int64) {
	for _, line := range lines {
		totalCents += LineTotalCents(line.PricePerDayCents, line.Quantity, days)
		depositCents += line.DepositCents * int64(line.Quantity)
	}
	return totalCents, depositCents
}
