package utils

import (
	"fmt"
	"time"
)

// Number prefixes for the externally visible tokens.
const (
	OrderNoPrefix   = "RO"
	PaymentNoPrefix = "PY"
	RefundNoPrefix  = "RF"
)

// FormatNumber renders a date-prefixed token: prefix + yyyymmdd + zero-padded
// sequence value. The sequence comes from the database, so tokens stay unique
// under concurrent creation across process instances.
func FormatNumber(prefix string, day time.Time, seq int64) string {
	return fmt.Sprintf("%s%s%06d", prefix, day.Format("20060102"), seq)
}
