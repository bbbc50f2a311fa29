package utils

import (
	"time"
)

const layoutDateTimeHM = "2006-01-02 15:04"

// FormatDateTimeHM formats time to "YYYY-MM-DD HH:MM" in local timezone.
func FormatDateTimeHM(t time.Time) string {
	return t.In(time.Local).Format(layoutDateTimeHM)
}
