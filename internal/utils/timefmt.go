package utils

import (
	"fmt"
	"time"
)

// FixedOffsetZone returns a location at a fixed whole-hour UTC offset.
// The engine renders all user-facing times in one configured offset rather
// than in server-local time.
func FixedOffsetZone(offsetHours int) *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
}

// FormatTimestamp renders t in the given offset as "YYYY-MM-DD HH:MM:SS",
// zero-padded and sortable.
func FormatTimestamp(t time.Time, offsetHours int) string {
	return t.In(FixedOffsetZone(offsetHours)).Format("2006-01-02 15:04:05")
}

// DayKey returns the calendar day of t in the given offset as "YYYY-MM-DD".
// This is the day used for one-answer-per-participant enforcement.
func DayKey(t time.Time, offsetHours int) string {
	return t.In(FixedOffsetZone(offsetHours)).Format("2006-01-02")
}
