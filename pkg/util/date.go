package util

import (
    "fmt"
    "time"
)

// FromUnixMillis converts an epoch-milliseconds timestamp to UTC time.
func FromUnixMillis(ms int64) time.Time {
    return time.UnixMilli(ms).UTC()
}

// MonthDayLabel formats t as "M/D" without zero padding, e.g. "3/7".
func MonthDayLabel(t time.Time) string {
    return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}

// MillisLabel is MonthDayLabel over an epoch-milliseconds timestamp.
func MillisLabel(ms int64) string {
    return MonthDayLabel(FromUnixMillis(ms))
}
