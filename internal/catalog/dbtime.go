package catalog

import "time"

// ToDBTime converts t to the stored representation: nanoseconds since the Unix epoch.
func ToDBTime(t time.Time) int64 {
	return t.UnixNano()
}

// FromDBTime converts a stored timestamp back to a time.Time in UTC.
func FromDBTime(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
