// Package utils contains various common utils separate by utility types
package utils

import (
	"time"
)

// SecsToTime converts an int64 of seconds from epoch to Time struct
func SecsToTime(ts int64) time.Time {
	return time.Unix(ts, 0)
}

// FormatSecs formats seconds from epoch as an RFC3339 UTC timestamp.
// Zero formats as an empty string.
func FormatSecs(ts int64) string {
	if ts == 0 {
		return ""
	}
	return SecsToTime(ts).UTC().Format(time.RFC3339)
}

// SecsDuration converts a count of seconds to a time.Duration
func SecsDuration(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}
