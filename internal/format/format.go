// Package format holds small human-readable formatting helpers shared
// by the relay and agent CLIs.
package format

import (
	"fmt"
	"time"
)

// UnixMillis returns t as epoch milliseconds, the
// timestamp unit used by every envelope on the wire.
func UnixMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromUnixMillis converts an epoch-millisecond timestamp back to a time.Time.
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// Age renders the duration since t the way an operator CLI would: "3s
// ago", "4m ago", "2h ago".
func Age(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
