// Package timeutil provides time formatting utilities for CLI output.
package timeutil

import (
	"time"
)

// LocalTimeFormat is the format used for displaying local times in CLI output.
// Uses Go's reference time: Mon Jan 2 15:04:05 2006.
const LocalTimeFormat = "Mon Jan 2 15:04:05 2006"

// FormatUnix renders a stat-style (seconds, nanoseconds) timestamp as a
// local time string.
func FormatUnix(sec int64, nsec uint32) string {
	return time.Unix(sec, int64(nsec)).Local().Format(LocalTimeFormat)
}
