package session

import "time"

// GenerateID returns a timestamp-derived session identifier, e.g.
// 20260830_142500. Doubles as the session directory and file basename.
func GenerateID() string {
	return time.Now().Format("20060102_150405")
}
