package telemetry

import (
	"fmt"
	"strings"
)

// Escape makes s safe for embedding in a JSON string literal. Backslash and
// double quote get a backslash; newline, carriage return and tab map to
// their two-character escapes; other bytes below 0x20 become \u00XX. All
// other bytes pass through untouched.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == '"':
			b.WriteString(`\"`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20:
			fmt.Fprintf(&b, `\u%04x`, c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
