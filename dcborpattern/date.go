package dcborpattern

import (
	"time"

	"github.com/relvacode/iso8601"
)

// ParseDateLiteral parses an ISO-8601 date literal, e.g. the text inside
// `date'2024-01-01T00:00:00Z'` (spec.md §4.1), using the pack's fast
// ISO-8601 parser rather than time.Parse's fixed-layout matching (which
// cannot accept the full range of ISO-8601 profiles the lexer's date
// literal accepts).
func ParseDateLiteral(s string) (time.Time, error) {
	return iso8601.ParseString(s)
}
