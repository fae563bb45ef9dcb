package render

import (
	"strings"
	"time"
)

// DataRecord carries the per-certificate facts substituted into the
// participation text and drawn onto the canvas.
type DataRecord struct {
	ParticipantName   string
	EventTitle        string
	Venue             string
	CompletionDate    time.Time
	CertificateNumber string
}

// Tokens recognized by ExpandTemplate. Substitution is case-sensitive
// and values are never re-scanned for further tokens.
const (
	TokenEventName = "{EVENT_NAME}"
	TokenEventDate = "{EVENT_DATE}"
	TokenVenue     = "{VENUE}"
)

const venueFallback = "[Venue]"

// ExpandTemplate substitutes the three supported tokens left to right.
// The date is pre-formatted with dateFormat ("January 2, 2006" style
// reference layout); a missing venue becomes the literal "[Venue]".
func ExpandTemplate(template, dateFormat string, data DataRecord) string {
	venue := data.Venue
	if venue == "" {
		venue = venueFallback
	}
	date := data.CompletionDate.Format(dateFormat)

	var b strings.Builder
	b.Grow(len(template) + len(data.EventTitle) + len(date) + len(venue))
	rest := template
	for len(rest) > 0 {
		idx, token, value := nextToken(rest, data.EventTitle, date, venue)
		if idx < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:idx])
		b.WriteString(value)
		rest = rest[idx+len(token):]
	}
	return b.String()
}

// nextToken finds the leftmost token occurrence in s. Scanning the
// input rather than chaining strings.ReplaceAll guarantees substituted
// values are never expanded recursively.
func nextToken(s, eventName, eventDate, venue string) (int, string, string) {
	best := -1
	var tok, val string
	for _, c := range []struct {
		token string
		value string
	}{
		{TokenEventName, eventName},
		{TokenEventDate, eventDate},
		{TokenVenue, venue},
	} {
		if i := strings.Index(s, c.token); i >= 0 && (best < 0 || i < best) {
			best, tok, val = i, c.token, c.value
		}
	}
	return best, tok, val
}

// SplitLines breaks expanded text into the independently centered
// lines the renderers draw, dropping trailing empties.
func SplitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
