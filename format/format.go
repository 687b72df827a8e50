// Package format renders money and dates the way the TrackPro dashboard
// shows them.
package format

import (
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Undefined is shown for missing or unparsable dates.
const Undefined = "Undefined"

// vndSuffix follows the amount after a no-break space.
const vndSuffix = "\u00a0₫"

var vi = message.NewPrinter(language.Vietnamese)

// Number groups an integer with Vietnamese separators, e.g. 1.500.000.
func Number(n int64) string {
	return vi.Sprintf("%d", n)
}

// Money formats an amount given in millions of VND, e.g. 1.5 → "1.500.000 ₫".
func Money(millions float64) string {
	return Number(int64(math.Round(millions*1_000_000))) + vndSuffix
}

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse reads an ISO 8601 date or timestamp.
func Parse(iso string) (time.Time, bool) {
	for _, l := range layouts {
		if t, err := time.Parse(l, iso); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Date formats an ISO date as dd/mm/yyyy.
func Date(iso string) string {
	t, ok := Parse(iso)
	if !ok {
		return Undefined
	}
	return t.Format("02/01/2006")
}

// DateWithText formats an ISO date as "March 1, 2024".
func DateWithText(iso string) string {
	t, ok := Parse(iso)
	if !ok {
		return Undefined
	}
	return t.Format("January 2, 2006")
}
