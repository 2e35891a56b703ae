// Package dates converts between the day-month-year form stored on items
// and the year-month-day form sent by date pickers.
package dates

import (
	"regexp"
	"time"
)

// Layout is the stored date layout.
const Layout = "02-01-2006"

// ISOLayout is the year-month-day layout.
const ISOLayout = "2006-01-02"

var (
	dmyPattern = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
	ymdPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Normalize returns s in DD-MM-YYYY form. YYYY-MM-DD input is reordered,
// DD-MM-YYYY input is returned as is, and anything else passes through
// unchanged.
func Normalize(s string) string {
	if ymdPattern.MatchString(s) {
		return s[8:10] + "-" + s[5:7] + "-" + s[0:4]
	}
	return s
}

// ToISO returns s in YYYY-MM-DD form, or s unchanged if it is not a
// DD-MM-YYYY date.
func ToISO(s string) string {
	if dmyPattern.MatchString(s) {
		return s[6:10] + "-" + s[3:5] + "-" + s[0:2]
	}
	return s
}

// Parse parses a DD-MM-YYYY or YYYY-MM-DD date. The second result is false
// for empty or unrecognized input.
func Parse(s string) (time.Time, bool) {
	var layout string
	switch {
	case dmyPattern.MatchString(s):
		layout = Layout
	case ymdPattern.MatchString(s):
		layout = ISOLayout
	default:
		return time.Time{}, false
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Format renders t in the stored layout.
func Format(t time.Time) string {
	return t.Format(Layout)
}
