package importer

// convert.go parses the messy cell formats marketplace exports actually
// contain: currency symbols and thousands separators in prices, several date
// formats including 2-digit years, Excel formula prefixes, and a handful of
// spellings for each listing status.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ormside/listflow/internal/store"
)

// itemIDRegex matches marketplace item numbers: 10 to 15 digits.
var itemIDRegex = regexp.MustCompile(`^\d{10,15}$`)

// numericRegex validates a number after currency cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// twoDigitYearPivot: 2-digit years parsing more than this many years into the
// future are pushed back a century.
const twoDigitYearPivot = 20

var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// statusAliases maps export spellings to listing statuses.
var statusAliases = map[string]store.ListingStatus{
	"active":       store.StatusActive,
	"live":         store.StatusActive,
	"ended":        store.StatusEnded,
	"completed":    store.StatusEnded,
	"sold":         store.StatusEnded,
	"out_of_stock": store.StatusOutOfStock,
	"out of stock": store.StatusOutOfStock,
	"oos":          store.StatusOutOfStock,
	"hidden":       store.StatusHidden,
	"unlisted":     store.StatusHidden,
}

// cleanCell strips common CSV artifacts: whitespace, Excel formula prefixes
// (="value"), and surrounding quotes.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// parseItemID validates a marketplace item number.
func parseItemID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, itemIDRegex.MatchString(s)
}

// parseMoney parses a price cell, tolerating currency symbols, thousands
// separators, and accounting-style negatives "(12.34)".
func parseMoney(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseQuantity parses a whole-number quantity cell. Thousands separators are
// tolerated; fractional values are not.
func parseQuantity(s string) (int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseDate parses a date cell. Unambiguous 4-digit-year layouts are tried
// first; 2-digit years are pivoted so far-future dates land in the previous
// century.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, l := range fourDigitYearLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}

	pivot := time.Now().Year() + twoDigitYearPivot
	for _, l := range twoDigitYearLayouts {
		if t, err := time.Parse(l, s); err == nil {
			if t.Year() > pivot {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// parseStatus maps an export status spelling to a listing status.
func parseStatus(s string) (store.ListingStatus, bool) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}
