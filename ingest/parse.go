package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"github.com/viktsys/tradejournal/models"
)

// TimeOfDayLayout formats entry/exit times on a trade.
const TimeOfDayLayout = "15:04:05"

// dateTimeLayouts are the export formats, tried in order.
var dateTimeLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"01/02/2006 03:04:05 PM",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04:05",
	"1/2/2006 3:04 PM",
	"01/02/2006 03:04 PM",
	"1/2/2006 15:04",
	"01/02/2006 15:04",
	"1/2/06 3:04:05 PM",
	"1/2/06 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 3:04:05 PM",
}

// fallbackLayouts cover common ISO-ish and textual forms. Anything else goes
// through dateparse.
var fallbackLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/1/2 15:04:05",
	"2006/01/02 15:04",
	"January 2, 2006 3:04:05 PM",
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006 3:04:05 PM",
	"Jan 2 2006 15:04:05",
	"02-Jan-2006 15:04:05",
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
}

var currencySymbols = strings.NewReplacer(
	"$", "",
	"€", "",
	"£", "",
	"¥", "",
	",", "",
	" ", "",
)

// ParseDateTime parses an export date-time string. Values without a zone
// are read as UTC.
//
// The second return value is false when nothing matched; the time is then
// the zero time, which sorts before every real date.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// Layout PM only matches upper case; month names match in any case.
	upper := strings.ToUpper(s)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t, true
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t, true
		}
	}

	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ParseDecimal strips currency symbols and thousands separators and parses
// the rest. Blank or invalid input yields zero.
func ParseDecimal(s string) decimal.Decimal {
	cleaned := currencySymbols.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseInt strips thousands separators and parses an integer.
// Blank or invalid input yields zero.
func ParseInt(s string) int {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return 0
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}

// Direction maps an export side to a trade direction.
func Direction(side string) models.Direction {
	switch strings.ToLower(strings.TrimSpace(side)) {
	case "buy":
		return models.DirectionLong
	case "sell":
		return models.DirectionShort
	default:
		return models.DirectionUnknown
	}
}

// AccountID returns the leading whitespace-delimited token of a raw account
// field, e.g. "SIM101 (Sim)" -> "SIM101".
func AccountID(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
