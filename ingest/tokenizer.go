package ingest

import "strings"

const (
	fieldSeparator = ','
	quoteChar      = '"'
)

// SplitLine splits one line into trimmed field values.
//
// A double quote toggles quoted mode, inside which the separator is literal.
// Quotes are not escaped: `""` toggles twice. The result always has at least
// one element.
func SplitLine(line string) []string {
	values := make([]string, 0, 16)
	var current strings.Builder
	inQuotes := false

	for _, c := range line {
		switch {
		case c == quoteChar:
			inQuotes = !inQuotes
		case c == fieldSeparator && !inQuotes:
			values = append(values, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(c)
		}
	}
	values = append(values, strings.TrimSpace(current.String()))

	return values
}
