package ingest

import "strings"

// Column names recognized in the execution export header.
const (
	ColAccount        = "Account"
	ColDateTime       = "Date/Time"
	ColSymbol         = "Symbol"
	ColDescription    = "Description"
	ColSymbolType     = "Symbol type"
	ColExpirationDate = "Expiration date"
	ColStrikePrice    = "Strike price"
	ColSide           = "Side"
	ColOrderType      = "Order type"
	ColQuantity       = "Quantity"
	ColPrice          = "Price"
	ColGrossPL        = "Gross P/L"
	ColFee            = "Fee"
	ColNetPL          = "Net P/L"
	ColTradeValue     = "Trade value"
	ColTradeID        = "Trade ID"
	ColOrderID        = "Order ID"
	ColPositionID     = "Position ID"
	ColConnectionName = "Connection name"
	ColComment        = "Comment"
	ColExchange       = "Exchange"
)

// RequiredColumns must all be present in the header, in this order.
var RequiredColumns = []string{
	ColAccount,
	ColDateTime,
	ColSymbol,
	ColSide,
	ColQuantity,
	ColPrice,
}

// ColumnMap maps a lower-cased header name to its zero-based index.
type ColumnMap map[string]int

// ResolveColumns builds a case-insensitive column map from a tokenized header.
// Blank header cells are skipped; a repeated name keeps its first index.
func ResolveColumns(header []string) ColumnMap {
	columns := make(ColumnMap, len(header))
	for i, name := range header {
		key := normalizeColumn(name)
		if key == "" {
			continue
		}
		if _, exists := columns[key]; !exists {
			columns[key] = i
		}
	}
	return columns
}

// Has reports whether the named column is present.
func (m ColumnMap) Has(name string) bool {
	_, ok := m[normalizeColumn(name)]
	return ok
}

// Missing returns the names from required that are absent, in order.
func (m ColumnMap) Missing(required []string) []string {
	var missing []string
	for _, name := range required {
		if !m.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Get returns the value of the named column, or "" when the column is
// unknown or the row is too short.
func (m ColumnMap) Get(values []string, name string) string {
	idx, ok := m[normalizeColumn(name)]
	if !ok || idx < 0 || idx >= len(values) {
		return ""
	}
	return values[idx]
}

func normalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
