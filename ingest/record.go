package ingest

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExecutionRecord is one data line of an execution export. All fields are
// kept as raw strings; typed values are parsed on demand.
type ExecutionRecord struct {
	Line int

	Account        string
	DateTime       string
	Symbol         string
	Description    string
	SymbolType     string
	ExpirationDate string
	StrikePrice    string
	Side           string
	OrderType      string
	Quantity       string
	Price          string
	GrossPL        string
	Fee            string
	NetPL          string
	TradeValue     string
	TradeID        string
	OrderID        string
	PositionID     string
	ConnectionName string
	Comment        string
	Exchange       string
}

// MapRecord builds an ExecutionRecord from tokenized values.
// Columns missing from the header map to "".
func MapRecord(values []string, columns ColumnMap) ExecutionRecord {
	return ExecutionRecord{
		Account:        columns.Get(values, ColAccount),
		DateTime:       columns.Get(values, ColDateTime),
		Symbol:         columns.Get(values, ColSymbol),
		Description:    columns.Get(values, ColDescription),
		SymbolType:     columns.Get(values, ColSymbolType),
		ExpirationDate: columns.Get(values, ColExpirationDate),
		StrikePrice:    columns.Get(values, ColStrikePrice),
		Side:           columns.Get(values, ColSide),
		OrderType:      columns.Get(values, ColOrderType),
		Quantity:       columns.Get(values, ColQuantity),
		Price:          columns.Get(values, ColPrice),
		GrossPL:        columns.Get(values, ColGrossPL),
		Fee:            columns.Get(values, ColFee),
		NetPL:          columns.Get(values, ColNetPL),
		TradeValue:     columns.Get(values, ColTradeValue),
		TradeID:        columns.Get(values, ColTradeID),
		OrderID:        columns.Get(values, ColOrderID),
		PositionID:     columns.Get(values, ColPositionID),
		ConnectionName: columns.Get(values, ColConnectionName),
		Comment:        columns.Get(values, ColComment),
		Exchange:       columns.Get(values, ColExchange),
	}
}

// GroupKey is the Position ID, else the Trade ID, else "".
func (r ExecutionRecord) GroupKey() string {
	if key := strings.TrimSpace(r.PositionID); key != "" {
		return key
	}
	return strings.TrimSpace(r.TradeID)
}

// Time returns the parsed date-time and whether parsing succeeded.
func (r ExecutionRecord) Time() (time.Time, bool) {
	return ParseDateTime(r.DateTime)
}

func (r ExecutionRecord) Qty() int {
	return ParseInt(r.Quantity)
}

func (r ExecutionRecord) PriceValue() decimal.Decimal {
	return ParseDecimal(r.Price)
}

func (r ExecutionRecord) GrossPLValue() decimal.Decimal {
	return ParseDecimal(r.GrossPL)
}

func (r ExecutionRecord) FeeValue() decimal.Decimal {
	return ParseDecimal(r.Fee)
}

func (r ExecutionRecord) NetPLValue() decimal.Decimal {
	return ParseDecimal(r.NetPL)
}
