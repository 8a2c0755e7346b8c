package ingest

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/viktsys/tradejournal/models"
)

const notesSeparator = " | "

var errEmptyGroup = errors.New("group has no records")

// SynthesizeGroup builds one trade from all legs of a group.
//
// Legs are ordered by date-time (stable; unparsable dates sort first).
// Symbol, account, direction, entry date/time/price and contracts come from
// the first leg, exit time/price from the last. Gross P&L, fees and net
// P&L are summed over every leg; the outcome is classified on the net sum.
func SynthesizeGroup(records []ExecutionRecord) (models.Trade, error) {
	if len(records) == 0 {
		return models.Trade{}, errEmptyGroup
	}

	legs := make([]timedRecord, len(records))
	for i, r := range records {
		t, _ := r.Time()
		legs[i] = timedRecord{record: r, at: t}
	}
	sort.SliceStable(legs, func(i, j int) bool {
		return legs[i].at.Before(legs[j].at)
	})

	first, last := legs[0], legs[len(legs)-1]

	var gross, fees, net decimal.Decimal
	for _, leg := range legs {
		gross = gross.Add(leg.record.GrossPLValue())
		fees = fees.Add(leg.record.FeeValue())
		net = net.Add(leg.record.NetPLValue())
	}

	return buildTrade(first, last, gross, fees, net), nil
}

// SynthesizeSingle builds a one-leg trade; entry and exit are the same record.
func SynthesizeSingle(record ExecutionRecord) models.Trade {
	t, _ := record.Time()
	leg := timedRecord{record: record, at: t}
	return buildTrade(leg, leg, record.GrossPLValue(), record.FeeValue(), record.NetPLValue())
}

// Classify derives the outcome from a net P&L figure.
func Classify(net decimal.Decimal) models.Outcome {
	switch net.Sign() {
	case 1:
		return models.OutcomeWin
	case -1:
		return models.OutcomeLoss
	default:
		return models.OutcomeBreakeven
	}
}

// BuildNotes joins "Order Type: X" and the comment, skipping blanks.
func BuildNotes(r ExecutionRecord) string {
	var parts []string
	if orderType := strings.TrimSpace(r.OrderType); orderType != "" {
		parts = append(parts, "Order Type: "+orderType)
	}
	if comment := strings.TrimSpace(r.Comment); comment != "" {
		parts = append(parts, comment)
	}
	return strings.Join(parts, notesSeparator)
}

type timedRecord struct {
	record ExecutionRecord
	at     time.Time
}

func buildTrade(first, last timedRecord, gross, fees, net decimal.Decimal) models.Trade {
	qty := first.record.Qty()
	if qty < 0 {
		qty = -qty
	}

	return models.Trade{
		ID:         uuid.NewString(),
		Account:    AccountID(first.record.Account),
		Date:       calendarDate(first.at),
		Symbol:     strings.TrimSpace(first.record.Symbol),
		Direction:  Direction(first.record.Side),
		EntryTime:  first.at.Format(TimeOfDayLayout),
		ExitTime:   last.at.Format(TimeOfDayLayout),
		EntryPrice: first.record.PriceValue(),
		ExitPrice:  last.record.PriceValue(),
		Contracts:  qty,
		PL:         gross,
		Fees:       fees,
		NetPL:      net,
		Outcome:    Classify(net),
		Notes:      BuildNotes(first.record),
	}
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
