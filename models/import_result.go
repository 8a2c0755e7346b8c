package models

// ImportResult describes what happened during one file import.
// It is never nil and is handed to the caller as-is.
type ImportResult struct {
	File             string   `json:"file"`
	Trades           []Trade  `json:"trades"`
	Errors           []string `json:"errors"`
	Warnings         []string `json:"warnings"`
	TotalRowsParsed  int      `json:"total_rows_parsed"`
	SuccessfulTrades int      `json:"successful_trades"`
	Fatal            bool     `json:"fatal"`
}

// NewImportResult returns an empty result for the given file.
func NewImportResult(file string) *ImportResult {
	return &ImportResult{
		File:     file,
		Trades:   []Trade{},
		Errors:   []string{},
		Warnings: []string{},
	}
}

// Fail records a file-level error. The trade list is cleared.
func (r *ImportResult) Fail(msg string) *ImportResult {
	r.Fatal = true
	r.Trades = []Trade{}
	r.SuccessfulTrades = 0
	r.Errors = append(r.Errors, msg)
	return r
}

// AddError records a row-level error.
func (r *ImportResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddWarning records a group-level warning.
func (r *ImportResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddTrade appends a synthesized trade.
func (r *ImportResult) AddTrade(t Trade) {
	r.Trades = append(r.Trades, t)
	r.SuccessfulTrades = len(r.Trades)
}

// Success reports whether the import completed without a fatal error.
// Row errors and group warnings do not affect it.
func (r *ImportResult) Success() bool {
	return !r.Fatal
}
