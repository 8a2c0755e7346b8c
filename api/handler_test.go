package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viktsys/tradejournal/ingest"
	"github.com/viktsys/tradejournal/journal"
	"github.com/viktsys/tradejournal/models"
	"github.com/viktsys/tradejournal/observability"
	"github.com/viktsys/tradejournal/storage/memory"
)

const exportCSV = "Account,Date/Time,Symbol,Side,Quantity,Price,Gross P/L,Fee,Net P/L,Position ID\n" +
	"SIM101,1/15/2024 9:30:00 AM,ESH4,Buy,2,4800,0,2.5,-2.5,P-1\n" +
	"SIM101,1/15/2024 9:45:00 AM,ESH4,Sell,-2,4801.25,12.50,2.5,10,P-1\n" +
	"APEX-7,1/16/2024 14:05:00,CLG4,Sell,-1,72.10,-30,1,-31,\n"

func setup(t *testing.T) (*Handler, string) {
	t.Helper()
	metrics := observability.NewMetrics("test")
	dir := t.TempDir()
	h := NewHandler(
		ingest.NewProcessor(nil, metrics, 2),
		journal.New(memory.NewJournalStore(), nil, metrics),
		metrics,
		dir,
		nil,
	)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "executions.csv"), []byte(exportCSV), 0644))
	return h, dir
}

func postImport(t *testing.T, h *Handler, body ImportRequest) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/imports", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.SetupRoutes().ServeHTTP(w, req)
	return w
}

func get(h *Handler, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.SetupRoutes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	return w
}

func TestHealth(t *testing.T) {
	h, _ := setup(t)
	w := get(h, "/health")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestImportByAccountThenList(t *testing.T) {
	h, dir := setup(t)

	w := postImport(t, h, ImportRequest{Path: filepath.Join(dir, "executions.csv")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 2, resp.Results[0].SuccessfulTrades)
	assert.Equal(t, map[string]int{"SIM101": 1, "APEX-7": 1}, resp.Appended)

	// Re-import appends nothing.
	w = postImport(t, h, ImportRequest{Path: dir})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]int{"SIM101": 0, "APEX-7": 0}, resp.Appended)

	w = get(h, "/api/trades?account=SIM101")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Account string         `json:"account"`
		Trades  []models.Trade `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Trades, 1)
	assert.Equal(t, "ESH4", list.Trades[0].Symbol)
	assert.Equal(t, models.OutcomeWin, list.Trades[0].Outcome)
}

func TestImportIntoTargetAccount(t *testing.T) {
	h, dir := setup(t)

	w := postImport(t, h, ImportRequest{Path: filepath.Join(dir, "executions.csv"), Account: "MAIN"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]int{"MAIN": 2}, resp.Appended)

	w = get(h, "/api/trades/stats?account=MAIN")
	require.Equal(t, http.StatusOK, w.Code)
	var stats models.JournalStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, "-23.5", stats.NetPL.String())
}

func TestImportDryRun(t *testing.T) {
	h, dir := setup(t)

	w := postImport(t, h, ImportRequest{Path: dir, DryRun: true})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.DryRun)
	assert.Empty(t, resp.Appended)

	w = get(h, "/api/trades?account=SIM101")
	assert.NotContains(t, w.Body.String(), "ESH4")
}

func TestImportMissingFile(t *testing.T) {
	h, dir := setup(t)

	w := postImport(t, h, ImportRequest{Path: filepath.Join(dir, "missing.csv")})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Fatal)
	assert.True(t, strings.HasPrefix(resp.Results[0].Errors[0], "File not found: "))
}

func TestBadRequests(t *testing.T) {
	h, dir := setup(t)
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0755))

	if w := get(h, "/api/trades"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without account, got %d", w.Code)
	}
	if w := get(h, "/api/trades/stats"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without account, got %d", w.Code)
	}
	if w := postImport(t, h, ImportRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without path, got %d", w.Code)
	}
	if w := postImport(t, h, ImportRequest{Path: empty}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for directory without CSV files, got %d", w.Code)
	}
}

func TestImportRestrictedToImportDir(t *testing.T) {
	h, _ := setup(t)

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "other.csv"), []byte(exportCSV), 0644))

	for _, path := range []string{
		filepath.Join(outside, "other.csv"),
		outside,
		"../other.csv",
		filepath.Join("..", filepath.Base(outside), "other.csv"),
		"/etc/passwd",
	} {
		w := postImport(t, h, ImportRequest{Path: path})
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}

	w := get(h, "/api/trades?account=SIM101")
	assert.NotContains(t, w.Body.String(), "ESH4")
}

func TestImportRelativePath(t *testing.T) {
	h, _ := setup(t)

	w := postImport(t, h, ImportRequest{Path: "executions.csv", Account: "MAIN"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]int{"MAIN": 2}, resp.Appended)
}

func TestMetricsEndpoint(t *testing.T) {
	h, dir := setup(t)
	postImport(t, h, ImportRequest{Path: dir})

	w := get(h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_import_rows_parsed_total 3")
	assert.Contains(t, w.Body.String(), "test_journal_trades_appended_total")
}
