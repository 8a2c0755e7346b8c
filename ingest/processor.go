package ingest

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/viktsys/tradejournal/models"
	"github.com/viktsys/tradejournal/observability"
)

// DefaultFileWorkers bounds concurrent file imports in ProcessDirectory.
const DefaultFileWorkers = 4

const (
	msgEmptyFile      = "File is empty or contains no data rows"
	msgFileNotFound   = "File not found: %s"
	msgReadFailed     = "Failed to read file: %v"
	msgMissingColumns = "Missing required columns: %s"
	msgLineError      = "Line %d: %v"
	msgGroupWarning   = "Failed to process trade group '%s': %v"
	msgSingleWarning  = "Failed to process single row: %v"
)

const utf8BOM = "\ufeff"

type Processor struct {
	log         logrus.FieldLogger
	metrics     *observability.Metrics
	fileWorkers int

	mapRecord        func(values []string, columns ColumnMap) ExecutionRecord
	synthesizeGroup  func(records []ExecutionRecord) (models.Trade, error)
	synthesizeSingle func(record ExecutionRecord) models.Trade

	processedRows  int64
	processedFiles int64
}

// NewProcessor creates a Processor. A nil logger discards output and a nil
// metrics value records nothing.
func NewProcessor(log logrus.FieldLogger, metrics *observability.Metrics, fileWorkers int) *Processor {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	if fileWorkers <= 0 {
		fileWorkers = DefaultFileWorkers
	}
	return &Processor{
		log:         log,
		metrics:     metrics,
		fileWorkers: fileWorkers,

		mapRecord:        MapRecord,
		synthesizeGroup:  SynthesizeGroup,
		synthesizeSingle: SynthesizeSingle,
	}
}

// ProcessedRows returns the number of rows parsed since the Processor was created.
func (p *Processor) ProcessedRows() int64 {
	return atomic.LoadInt64(&p.processedRows)
}

// ProcessedFiles returns the number of files imported without a fatal error.
func (p *Processor) ProcessedFiles() int64 {
	return atomic.LoadInt64(&p.processedFiles)
}

// ProcessDirectory imports every *.csv file in dataDir concurrently.
// Results are returned in file-name order, one per file.
func (p *Processor) ProcessDirectory(dataDir string) ([]*models.ImportResult, error) {
	startTime := time.Now()

	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to find CSV files: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no CSV files found in directory: %s", dataDir)
	}
	sort.Strings(files)

	p.log.WithFields(logrus.Fields{
		"dir":     dataDir,
		"files":   len(files),
		"workers": p.fileWorkers,
	}).Info("Importing directory")

	results := make([]*models.ImportResult, len(files))
	semaphore := make(chan struct{}, p.fileWorkers)
	var wg sync.WaitGroup

	for i, file := range files {
		wg.Add(1)
		go func(i int, filename string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[i] = p.ProcessFile(filename)
		}(i, file)
	}

	wg.Wait()

	p.log.WithFields(logrus.Fields{
		"dir":      dataDir,
		"files":    atomic.LoadInt64(&p.processedFiles),
		"rows":     atomic.LoadInt64(&p.processedRows),
		"duration": time.Since(startTime),
	}).Info("Directory import completed")

	return results, nil
}

// ProcessFile imports one execution export. It never panics and always
// returns a result; file-level failures are reported through result.Fatal.
func (p *Processor) ProcessFile(filename string) *models.ImportResult {
	data, err := os.ReadFile(filename)
	if err != nil {
		result := models.NewImportResult(filename)
		if errors.Is(err, fs.ErrNotExist) {
			result.Fail(fmt.Sprintf(msgFileNotFound, filename))
		} else {
			result.Fail(fmt.Sprintf(msgReadFailed, err))
		}
		p.metrics.ObserveImport(0, 0, 0, 0, true, 0)
		p.log.WithField("file", filename).Warn(result.Errors[0])
		return result
	}

	return p.Process(filename, data)
}

// Process imports already-read file contents.
func (p *Processor) Process(name string, data []byte) *models.ImportResult {
	start := time.Now()
	result := models.NewImportResult(name)

	p.process(splitLines(string(data)), result)

	duration := time.Since(start)
	p.metrics.ObserveImport(result.TotalRowsParsed, result.SuccessfulTrades,
		len(result.Errors), len(result.Warnings), result.Fatal, duration)

	entry := p.log.WithFields(logrus.Fields{
		"file":     name,
		"rows":     result.TotalRowsParsed,
		"trades":   result.SuccessfulTrades,
		"errors":   len(result.Errors),
		"warnings": len(result.Warnings),
		"duration": duration,
	})
	if result.Fatal {
		entry.Warn("Import failed: " + result.Errors[0])
		return result
	}

	atomic.AddInt64(&p.processedFiles, 1)
	atomic.AddInt64(&p.processedRows, int64(result.TotalRowsParsed))
	entry.Info("Import completed")

	return result
}

func (p *Processor) process(lines []string, result *models.ImportResult) {
	if len(lines) < 2 {
		result.Fail(msgEmptyFile)
		return
	}

	columns := ResolveColumns(SplitLine(lines[0]))
	if missing := columns.Missing(RequiredColumns); len(missing) > 0 {
		result.Fail(fmt.Sprintf(msgMissingColumns, strings.Join(missing, ", ")))
		return
	}

	records := make([]ExecutionRecord, 0, len(lines)-1)
	for i := 1; i < len(lines); i++ {
		lineNum := i + 1
		record, ok, err := p.mapLine(lines[i], columns)
		if err != nil {
			result.AddError(fmt.Sprintf(msgLineError, lineNum, err))
			continue
		}
		if !ok {
			continue
		}
		record.Line = lineNum
		records = append(records, record)
	}
	result.TotalRowsParsed = len(records)

	groups, ungrouped := GroupRecords(records)

	for _, group := range groups {
		trade, err := guard(func() (models.Trade, error) {
			return p.synthesizeGroup(group.Records)
		})
		if err != nil {
			result.AddWarning(fmt.Sprintf(msgGroupWarning, group.Key, err))
			continue
		}
		result.AddTrade(trade)
	}

	for _, record := range ungrouped {
		trade, err := guard(func() (models.Trade, error) {
			return p.synthesizeSingle(record), nil
		})
		if err != nil {
			result.AddWarning(fmt.Sprintf(msgSingleWarning, err))
			continue
		}
		result.AddTrade(trade)
	}
}

// mapLine tokenizes and maps one data line. ok is false for lines that are
// skipped silently (empty first value).
func (p *Processor) mapLine(line string, columns ColumnMap) (record ExecutionRecord, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	values := SplitLine(line)
	if len(values) == 0 || values[0] == "" {
		return ExecutionRecord{}, false, nil
	}
	return p.mapRecord(values, columns), true, nil
}

// guard runs fn and converts a panic into an error.
func guard(fn func() (models.Trade, error)) (trade models.Trade, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return fn()
}

// splitLines splits file contents into lines. A trailing newline does not
// produce an extra empty line and a leading BOM is dropped.
func splitLines(content string) []string {
	content = strings.TrimPrefix(content, utf8BOM)
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
