package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/viktsys/tradejournal/ingest"
	"github.com/viktsys/tradejournal/journal"
	"github.com/viktsys/tradejournal/models"
	"github.com/viktsys/tradejournal/observability"
	"github.com/viktsys/tradejournal/storage"
)

var errOutsideImportDir = errors.New("path is outside the import directory")

type Handler struct {
	processor *ingest.Processor
	journal   *journal.Journal
	metrics   *observability.Metrics
	importDir string
	log       logrus.FieldLogger
}

// NewHandler creates the API handler. Imports are restricted to files under
// importDir; relative request paths are resolved against it.
func NewHandler(processor *ingest.Processor, j *journal.Journal, metrics *observability.Metrics, importDir string, log logrus.FieldLogger) *Handler {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Handler{
		processor: processor,
		journal:   j,
		metrics:   metrics,
		importDir: importDir,
		log:       log,
	}
}

type AccountQuery struct {
	Account string `form:"account" binding:"required"`
}

type ImportRequest struct {
	Path    string `json:"path" binding:"required"`
	Account string `json:"account"`
	DryRun  bool   `json:"dry_run"`
}

type ImportResponse struct {
	Results  []*models.ImportResult `json:"results"`
	Appended map[string]int         `json:"appended"`
	DryRun   bool                   `json:"dry_run"`
}

func (h *Handler) ListTrades(c *gin.Context) {
	var params AccountQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trades, err := h.journal.Store().TradesForAccount(c.Request.Context(), params.Account)
	if err != nil {
		h.log.WithError(err).WithField("account", params.Account).Error("Failed to list trades")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": params.Account, "trades": trades})
}

func (h *Handler) GetTradeStats(c *gin.Context) {
	var params AccountQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trades, err := h.journal.Store().TradesForAccount(c.Request.Context(), params.Account)
	if err != nil {
		h.log.WithError(err).WithField("account", params.Account).Error("Failed to load trades")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.ComputeStats(params.Account, trades))
}

// ImportFiles imports a file or every CSV in a directory, then merges the
// trades of each successful import into the journal unless dry_run is set.
func (h *Handler) ImportFiles(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	path, err := h.resolveImportPath(req.Path)
	if err != nil {
		h.log.WithField("path", req.Path).Warn("Rejected import outside the import directory")
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	var results []*models.ImportResult
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		results, err = h.processor.ProcessDirectory(path)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	} else {
		results = []*models.ImportResult{h.processor.ProcessFile(path)}
	}

	resp := ImportResponse{Results: results, Appended: map[string]int{}, DryRun: req.DryRun}
	if req.DryRun {
		c.JSON(http.StatusOK, resp)
		return
	}

	var trades []models.Trade
	for _, result := range results {
		if result.Success() {
			trades = append(trades, result.Trades...)
		}
	}

	account := strings.TrimSpace(req.Account)
	if account != "" {
		var n int
		n, err = h.journal.Merge(c.Request.Context(), account, trades)
		resp.Appended[account] = n
	} else {
		var counts map[string]int
		counts, err = h.journal.MergeByAccount(c.Request.Context(), trades)
		for k, v := range counts {
			resp.Appended[k] = v
		}
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		h.log.WithError(err).Error("Journal merge failed")
		c.JSON(status, gin.H{"error": err.Error(), "appended": resp.Appended})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// resolveImportPath returns the cleaned, symlink-resolved path for p, or
// errOutsideImportDir when it does not lie under the import directory.
func (h *Handler) resolveImportPath(p string) (string, error) {
	root, err := filepath.Abs(h.importDir)
	if err != nil {
		return "", err
	}
	root = resolveSymlinks(root)

	target := p
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	target = resolveSymlinks(filepath.Clean(target))

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideImportDir
	}
	return target, nil
}

// resolveSymlinks resolves p, or its parent when p itself does not exist.
func resolveSymlinks(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(p)); err == nil {
		return filepath.Join(dir, filepath.Base(p))
	}
	return p
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("Request served")
	}
}

func (h *Handler) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(h.requestLogger(), gin.Recovery())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	r.GET("/api/trades", h.ListTrades)
	r.GET("/api/trades/stats", h.GetTradeStats)
	r.POST("/api/imports", h.ImportFiles)

	return r
}
