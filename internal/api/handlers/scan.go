package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/dss-scanner/internal/models"
	"github.com/irfndi/dss-scanner/internal/report"
	"github.com/irfndi/dss-scanner/internal/services"
)

// ScanService is the part of services.Scanner the API serves.
type ScanService interface {
	StartScan(ctx context.Context, onProgress services.ProgressFunc) (string, error)
	Latest() (*models.ScanResult, error)
	Progress() services.ScanProgress
}

// ScanHandler exposes the latest scan, its progress and a refresh trigger.
type ScanHandler struct {
	scanner    ScanService
	timeframes []models.Timeframe
	renderer   *report.Renderer
	baseCtx    context.Context
	logger     *logrus.Logger
}

// ErrorResponse is returned with an empty row set whenever no result can be served.
type ErrorResponse struct {
	Error      string             `json:"error"`
	Timeframes []models.Timeframe `json:"timeframes"`
	Rows       []models.SymbolRow `json:"rows"`
}

// NewScanHandler creates a handler. Refreshes run on baseCtx so they outlive
// the triggering request but stop with the server.
func NewScanHandler(baseCtx context.Context, scanner ScanService, timeframes []models.Timeframe, logger *logrus.Logger) *ScanHandler {
	return &ScanHandler{
		scanner:    scanner,
		timeframes: timeframes,
		renderer:   report.NewRenderer(false),
		baseCtx:    baseCtx,
		logger:     logger,
	}
}

// GetLatest serves GET /api/v1/scan. Pass format=table for the plain-text table.
func (h *ScanHandler) GetLatest(c *gin.Context) {
	format, err := report.ParseFormat(c.DefaultQuery("format", string(report.FormatJSON)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.scanner.Latest()
	switch {
	case err != nil:
		h.writeError(c, http.StatusBadGateway, err, format)
		return
	case result == nil:
		h.writeError(c, http.StatusServiceUnavailable, errors.New("no scan has completed yet"), format)
		return
	}

	if format == report.FormatTable {
		var buf bytes.Buffer
		if err := h.renderer.Render(&buf, result, report.FormatTable); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
		return
	}
	c.JSON(http.StatusOK, result)
}

// Refresh serves POST /api/v1/scan/refresh by starting a scan in the
// background. It answers 409 when a scan is already running.
func (h *ScanHandler) Refresh(c *gin.Context) {
	runID, err := h.scanner.StartScan(h.baseCtx, nil)
	if errors.Is(err, services.ErrScanInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "progress": h.scanner.Progress()})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to start scan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.WithField("run_id", runID).Info("Scan refresh requested")
	c.JSON(http.StatusAccepted, gin.H{"message": "scan started", "run_id": runID})
}

// GetProgress serves GET /api/v1/scan/progress.
func (h *ScanHandler) GetProgress(c *gin.Context) {
	c.JSON(http.StatusOK, h.scanner.Progress())
}

func (h *ScanHandler) writeError(c *gin.Context, status int, err error, format report.Format) {
	if format == report.FormatTable {
		var buf bytes.Buffer
		_ = h.renderer.RenderError(&buf, err, h.timeframes, report.FormatTable)
		c.Data(status, "text/plain; charset=utf-8", buf.Bytes())
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Timeframes: h.timeframes, Rows: []models.SymbolRow{}})
}
