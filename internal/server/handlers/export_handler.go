package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesboard/internal/calendar"
	"github.com/mamadbah2/salesboard/internal/domain/models"
	"github.com/mamadbah2/salesboard/internal/service/inventorysync"
	"github.com/mamadbah2/salesboard/internal/service/preferences"
	"github.com/mamadbah2/salesboard/internal/service/reporting"
)

const (
	contentTypeCSV = "text/csv; charset=utf-8"
	contentTypePDF = "application/pdf"
)

var (
	errUnknownFormat = errors.New("format must be pdf or csv")
	errEmptyImport   = errors.New("import needs a file or at least one entry block")
	errBadRange      = errors.New("end must not be before start")
)

// ExportHandler serves the monthly report and the backend import/export.
type ExportHandler struct {
	sync    *inventorysync.Service
	prefs   *preferences.Service
	reports *reporting.Service
	logger  *zap.Logger
}

// NewExportHandler constructs the export handler.
func NewExportHandler(sync *inventorysync.Service, prefs *preferences.Service, reports *reporting.Service, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{sync: sync, prefs: prefs, reports: reports, logger: logger}
}

// Monthly renders the month report as PDF (default) or CSV. Without ?month
// the month of the current anchor is used.
func (h *ExportHandler) Monthly(c *gin.Context) {
	ctx := c.Request.Context()

	format := strings.ToLower(c.DefaultQuery("format", "pdf"))
	if format != "pdf" && format != "csv" {
		badRequest(c, h.logger, "invalid report format", errUnknownFormat)
		return
	}

	month := calendar.MonthOf(h.prefs.Load(ctx).Anchor)
	if raw := c.Query("month"); raw != "" {
		m, err := calendar.ParseMonth(raw)
		if err != nil {
			badRequest(c, h.logger, "invalid month", err)
			return
		}
		month = m
	}

	entries, err := h.sync.Entries(ctx, month.Range())
	if err != nil {
		respondError(c, h.logger, "failed to load entries", err)
		return
	}
	report, err := h.reports.BuildMonthly(entries, month)
	if err != nil {
		respondError(c, h.logger, "failed to build report", err)
		return
	}

	var (
		data        []byte
		contentType string
	)
	if format == "csv" {
		data, err = h.reports.RenderCSV(report)
		contentType = contentTypeCSV
	} else {
		data, err = h.reports.RenderPDF(report)
		contentType = contentTypePDF
	}
	if err != nil {
		respondError(c, h.logger, "failed to render report", err)
		return
	}

	attachment(c, reporting.FileName(report, format))
	c.Data(http.StatusOK, contentType, data)
}

// Export passes the backend CSV export of ?start..?end through.
func (h *ExportHandler) Export(c *gin.Context) {
	var r calendar.Range
	var err error
	if r.Start, err = calendar.ParseDate(c.Query("start")); err != nil {
		badRequest(c, h.logger, "invalid start", err)
		return
	}
	if r.End, err = calendar.ParseDate(c.Query("end")); err != nil {
		badRequest(c, h.logger, "invalid end", err)
		return
	}
	if r.End.Before(r.Start) {
		badRequest(c, h.logger, "invalid range", errBadRange)
		return
	}

	data, err := h.sync.ExportCSV(c.Request.Context(), r)
	if err != nil {
		respondError(c, h.logger, "failed to export inventory", err)
		return
	}
	attachment(c, fmt.Sprintf("inventory-%s-%s.csv", r.Start, r.End))
	c.Data(http.StatusOK, contentTypeCSV, data)
}

// ImportTemplate passes the backend import template through.
func (h *ExportHandler) ImportTemplate(c *gin.Context) {
	data, err := h.sync.ImportTemplate(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "failed to load import template", err)
		return
	}
	attachment(c, "inventory-import-template.csv")
	c.Data(http.StatusOK, contentTypeCSV, data)
}

// Import uploads a multipart "file" or a JSON array of entry blocks.
func (h *ExportHandler) Import(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		result models.ImportResult
		err    error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, ferr := c.FormFile("file")
		if ferr != nil {
			badRequest(c, h.logger, "missing import file", ferr)
			return
		}
		file, ferr := header.Open()
		if ferr != nil {
			badRequest(c, h.logger, "unreadable import file", ferr)
			return
		}
		defer file.Close()
		result, err = h.sync.ImportCSV(ctx, header.Filename, file)
	} else {
		var blocks []models.EntryDraft
		if berr := c.ShouldBindJSON(&blocks); berr != nil {
			badRequest(c, h.logger, "invalid import payload", berr)
			return
		}
		if len(blocks) == 0 {
			badRequest(c, h.logger, "invalid import payload", errEmptyImport)
			return
		}
		result, err = h.sync.ImportJSON(ctx, blocks)
	}
	if err != nil {
		respondError(c, h.logger, "import failed", err)
		return
	}

	h.logger.Info("inventory imported", zap.Strings("dates", result.ImportedDates))
	if result.ImportedDates == nil {
		result.ImportedDates = []string{}
	}
	c.JSON(http.StatusOK, result)
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}
