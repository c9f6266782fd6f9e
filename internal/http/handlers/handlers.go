package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/eden-ncr/backend/internal/models"
	"github.com/eden-ncr/backend/internal/normalize"
	"github.com/eden-ncr/backend/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	Reports   *service.ReportService
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

// reportRequest is the shared body for every report endpoint. All fields
// are optional; dates accept 2006-01-02, 2006/01/02 or 02-Jan-2006. Status
// selects the Open or Closed variant of a Safety/Housekeeping report.
type reportRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	UntilDate string `json:"until_date"`
	Status    string `json:"status" validate:"omitempty,oneof=open closed"`
	Format    string `json:"format" validate:"omitempty,oneof=json xlsx"`
}

func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Fetch pulls the raw record set without running any pipeline; used to
// verify source connectivity and credentials.
func (h *Handler) Fetch(c *gin.Context) {
	records, err := h.Reports.Fetch(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusBadGateway, "FETCH_FAILED", "Source fetch failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "records": records})
}

func (h *Handler) NCRReport(c *gin.Context) {
	req, params, ok := h.bindReportRequest(c)
	if !ok {
		return
	}
	result, err := h.Reports.NCR(c.Request.Context(), params)
	if err != nil {
		h.writeReportError(c, err)
		return
	}
	if req.Format == "xlsx" {
		h.streamWorkbook(c, result.Workbook, "ncr_report")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"counts":   result.Counts,
		"resolved": result.Resolved,
		"open":     result.Open,
	})
}

func (h *Handler) SafetyReport(c *gin.Context) {
	h.keywordReport(c, models.ReportSafety)
}

func (h *Handler) HousekeepingReport(c *gin.Context) {
	h.keywordReport(c, models.ReportHousekeeping)
}

func (h *Handler) keywordReport(c *gin.Context, reportType models.ReportType) {
	req, params, ok := h.bindReportRequest(c)
	if !ok {
		return
	}
	result, err := h.Reports.Keyword(c.Request.Context(), reportType, params)
	if err != nil {
		h.writeReportError(c, err)
		return
	}
	if req.Format == "xlsx" {
		h.streamWorkbook(c, result.Workbook, fmt.Sprintf("%s_report", reportType))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"counts":    result.Counts,
		"aggregate": result.Aggregate,
	})
}

func (h *Handler) CombinedReport(c *gin.Context) {
	req, params, ok := h.bindReportRequest(c)
	if !ok {
		return
	}
	result, err := h.Reports.Combined(c.Request.Context(), params)
	if err != nil {
		h.writeReportError(c, err)
		return
	}
	if req.Format == "xlsx" {
		h.streamWorkbook(c, result.Workbook, "all_reports")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"counts":              result.Counts,
		"resolved":            result.Resolved,
		"open":                result.Open,
		"safety_closed":       result.SafetyClosed,
		"safety_open":         result.SafetyOpen,
		"housekeeping_closed": result.HousekeepingClosed,
		"housekeeping_open":   result.HousekeepingOpen,
	})
}

// bindReportRequest parses the optional JSON body and its date fields. An
// empty body selects default parameters and JSON output.
func (h *Handler) bindReportRequest(c *gin.Context) (reportRequest, service.ReportParams, bool) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed request body", err.Error())
		return req, service.ReportParams{}, false
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request fields", err.Error())
		return req, service.ReportParams{}, false
	}

	var params service.ReportParams
	var err error
	if params.Start, err = normalize.ParseDate(req.StartDate); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_DATE", "Invalid start_date", err.Error())
		return req, params, false
	}
	if params.End, err = normalize.ParseDate(req.EndDate); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_DATE", "Invalid end_date", err.Error())
		return req, params, false
	}
	if params.Until, err = normalize.ParseDate(req.UntilDate); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_DATE", "Invalid until_date", err.Error())
		return req, params, false
	}
	if !params.Start.IsZero() && !params.End.IsZero() && params.End.Before(params.Start) {
		writeError(c, http.StatusBadRequest, "INVALID_DATE", "end_date precedes start_date", nil)
		return req, params, false
	}
	if req.Status == "closed" {
		params.Variant = models.ReportClosed
	}
	return req, params, true
}

func (h *Handler) writeReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, normalize.ErrEmptyInput):
		writeError(c, http.StatusUnprocessableEntity, "NO_RECORDS", "No records to process", err.Error())
	case errors.Is(err, normalize.ErrInvalidDateRange):
		writeError(c, http.StatusBadRequest, "INVALID_DATE", "Invalid date range", err.Error())
	default:
		h.Logger.Error().Err(err).Msg("report pipeline failed")
		writeError(c, http.StatusInternalServerError, "REPORT_FAILED", "Report generation failed", err.Error())
	}
}

func (h *Handler) streamWorkbook(c *gin.Context, wb *excelize.File, name string) {
	filename := fmt.Sprintf("%s_%s.xlsx", name, time.Now().UTC().Format("2006_01_02"))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := wb.Write(c.Writer); err != nil {
		h.Logger.Error().Err(err).Msg("workbook write failed")
	}
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
