package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/services"
)

const reportDateLayout = "2006-01-02"

// ReportHandler serves the dashboard and the transaction report.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetDashboard returns the petty-cash summary
// @Summary     Dashboard
// @Description Balances, period totals per category, pending drafts and undisbursed top-ups. The period defaults to the current month.
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Period start (YYYY-MM-DD)"
// @Param       end_date   query string false "Period end (YYYY-MM-DD)"
// @Success     200 {object} services.Dashboard "Dashboard"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /dashboard [get]
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var start, end time.Time
	if s, err := optionalDate(c, "start_date"); err != nil {
		respondWithError(c, err)
		return
	} else if s != nil {
		start = *s
	}
	if e, err := optionalDate(c, "end_date"); err != nil {
		respondWithError(c, err)
		return
	} else if e != nil {
		end = *e
	}

	dashboard, err := h.reportService.Dashboard(actor, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetTransactionReport renders the ledger of a period
// @Summary     Transaction report
// @Description Transactions of a period with opening balance, running balance and totals. CSV by default so the link opens in a browser; format=json returns the same data as JSON. The access token may be passed as the token query parameter on this route.
// @Tags        reports
// @Produce     text/csv,json
// @Security    BearerAuth
// @Param       start_date     query string true  "Period start (YYYY-MM-DD)"
// @Param       end_date       query string true  "Period end (YYYY-MM-DD)"
// @Param       branch_id      query string false "Filter by branch"
// @Param       unit_id        query string false "Filter by unit"
// @Param       budget_item_id query string false "Filter by budget item"
// @Param       format         query string false "csv (default) or json"
// @Param       token          query string false "Access token"
// @Success     200 {object} services.TransactionReport "Report"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /reports/transactions [get]
func (h *ReportHandler) GetTransactionReport(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := reportFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.TransactionReport(actor, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	switch c.DefaultQuery("format", "csv") {
	case "json":
		c.JSON(http.StatusOK, report)
	case "csv":
		h.writeCSV(c, report)
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "format harus csv atau json"))
	}
}

func reportFilter(c *gin.Context) (services.ReportFilter, error) {
	filter := services.ReportFilter{
		BranchID:     c.Query("branch_id"),
		UnitID:       c.Query("unit_id"),
		BudgetItemID: c.Query("budget_item_id"),
	}
	start, err := optionalDate(c, "start_date")
	if err != nil {
		return filter, err
	}
	end, err := optionalDate(c, "end_date")
	if err != nil {
		return filter, err
	}
	if start == nil || end == nil {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "Tanggal awal dan akhir wajib diisi")
	}
	filter.Start, filter.End = *start, *end
	return filter, nil
}

// writeCSV streams the report as CSV, gzip-compressed when the client
// accepts it.
func (h *ReportHandler) writeCSV(c *gin.Context, report *services.TransactionReport) {
	filename := fmt.Sprintf("laporan-kas-kecil_%s_%s.csv",
		report.Start.Format(reportDateLayout), report.End.Format(reportDateLayout))

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Vary", "Accept-Encoding")

	var w io.Writer = c.Writer
	if strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
		c.Header("Content-Encoding", "gzip")
		gz := gzip.NewWriter(c.Writer)
		defer gz.Close()
		w = gz
	}
	c.Status(http.StatusOK)

	if err := encodeReportCSV(w, report); err != nil {
		_ = c.Error(apperrors.Wrap(apperrors.ErrInternalServer, err))
	}
}

// encodeReportCSV writes the header, the opening balance, one line per
// transaction and the totals.
func encodeReportCSV(w io.Writer, report *services.TransactionReport) error {
	cw := csv.NewWriter(w)
	amount := func(v int64) string { return strconv.FormatInt(v, 10) }

	records := [][]string{
		{"Tanggal", "Kode MA", "Mata Anggaran", "Kategori", "Uraian", "Debit", "Kredit", "Saldo"},
		{report.Start.Format(reportDateLayout), "", "", "", "Saldo awal", "", "", amount(report.OpeningBalance)},
	}
	for _, row := range report.Rows {
		records = append(records, []string{
			row.Date.Format(reportDateLayout),
			row.BudgetItemCode,
			row.BudgetItemName,
			string(row.Category),
			row.Description,
			amount(row.In),
			amount(row.Out),
			amount(row.Balance),
		})
	}
	records = append(records, []string{
		report.End.Format(reportDateLayout), "", "", "", "Jumlah",
		amount(report.TotalIn), amount(report.TotalOut), amount(report.ClosingBalance),
	})

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("writing report csv: %w", err)
	}
	return nil
}
