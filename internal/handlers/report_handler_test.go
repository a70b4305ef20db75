package handlers

import (
	"encoding/csv"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/internal/services"
	"kaskecil/internal/uuid"
	"kaskecil/pkg/lifecycle"
)

// --- mock report service ---

type mockReportService struct {
	dashboardFn         func(actor services.Actor, start, end time.Time) (*services.Dashboard, error)
	transactionReportFn func(actor services.Actor, filter services.ReportFilter) (*services.TransactionReport, error)
}

func (m *mockReportService) Dashboard(actor services.Actor, start, end time.Time) (*services.Dashboard, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(actor, start, end)
	}
	return &services.Dashboard{}, nil
}

func (m *mockReportService) TransactionReport(actor services.Actor, filter services.ReportFilter) (*services.TransactionReport, error) {
	if m.transactionReportFn != nil {
		return m.transactionReportFn(actor, filter)
	}
	return sampleReport(filter.Start, filter.End), nil
}

var _ services.ReportServicer = (*mockReportService)(nil)

type mockAttachmentService struct {
	attachment *models.Attachment
}

func (m *mockAttachmentService) GetAttachment(_ services.Actor, _ string) (*models.Attachment, error) {
	if m.attachment == nil {
		return nil, apperrors.ErrAttachmentNotFound
	}
	return m.attachment, nil
}

var _ services.AttachmentServicer = (*mockAttachmentService)(nil)

func sampleReport(start, end time.Time) *services.TransactionReport {
	return &services.TransactionReport{
		Start:          start,
		End:            end,
		OpeningBalance: 500000,
		TotalIn:        200000,
		TotalOut:       75000,
		ClosingBalance: 625000,
		Rows: []services.ReportRow{
			{Date: start, BudgetItemCode: "MA-01", BudgetItemName: "Konsumsi", Category: lifecycle.CategoryExpense,
				Description: "Snack rapat, \"bulanan\"", Out: 75000, Balance: 425000},
			{Date: end, BudgetItemCode: "MA-01", BudgetItemName: "Konsumsi", Category: lifecycle.CategoryTopUp,
				Description: "Pengisian kas", In: 200000, Balance: 625000},
		},
	}
}

func setupReportRouter(handler *ReportHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectActor(testActor(lifecycle.RoleUnitAdmin)))
	auth.GET("/dashboard", handler.GetDashboard)
	auth.GET("/reports/transactions", handler.GetTransactionReport)
	return r
}

func readCSV(t *testing.T, r io.Reader) [][]string {
	t.Helper()
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

func TestReportHandler_GetDashboard(t *testing.T) {
	t.Run("passes zero period when omitted", func(t *testing.T) {
		var gotStart, gotEnd time.Time
		svc := &mockReportService{
			dashboardFn: func(_ services.Actor, start, end time.Time) (*services.Dashboard, error) {
				gotStart, gotEnd = start, end
				return &services.Dashboard{TotalBalance: 625000, PendingDrafts: 2}, nil
			},
		}
		r := setupReportRouter(NewReportHandler(svc))

		rec := doRequest(r, "GET", "/dashboard", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !gotStart.IsZero() || !gotEnd.IsZero() {
			t.Errorf("expected zero period, got %v - %v", gotStart, gotEnd)
		}
		body := parseJSON(t, rec)
		if body["total_balance"] != float64(625000) || body["pending_drafts"] != float64(2) {
			t.Errorf("unexpected dashboard %v", body)
		}
	})

	t.Run("returns 400 on bad date", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(&mockReportService{}))

		rec := doRequest(r, "GET", "/dashboard?start_date=kemarin", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestReportHandler_GetTransactionReport(t *testing.T) {
	const query = "/reports/transactions?start_date=2026-05-01&end_date=2026-05-31"

	t.Run("renders csv by default", func(t *testing.T) {
		var got services.ReportFilter
		svc := &mockReportService{
			transactionReportFn: func(_ services.Actor, filter services.ReportFilter) (*services.TransactionReport, error) {
				got = filter
				return sampleReport(filter.Start, filter.End), nil
			},
		}
		r := setupReportRouter(NewReportHandler(svc))

		rec := doRequest(r, "GET", query+"&unit_id="+testUnitID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.UnitID != testUnitID || got.Start.Day() != 1 || got.End.Day() != 31 {
			t.Errorf("unexpected filter %+v", got)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
			t.Errorf("unexpected content type %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "laporan-kas-kecil_2026-05-01_2026-05-31.csv") {
			t.Errorf("unexpected content disposition %q", cd)
		}

		records := readCSV(t, rec.Body)
		if len(records) != 5 {
			t.Fatalf("expected 5 records, got %d", len(records))
		}
		if records[0][0] != "Tanggal" || records[1][4] != "Saldo awal" || records[1][7] != "500000" {
			t.Errorf("unexpected header or opening row %v %v", records[0], records[1])
		}
		if records[2][4] != `Snack rapat, "bulanan"` || records[2][6] != "75000" {
			t.Errorf("unexpected first row %v", records[2])
		}
		if records[4][4] != "Jumlah" || records[4][5] != "200000" || records[4][7] != "625000" {
			t.Errorf("unexpected totals row %v", records[4])
		}
	})

	t.Run("compresses when accepted", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(&mockReportService{}))

		req := httptest.NewRequest("GET", query, nil)
		req.Header.Set("Accept-Encoding", "gzip, deflate")
		rec := serve(r, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if rec.Header().Get("Content-Encoding") != "gzip" {
			t.Fatalf("expected gzip encoding")
		}
		gz, err := gzip.NewReader(rec.Body)
		if err != nil {
			t.Fatalf("gzip reader: %v", err)
		}
		defer gz.Close()
		if records := readCSV(t, gz); len(records) != 5 {
			t.Errorf("expected 5 records, got %d", len(records))
		}
	})

	t.Run("renders json on request", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(&mockReportService{}))

		rec := doRequest(r, "GET", query+"&format=json", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := parseJSON(t, rec)
		if body["closing_balance"] != float64(625000) {
			t.Errorf("unexpected closing balance %v", body["closing_balance"])
		}
		if rows := body["rows"].([]interface{}); len(rows) != 2 {
			t.Errorf("expected 2 rows, got %d", len(rows))
		}
	})

	t.Run("returns 400 on unknown format", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(&mockReportService{}))

		rec := doRequest(r, "GET", query+"&format=xlsx", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 without period", func(t *testing.T) {
		r := setupReportRouter(NewReportHandler(&mockReportService{}))

		rec := doRequest(r, "GET", "/reports/transactions?start_date=2026-05-01", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestAttachmentHandler_GetAttachment(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "2026", "05"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := []byte("%PDF-1.4 nota")
	if err := os.WriteFile(filepath.Join(dir, "2026", "05", "nota.pdf"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	setup := func(svc services.AttachmentServicer, store AttachmentStore) *gin.Engine {
		r := gin.New()
		r.GET("/attachments/:id", injectActor(testActor(lifecycle.RoleOfficer)), NewAttachmentHandler(svc, store).GetAttachment)
		return r
	}

	t.Run("streams the stored file", func(t *testing.T) {
		svc := &mockAttachmentService{attachment: &models.Attachment{
			Base:        models.Base{ID: uuid.New(), CreatedAt: time.Now()},
			FileName:    "nota toko.pdf",
			ContentType: "application/pdf",
			Path:        "2026/05/nota.pdf",
		}}
		r := setup(svc, &fakeStore{dir: dir})

		rec := doRequest(r, "GET", "/attachments/"+svc.attachment.ID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if rec.Body.String() != string(content) {
			t.Errorf("unexpected body %q", rec.Body.String())
		}
		if rec.Header().Get("Content-Type") != "application/pdf" {
			t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "inline;") || !strings.Contains(cd, "nota toko.pdf") {
			t.Errorf("unexpected content disposition %q", cd)
		}
	})

	t.Run("returns 404 when not visible", func(t *testing.T) {
		r := setup(&mockAttachmentService{}, &fakeStore{dir: dir})

		rec := doRequest(r, "GET", "/attachments/"+uuid.New(), "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ATTACHMENT_NOT_FOUND")
	})
}
