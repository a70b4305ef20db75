package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/internal/pagination"
	"kaskecil/internal/services"
	"kaskecil/internal/uuid"
	"kaskecil/pkg/lifecycle"
)

// --- mock transaction service ---

type mockTransactionService struct {
	createTransactionFn func(actor services.Actor, input services.EntryInput) (*models.Transaction, error)
	listTransactionsFn  func(actor services.Actor, filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	getTransactionFn    func(actor services.Actor, id string) (*models.Transaction, error)
	updateTransactionFn func(actor services.Actor, id string, input services.TransactionUpdate) (*models.Transaction, error)
	deleteTransactionFn func(actor services.Actor, id string) error
}

func (m *mockTransactionService) CreateTransaction(actor services.Actor, input services.EntryInput) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(actor, input)
	}
	return &models.Transaction{Base: models.Base{ID: uuid.New()}, Category: input.Category, Amount: input.Amount}, nil
}

func (m *mockTransactionService) ListTransactions(actor services.Actor, filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(actor, filter, page)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, page.Page, page.PerPage, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransaction(actor services.Actor, id string) (*models.Transaction, error) {
	if m.getTransactionFn != nil {
		return m.getTransactionFn(actor, id)
	}
	return &models.Transaction{Base: models.Base{ID: id}}, nil
}

func (m *mockTransactionService) UpdateTransaction(actor services.Actor, id string, input services.TransactionUpdate) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(actor, id, input)
	}
	return &models.Transaction{Base: models.Base{ID: id}}, nil
}

func (m *mockTransactionService) DeleteTransaction(actor services.Actor, id string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(actor, id)
	}
	return nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

// --- fake attachment store ---

type fakeStore struct {
	saved   int
	removed []models.Attachment
	saveErr error
	dir     string
}

func (s *fakeStore) SaveFiles(files []*multipart.FileHeader) ([]models.Attachment, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	out := make([]models.Attachment, 0, len(files))
	for _, fh := range files {
		s.saved++
		out = append(out, models.Attachment{FileName: fh.Filename, ContentType: "image/jpeg", Path: "2026/05/" + fh.Filename})
	}
	return out, nil
}

func (s *fakeStore) Open(path string) (*os.File, error) {
	if s.dir == "" {
		return nil, apperrors.ErrAttachmentNotFound
	}
	return os.Open(s.dir + "/" + path)
}

func (s *fakeStore) Remove(attachments []models.Attachment) {
	s.removed = append(s.removed, attachments...)
}

var _ AttachmentStore = (*fakeStore)(nil)

// multipartRequest builds a multipart body with form fields and lampiran files.
func multipartRequest(t *testing.T, method, path string, fields map[string]string, files ...string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, name := range files {
		fw, err := w.CreateFormFile(attachmentField, name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write([]byte("%PDF-1.4\n%%EOF\n"))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTransactionRouter(handler *TransactionHandler, role lifecycle.Role) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectActor(testActor(role)))
	auth.POST("/transactions", handler.CreateTransaction)
	auth.GET("/transactions", handler.ListTransactions)
	auth.GET("/transactions/:id", handler.GetTransaction)
	auth.PUT("/transactions/:id", handler.UpdateTransaction)
	auth.DELETE("/transactions/:id", handler.DeleteTransaction)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	budgetItemID := uuid.New()

	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.EntryInput
		txSvc := &mockTransactionService{
			createTransactionFn: func(actor services.Actor, input services.EntryInput) (*models.Transaction, error) {
				if actor.UserID != testUserID {
					t.Errorf("expected actor %s, got %s", testUserID, actor.UserID)
				}
				got = input
				return &models.Transaction{Base: models.Base{ID: uuid.New()}, Category: input.Category, Amount: input.Amount}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, audit, &fakeStore{}), lifecycle.RoleUnitAdmin)

		rec := doRequest(r, "POST", "/transactions",
			`{"budget_item_id":"`+budgetItemID+`","category":"pengeluaran","amount":75000,"description":"ATK","date":"2026-05-04"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Amount != 75000 || got.Category != lifecycle.CategoryExpense || got.BudgetItemID != budgetItemID {
			t.Errorf("unexpected input: %+v", got)
		}
		if !got.Date.Equal(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected date %v", got.Date)
		}
		tx := parseJSON(t, rec)["transaction"].(map[string]interface{})
		if tx["amount"].(float64) != 75000 {
			t.Errorf("expected amount 75000, got %v", tx["amount"])
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "CREATE_TRANSACTION" {
			t.Errorf("expected CREATE_TRANSACTION audit entry, got %+v", audit.entries)
		}
	})

	t.Run("returns 400 on zero amount", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}, &fakeStore{}), lifecycle.RoleUnitAdmin)

		rec := doRequest(r, "POST", "/transactions",
			`{"budget_item_id":"`+budgetItemID+`","category":"pengeluaran","amount":0}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on unknown category", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}, &fakeStore{}), lifecycle.RoleUnitAdmin)

		rec := doRequest(r, "POST", "/transactions",
			`{"budget_item_id":"`+budgetItemID+`","category":"transfer","amount":1000}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on bad date", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}, &fakeStore{}), lifecycle.RoleUnitAdmin)

		rec := doRequest(r, "POST", "/transactions",
			`{"budget_item_id":"`+budgetItemID+`","category":"pengeluaran","amount":1000,"date":"04/05/2026"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("stores lampiran from multipart", func(t *testing.T) {
		var attachments int
		txSvc := &mockTransactionService{
			createTransactionFn: func(_ services.Actor, input services.EntryInput) (*models.Transaction, error) {
				attachments = len(input.Attachments)
				return &models.Transaction{Base: models.Base{ID: uuid.New()}}, nil
			},
		}
		store := &fakeStore{}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}, store), lifecycle.RoleUnitAdmin)

		req := multipartRequest(t, "POST", "/transactions", map[string]string{
			"budget_item_id": budgetItemID,
			"category":       "pengeluaran",
			"amount":         "20000",
		}, "nota1.pdf", "nota2.pdf")
		rec := serve(r, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if attachments != 2 || store.saved != 2 {
			t.Errorf("expected 2 attachments, service got %d, store saved %d", attachments, store.saved)
		}
		if len(store.removed) != 0 {
			t.Error("no file should be removed on success")
		}
	})

	t.Run("rejects more than three lampiran", func(t *testing.T) {
		store := &fakeStore{}
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}, store), lifecycle.RoleUnitAdmin)

		req := multipartRequest(t, "POST", "/transactions", map[string]string{
			"budget_item_id": budgetItemID,
			"category":       "pengeluaran",
			"amount":         "20000",
		}, "a.pdf", "b.pdf", "c.pdf", "d.pdf")
		rec := serve(r, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TOO_MANY_ATTACHMENTS")
		if store.saved != 0 {
			t.Error("nothing should be stored")
		}
	})

	t.Run("removes stored lampiran when the service fails", func(t *testing.T) {
		txSvc := &mockTransactionService{
			createTransactionFn: func(_ services.Actor, _ services.EntryInput) (*models.Transaction, error) {
				return nil, apperrors.ErrInsufficientBalance
			},
		}
		store := &fakeStore{}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}, store), lifecycle.RoleUnitAdmin)

		req := multipartRequest(t, "POST", "/transactions", map[string]string{
			"budget_item_id": budgetItemID,
			"category":       "pengeluaran",
			"amount":         "999999",
		}, "nota.pdf")
		rec := serve(r, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INSUFFICIENT_BALANCE")
		if len(store.removed) != 1 {
			t.Errorf("expected the stored file removed, got %d", len(store.removed))
		}
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}, &fakeStore{})
		r := gin.New()
		r.POST("/transactions", handler.CreateTransaction)

		rec := doRequest(r, "POST", "/transactions",
			`{"budget_item_id":"`+budgetItemID+`","category":"pengeluaran","amount":1000}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	t.Run("passes filters and returns page links", func(t *testing.T) {
		var gotFilter services.TransactionFilter
		var gotPage pagination.PageRequest
		txSvc := &mockTransactionService{
			listTransactionsFn: func(_ services.Actor, filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
				gotFilter, gotPage = filter, page
				resp := pagination.NewPageResponse([]models.Transaction{{Base: models.Base{ID: uuid.New()}}}, page.Page, page.PerPage, 25)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}, &fakeStore{}), lifecycle.RoleOfficer)

		rec := doRequest(r, "GET", "/transactions?q=atk&category=pengeluaran&start_date=2026-05-01&end_date=2026-05-31&page=2&per_page=10", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.Query != "atk" || gotFilter.Category != lifecycle.CategoryExpense {
			t.Errorf("unexpected filter: %+v", gotFilter)
		}
		if gotFilter.StartDate == nil || gotFilter.EndDate == nil || gotFilter.EndDate.Day() != 31 {
			t.Errorf("expected date range, got %v - %v", gotFilter.StartDate, gotFilter.EndDate)
		}
		if gotPage.Page != 2 || gotPage.PerPage != 10 {
			t.Errorf("unexpected page %+v", gotPage)
		}
		result := parseJSON(t, rec)
		meta := result["meta"].(map[string]interface{})
		if meta["total"].(float64) != 25 || meta["last_page"].(float64) != 3 {
			t.Errorf("unexpected meta %v", meta)
		}
		links := result["links"].(map[string]interface{})
		if links["prev"] == nil || links["next"] == nil {
			t.Errorf("expected prev and next links, got %v", links)
		}
	})

	t.Run("returns 400 when end is before start", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}, &fakeStore{}), lifecycle.RoleOfficer)

		rec := doRequest(r, "GET", "/transactions?start_date=2026-05-31&end_date=2026-05-01", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on per_page above maximum", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}, &fakeStore{}), lifecycle.RoleOfficer)

		rec := doRequest(r, "GET", "/transactions?per_page=500", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_GetTransaction(t *testing.T) {
	t.Run("returns 400 on invalid id", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}, &fakeStore{}), lifecycle.RoleOfficer)

		rec := doRequest(r, "GET", "/transactions/123", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when not visible", func(t *testing.T) {
		txSvc := &mockTransactionService{
			getTransactionFn: func(_ services.Actor, _ string) (*models.Transaction, error) {
				return nil, apperrors.ErrTransactionNotFound
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}, &fakeStore{}), lifecycle.RoleOfficer)

		rec := doRequest(r, "GET", "/transactions/"+uuid.New(), "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})
}

func TestTransactionHandler_UpdateTransaction(t *testing.T) {
	id := uuid.New()
	var got services.TransactionUpdate
	txSvc := &mockTransactionService{
		updateTransactionFn: func(_ services.Actor, gotID string, input services.TransactionUpdate) (*models.Transaction, error) {
			if gotID != id {
				t.Errorf("expected id %s, got %s", id, gotID)
			}
			got = input
			return &models.Transaction{Base: models.Base{ID: gotID}}, nil
		},
	}
	r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}, &fakeStore{}), lifecycle.RoleUnitAdmin)

	rec := doRequest(r, "PUT", "/transactions/"+id, `{"description":"Fotokopi","date":"2026-05-06"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.Description == nil || *got.Description != "Fotokopi" || got.Date == nil || got.Date.Day() != 6 {
		t.Errorf("unexpected update input: %+v", got)
	}
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	t.Run("returns 409 for non-deletable category", func(t *testing.T) {
		txSvc := &mockTransactionService{
			deleteTransactionFn: func(_ services.Actor, _ string) error { return apperrors.ErrNotDeletable },
		}
		r := setupTransactionRouter(NewTransactionHandler(txSvc, &mockAuditService{}, &fakeStore{}), lifecycle.RoleUnitAdmin)

		rec := doRequest(r, "DELETE", "/transactions/"+uuid.New(), "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NOT_DELETABLE")
	})

	t.Run("returns 200 and audits", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, audit, &fakeStore{}), lifecycle.RoleUnitAdmin)

		rec := doRequest(r, "DELETE", "/transactions/"+uuid.New(), "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "DELETE_TRANSACTION" {
			t.Errorf("expected DELETE_TRANSACTION audit entry, got %+v", audit.entries)
		}
	})
}
