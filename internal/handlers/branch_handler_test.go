package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/internal/pagination"
	"kaskecil/internal/services"
	"kaskecil/internal/uuid"
	"kaskecil/pkg/lifecycle"
)

// --- mock branch service ---

type mockBranchService struct {
	createBranchFn func(actor services.Actor, input services.BranchInput) (*models.Branch, error)
	listBranchesFn func(actor services.Actor, filter services.MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Branch], error)
	getBranchFn    func(actor services.Actor, id string) (*models.Branch, error)
	updateBranchFn func(actor services.Actor, id string, input services.BranchInput) (*models.Branch, error)
	deleteBranchFn func(actor services.Actor, id string) error
}

func (m *mockBranchService) CreateBranch(actor services.Actor, input services.BranchInput) (*models.Branch, error) {
	if m.createBranchFn != nil {
		return m.createBranchFn(actor, input)
	}
	return &models.Branch{Base: models.Base{ID: uuid.New()}, Code: *input.Code, Name: *input.Name}, nil
}

func (m *mockBranchService) ListBranches(actor services.Actor, filter services.MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Branch], error) {
	if m.listBranchesFn != nil {
		return m.listBranchesFn(actor, filter, page)
	}
	resp := pagination.NewPageResponse([]models.Branch{}, page.Page, page.PerPage, 0)
	return &resp, nil
}

func (m *mockBranchService) GetBranch(actor services.Actor, id string) (*models.Branch, error) {
	if m.getBranchFn != nil {
		return m.getBranchFn(actor, id)
	}
	return &models.Branch{Base: models.Base{ID: id}}, nil
}

func (m *mockBranchService) UpdateBranch(actor services.Actor, id string, input services.BranchInput) (*models.Branch, error) {
	if m.updateBranchFn != nil {
		return m.updateBranchFn(actor, id, input)
	}
	return &models.Branch{Base: models.Base{ID: id}}, nil
}

func (m *mockBranchService) DeleteBranch(actor services.Actor, id string) error {
	if m.deleteBranchFn != nil {
		return m.deleteBranchFn(actor, id)
	}
	return nil
}

var _ services.BranchServicer = (*mockBranchService)(nil)

func setupBranchRouter(handler *BranchHandler, role lifecycle.Role) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectActor(testActor(role)))
	auth.POST("/branches", handler.CreateBranch)
	auth.GET("/branches", handler.ListBranches)
	auth.GET("/branches/:id", handler.GetBranch)
	auth.PUT("/branches/:id", handler.UpdateBranch)
	auth.DELETE("/branches/:id", handler.DeleteBranch)
	return r
}

func TestBranchHandler_CreateBranch(t *testing.T) {
	t.Run("returns 201 and audits", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupBranchRouter(NewBranchHandler(&mockBranchService{}, audit), lifecycle.RoleSuperAdmin)

		rec := doRequest(r, "POST", "/branches", `{"code":"CBG-01","name":"Cabang Bandung","address":"Jl. Asia Afrika"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		branch := parseJSON(t, rec)["branch"].(map[string]interface{})
		if branch["code"] != "CBG-01" {
			t.Errorf("expected code CBG-01, got %v", branch["code"])
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "CREATE_BRANCH" {
			t.Errorf("unexpected audit entries %+v", audit.entries)
		}
	})

	t.Run("returns 400 on malformed code", func(t *testing.T) {
		r := setupBranchRouter(NewBranchHandler(&mockBranchService{}, &mockAuditService{}), lifecycle.RoleSuperAdmin)

		rec := doRequest(r, "POST", "/branches", `{"code":"kode cabang","name":"Cabang"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 403 for non super admin", func(t *testing.T) {
		svc := &mockBranchService{
			createBranchFn: func(_ services.Actor, _ services.BranchInput) (*models.Branch, error) {
				return nil, apperrors.ErrForbidden
			},
		}
		r := setupBranchRouter(NewBranchHandler(svc, &mockAuditService{}), lifecycle.RoleBranchAdmin)

		rec := doRequest(r, "POST", "/branches", `{"code":"CBG-02","name":"Cabang Garut"}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestBranchHandler_ListBranches(t *testing.T) {
	var got services.MasterFilter
	svc := &mockBranchService{
		listBranchesFn: func(_ services.Actor, filter services.MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Branch], error) {
			got = filter
			resp := pagination.NewPageResponse([]models.Branch{{Code: "CBG-01"}}, page.Page, page.PerPage, 1)
			return &resp, nil
		},
	}
	r := setupBranchRouter(NewBranchHandler(svc, &mockAuditService{}), lifecycle.RoleSuperAdmin)

	rec := doRequest(r, "GET", "/branches?q=bandung&is_active=true", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.Query != "bandung" || got.IsActive == nil || !*got.IsActive {
		t.Errorf("unexpected filter %+v", got)
	}

	rec = doRequest(r, "GET", "/branches?is_active=kadang", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on bad bool, got %d", rec.Code)
	}
}

func TestBranchHandler_UpdateBranch(t *testing.T) {
	var got services.BranchInput
	svc := &mockBranchService{
		updateBranchFn: func(_ services.Actor, id string, input services.BranchInput) (*models.Branch, error) {
			got = input
			return &models.Branch{Base: models.Base{ID: id}, Name: *input.Name}, nil
		},
	}
	r := setupBranchRouter(NewBranchHandler(svc, &mockAuditService{}), lifecycle.RoleSuperAdmin)

	rec := doRequest(r, "PUT", "/branches/"+uuid.New(), `{"name":"Cabang Utama","is_active":false}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.Code != nil || got.IsActive == nil || *got.IsActive {
		t.Errorf("unexpected input %+v", got)
	}
}

func TestBranchHandler_DeleteBranch(t *testing.T) {
	t.Run("returns 409 while units remain", func(t *testing.T) {
		svc := &mockBranchService{
			deleteBranchFn: func(_ services.Actor, _ string) error {
				return apperrors.ErrBranchHasUnits
			},
		}
		audit := &mockAuditService{}
		r := setupBranchRouter(NewBranchHandler(svc, audit), lifecycle.RoleSuperAdmin)

		rec := doRequest(r, "DELETE", "/branches/"+uuid.New(), "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BRANCH_HAS_UNITS")
		if len(audit.entries) != 0 {
			t.Errorf("expected no audit entry, got %d", len(audit.entries))
		}
	})

	t.Run("returns 200 when empty", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupBranchRouter(NewBranchHandler(&mockBranchService{}, audit), lifecycle.RoleSuperAdmin)

		rec := doRequest(r, "DELETE", "/branches/"+uuid.New(), "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "DELETE_BRANCH" {
			t.Errorf("unexpected audit entries %+v", audit.entries)
		}
	})

	t.Run("returns 400 on malformed id", func(t *testing.T) {
		r := setupBranchRouter(NewBranchHandler(&mockBranchService{}, &mockAuditService{}), lifecycle.RoleSuperAdmin)

		rec := doRequest(r, "DELETE", "/branches/42", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
