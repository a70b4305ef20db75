package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/internal/pagination"
	"kaskecil/internal/services"
	"kaskecil/internal/uuid"
	"kaskecil/pkg/lifecycle"
)

// --- mock account service ---

type mockAccountService struct {
	createAccountFn func(actor services.Actor, input services.AccountInput) (*models.Account, error)
	listAccountsFn  func(actor services.Actor, filter services.MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	getAccountFn    func(actor services.Actor, id string) (*models.Account, error)
	updateAccountFn func(actor services.Actor, id string, input services.AccountInput) (*models.Account, error)
	deleteAccountFn func(actor services.Actor, id string) error
}

func (m *mockAccountService) CreateAccount(actor services.Actor, input services.AccountInput) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(actor, input)
	}
	return &models.Account{Base: models.Base{ID: uuid.New()}, Code: *input.Code, Type: *input.Type}, nil
}

func (m *mockAccountService) ListAccounts(actor services.Actor, filter services.MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	if m.listAccountsFn != nil {
		return m.listAccountsFn(actor, filter, page)
	}
	resp := pagination.NewPageResponse([]models.Account{}, page.Page, page.PerPage, 0)
	return &resp, nil
}

func (m *mockAccountService) GetAccount(actor services.Actor, id string) (*models.Account, error) {
	if m.getAccountFn != nil {
		return m.getAccountFn(actor, id)
	}
	return &models.Account{Base: models.Base{ID: id}}, nil
}

func (m *mockAccountService) UpdateAccount(actor services.Actor, id string, input services.AccountInput) (*models.Account, error) {
	if m.updateAccountFn != nil {
		return m.updateAccountFn(actor, id, input)
	}
	return &models.Account{Base: models.Base{ID: id}}, nil
}

func (m *mockAccountService) DeleteAccount(actor services.Actor, id string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(actor, id)
	}
	return nil
}

var _ services.AccountServicer = (*mockAccountService)(nil)

// --- mock budget item service ---

type mockBudgetItemService struct {
	createBudgetItemFn func(actor services.Actor, input services.BudgetItemInput) (*models.BudgetItem, error)
	listBudgetItemsFn  func(actor services.Actor, filter services.MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetItem], error)
	deleteBudgetItemFn func(actor services.Actor, id string) error
}

func (m *mockBudgetItemService) CreateBudgetItem(actor services.Actor, input services.BudgetItemInput) (*models.BudgetItem, error) {
	if m.createBudgetItemFn != nil {
		return m.createBudgetItemFn(actor, input)
	}
	return &models.BudgetItem{Base: models.Base{ID: uuid.New()}, Code: *input.Code}, nil
}

func (m *mockBudgetItemService) ListBudgetItems(actor services.Actor, filter services.MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetItem], error) {
	if m.listBudgetItemsFn != nil {
		return m.listBudgetItemsFn(actor, filter, page)
	}
	resp := pagination.NewPageResponse([]models.BudgetItem{}, page.Page, page.PerPage, 0)
	return &resp, nil
}

func (m *mockBudgetItemService) GetBudgetItem(_ services.Actor, id string) (*models.BudgetItem, error) {
	return &models.BudgetItem{Base: models.Base{ID: id}}, nil
}

func (m *mockBudgetItemService) UpdateBudgetItem(_ services.Actor, id string, _ services.BudgetItemInput) (*models.BudgetItem, error) {
	return &models.BudgetItem{Base: models.Base{ID: id}}, nil
}

func (m *mockBudgetItemService) DeleteBudgetItem(actor services.Actor, id string) error {
	if m.deleteBudgetItemFn != nil {
		return m.deleteBudgetItemFn(actor, id)
	}
	return nil
}

func (m *mockBudgetItemService) ApplyBalance(_ *gorm.DB, _ string, _ lifecycle.Category, _ int64) error {
	return nil
}

func (m *mockBudgetItemService) RevertBalance(_ *gorm.DB, _ string, _ lifecycle.Category, _ int64) error {
	return nil
}

var _ services.BudgetItemServicer = (*mockBudgetItemService)(nil)

func setupAccountRouter(handler *AccountHandler, role lifecycle.Role) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectActor(testActor(role)))
	auth.POST("/accounts", handler.CreateAccount)
	auth.GET("/accounts", handler.ListAccounts)
	auth.GET("/accounts/:id", handler.GetAccount)
	auth.PUT("/accounts/:id", handler.UpdateAccount)
	auth.DELETE("/accounts/:id", handler.DeleteAccount)
	return r
}

func setupBudgetItemRouter(handler *BudgetItemHandler, role lifecycle.Role) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectActor(testActor(role)))
	auth.POST("/budget-items", handler.CreateBudgetItem)
	auth.GET("/budget-items", handler.ListBudgetItems)
	auth.DELETE("/budget-items/:id", handler.DeleteBudgetItem)
	return r
}

func TestAccountHandler_CreateAccount(t *testing.T) {
	t.Run("unit admin may omit unit_id", func(t *testing.T) {
		var got services.AccountInput
		svc := &mockAccountService{
			createAccountFn: func(_ services.Actor, input services.AccountInput) (*models.Account, error) {
				got = input
				return &models.Account{Base: models.Base{ID: uuid.New()}, UnitID: testUnitID, Code: *input.Code, Type: *input.Type}, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(svc, &mockAuditService{}), lifecycle.RoleUnitAdmin)

		rec := doRequest(r, "POST", "/accounts", `{"code":"5.1.02","name":"Beban ATK","type":"debit"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.UnitID != nil {
			t.Errorf("expected nil unit id, got %v", *got.UnitID)
		}
		account := parseJSON(t, rec)["account"].(map[string]interface{})
		if account["type"] != "debit" {
			t.Errorf("expected type debit, got %v", account["type"])
		}
	})

	t.Run("returns 400 on unknown type", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockAuditService{}), lifecycle.RoleUnitAdmin)

		rec := doRequest(r, "POST", "/accounts", `{"code":"5.1.02","name":"Beban ATK","type":"aset"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate code", func(t *testing.T) {
		svc := &mockAccountService{
			createAccountFn: func(_ services.Actor, _ services.AccountInput) (*models.Account, error) {
				return nil, apperrors.ErrDuplicateCode
			},
		}
		r := setupAccountRouter(NewAccountHandler(svc, &mockAuditService{}), lifecycle.RoleUnitAdmin)

		rec := doRequest(r, "POST", "/accounts", `{"code":"5.1.02","name":"Beban ATK","type":"kredit"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_CODE")
	})
}

func TestAccountHandler_ListAccounts(t *testing.T) {
	var got services.MasterFilter
	svc := &mockAccountService{
		listAccountsFn: func(_ services.Actor, filter services.MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
			got = filter
			resp := pagination.NewPageResponse([]models.Account{}, page.Page, page.PerPage, 0)
			return &resp, nil
		},
	}
	r := setupAccountRouter(NewAccountHandler(svc, &mockAuditService{}), lifecycle.RoleBranchAdmin)

	rec := doRequest(r, "GET", "/accounts?q=atk&unit_id="+testUnitID, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.Query != "atk" || got.UnitID != testUnitID {
		t.Errorf("unexpected filter %+v", got)
	}
}

func TestAccountHandler_DeleteAccount(t *testing.T) {
	svc := &mockAccountService{
		deleteAccountFn: func(_ services.Actor, _ string) error {
			return apperrors.ErrAccountInUse
		},
	}
	r := setupAccountRouter(NewAccountHandler(svc, &mockAuditService{}), lifecycle.RoleUnitAdmin)

	rec := doRequest(r, "DELETE", "/accounts/"+uuid.New(), "")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_IN_USE")
}

func TestBudgetItemHandler_CreateBudgetItem(t *testing.T) {
	t.Run("returns 201", func(t *testing.T) {
		accountID := uuid.New()
		var got services.BudgetItemInput
		svc := &mockBudgetItemService{
			createBudgetItemFn: func(_ services.Actor, input services.BudgetItemInput) (*models.BudgetItem, error) {
				got = input
				return &models.BudgetItem{Base: models.Base{ID: uuid.New()}, Code: *input.Code, AccountID: *input.AccountID}, nil
			},
		}
		r := setupBudgetItemRouter(NewBudgetItemHandler(svc, &mockAuditService{}), lifecycle.RoleUnitAdmin)

		rec := doRequest(r, "POST", "/budget-items", `{"account_id":"`+accountID+`","code":"MA-01","name":"Konsumsi rapat"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.AccountID == nil || *got.AccountID != accountID {
			t.Errorf("unexpected input %+v", got)
		}
		item := parseJSON(t, rec)["budget_item"].(map[string]interface{})
		if item["balance"] != float64(0) {
			t.Errorf("expected zero balance, got %v", item["balance"])
		}
	})

	t.Run("returns 400 on inactive account", func(t *testing.T) {
		svc := &mockBudgetItemService{
			createBudgetItemFn: func(_ services.Actor, _ services.BudgetItemInput) (*models.BudgetItem, error) {
				return nil, apperrors.ErrAccountInactive
			},
		}
		r := setupBudgetItemRouter(NewBudgetItemHandler(svc, &mockAuditService{}), lifecycle.RoleUnitAdmin)

		rec := doRequest(r, "POST", "/budget-items", `{"account_id":"`+uuid.New()+`","code":"MA-01","name":"Konsumsi"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_INACTIVE")
	})

	t.Run("returns 400 without account", func(t *testing.T) {
		r := setupBudgetItemRouter(NewBudgetItemHandler(&mockBudgetItemService{}, &mockAuditService{}), lifecycle.RoleUnitAdmin)

		rec := doRequest(r, "POST", "/budget-items", `{"code":"MA-01","name":"Konsumsi"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetItemHandler_ListBudgetItems(t *testing.T) {
	accountID := uuid.New()
	var got services.MasterFilter
	svc := &mockBudgetItemService{
		listBudgetItemsFn: func(_ services.Actor, filter services.MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetItem], error) {
			got = filter
			resp := pagination.NewPageResponse([]models.BudgetItem{}, page.Page, page.PerPage, 0)
			return &resp, nil
		},
	}
	r := setupBudgetItemRouter(NewBudgetItemHandler(svc, &mockAuditService{}), lifecycle.RoleOfficer)

	rec := doRequest(r, "GET", "/budget-items?account_id="+accountID, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.AccountID != accountID {
		t.Errorf("expected account filter %s, got %+v", accountID, got)
	}
}

func TestBudgetItemHandler_DeleteBudgetItem(t *testing.T) {
	svc := &mockBudgetItemService{
		deleteBudgetItemFn: func(_ services.Actor, _ string) error {
			return apperrors.ErrBudgetItemInUse
		},
	}
	r := setupBudgetItemRouter(NewBudgetItemHandler(svc, &mockAuditService{}), lifecycle.RoleUnitAdmin)

	rec := doRequest(r, "DELETE", "/budget-items/"+uuid.New(), "")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "BUDGET_ITEM_IN_USE")
}
