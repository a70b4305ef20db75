package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"kaskecil/internal/config"
	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/logger"
	"kaskecil/internal/middleware"
	"kaskecil/internal/models"
	"kaskecil/internal/pagination"
	"kaskecil/internal/services"
	"kaskecil/internal/uuid"
	"kaskecil/internal/validator"
	"kaskecil/pkg/lifecycle"
)

// --- mock services ---

type mockUserService struct {
	attemptLoginFn          func(email, password string) (*models.User, error)
	getUserByIDFn           func(id string) (*models.User, error)
	storeRefreshTokenHashFn func(userID, tokenHash string) error
	getRefreshTokenHashFn   func(userID string) (string, error)
	clearRefreshTokenHashFn func(userID string) error
	changePasswordFn        func(userID, oldPassword, newPassword string) error
	createUserFn            func(actor services.Actor, input services.UserInput) (*models.User, error)
	listUsersFn             func(actor services.Actor, filter services.MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	getUserFn               func(actor services.Actor, id string) (*models.User, error)
	updateUserFn            func(actor services.Actor, id string, input services.UserUpdate) (*models.User, error)
	deleteUserFn            func(actor services.Actor, id string) error
}

func (m *mockUserService) AttemptLogin(email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) StoreRefreshTokenHash(userID, tokenHash string) error {
	if m.storeRefreshTokenHashFn != nil {
		return m.storeRefreshTokenHashFn(userID, tokenHash)
	}
	return nil
}

func (m *mockUserService) GetRefreshTokenHash(userID string) (string, error) {
	if m.getRefreshTokenHashFn != nil {
		return m.getRefreshTokenHashFn(userID)
	}
	return "", nil
}

func (m *mockUserService) ClearRefreshTokenHash(userID string) error {
	if m.clearRefreshTokenHashFn != nil {
		return m.clearRefreshTokenHashFn(userID)
	}
	return nil
}

func (m *mockUserService) ChangePassword(userID, oldPassword, newPassword string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(userID, oldPassword, newPassword)
	}
	return nil
}

func (m *mockUserService) CreateUser(actor services.Actor, input services.UserInput) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(actor, input)
	}
	return &models.User{Base: models.Base{ID: uuid.New()}, Email: input.Email, Role: input.Role}, nil
}

func (m *mockUserService) ListUsers(actor services.Actor, filter services.MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(actor, filter, page)
	}
	resp := pagination.NewPageResponse([]models.User{}, page.Page, page.PerPage, 0)
	return &resp, nil
}

func (m *mockUserService) GetUser(actor services.Actor, id string) (*models.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(actor, id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) UpdateUser(actor services.Actor, id string, input services.UserUpdate) (*models.User, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(actor, id, input)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) DeleteUser(actor services.Actor, id string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(actor, id)
	}
	return nil
}

var _ services.UserServicer = (*mockUserService)(nil)

type auditEntry struct {
	userID, action, resourceType, resourceID string
	changes                                  map[string]interface{}
}

type mockAuditService struct {
	entries []auditEntry
}

func (m *mockAuditService) Log(userID, action, resourceType, resourceID, _ string, changes map[string]interface{}) {
	m.entries = append(m.entries, auditEntry{userID, action, resourceType, resourceID, changes})
}

var _ services.AuditServicer = (*mockAuditService)(nil)

// --- test helpers ---

var (
	testUserID   = uuid.New()
	testUnitID   = uuid.New()
	testBranchID = uuid.New()
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test", "error")
	validator.Register()
	config.Set(&config.Config{
		JWTSecret:          "handler-test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: time.Hour,
	})
}

func testActor(role lifecycle.Role) services.Actor {
	return services.Actor{UserID: testUserID, Role: role, BranchID: testBranchID, UnitID: testUnitID}
}

func injectActor(actor services.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ActorKey, actor)
		c.Set("userID", actor.UserID)
		c.Next()
	}
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/refresh", handler.RefreshToken)
	auth := r.Group("", injectActor(testActor(lifecycle.RoleOfficer)))
	auth.POST("/auth/logout", handler.Logout)
	auth.GET("/profile", handler.GetProfile)
	auth.PUT("/profile/password", handler.ChangePassword)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func testUser(role lifecycle.Role) *models.User {
	unitID, branchID := testUnitID, testBranchID
	return &models.User{
		Base:     models.Base{ID: testUserID},
		Email:    "budi@kaskecil.test",
		Name:     "Budi",
		Role:     role,
		BranchID: &branchID,
		UnitID:   &unitID,
		IsActive: true,
	}
}

// --- tests ---

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns 200 with tokens and stores refresh hash", func(t *testing.T) {
		var storedHash string
		userSvc := &mockUserService{
			attemptLoginFn: func(email, _ string) (*models.User, error) {
				u := testUser(lifecycle.RoleOfficer)
				u.Email = email
				return u, nil
			},
			storeRefreshTokenHashFn: func(_, hash string) error {
				storedHash = hash
				return nil
			},
		}
		audit := &mockAuditService{}
		r := setupAuthRouter(NewAuthHandler(userSvc, audit))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"budi@kaskecil.test","password":"password123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		refresh, _ := result["refresh_token"].(string)
		if result["access_token"] == "" || refresh == "" {
			t.Fatal("expected non-empty tokens")
		}
		if storedHash != middleware.HashToken(refresh) {
			t.Error("stored hash does not match the issued refresh token")
		}
		user := result["user"].(map[string]interface{})
		if user["role"] != string(lifecycle.RoleOfficer) {
			t.Errorf("expected role petugas, got %v", user["role"])
		}
		if _, leaked := user["password"]; leaked {
			t.Error("password hash must not be serialized")
		}
		if len(audit.entries) != 1 || audit.entries[0].action != "LOGIN" {
			t.Errorf("expected LOGIN audit entry, got %+v", audit.entries)
		}
	})

	t.Run("returns 401 on invalid credentials", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"budi@kaskecil.test","password":"wrong"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CREDENTIALS")
	})

	t.Run("returns 423 on locked account", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrAccountLocked
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"budi@kaskecil.test","password":"password123"}`)

		if rec.Code != http.StatusLocked {
			t.Fatalf("expected 423, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_LOCKED")
	})

	t.Run("returns 400 on missing fields", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/login", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 500 when token storage fails", func(t *testing.T) {
		userSvc := &mockUserService{
			attemptLoginFn: func(_, _ string) (*models.User, error) {
				return testUser(lifecycle.RoleOfficer), nil
			},
			storeRefreshTokenHashFn: func(_, _ string) error {
				return fmt.Errorf("db connection lost")
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/login", `{"email":"budi@kaskecil.test","password":"password123"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	user := testUser(lifecycle.RoleUnitAdmin)
	refresh, err := middleware.GenerateRefreshToken(user)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	t.Run("rotates tokens when the hash matches", func(t *testing.T) {
		var rotated string
		userSvc := &mockUserService{
			getRefreshTokenHashFn: func(_ string) (string, error) { return middleware.HashToken(refresh), nil },
			getUserByIDFn:         func(_ string) (*models.User, error) { return user, nil },
			storeRefreshTokenHashFn: func(_, hash string) error {
				rotated = hash
				return nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, refresh))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		newRefresh := parseJSON(t, rec)["refresh_token"].(string)
		if newRefresh == refresh {
			t.Error("expected a new refresh token")
		}
		if rotated != middleware.HashToken(newRefresh) {
			t.Error("expected the new refresh token hash to be stored")
		}
	})

	t.Run("returns 401 when the token was revoked", func(t *testing.T) {
		userSvc := &mockUserService{
			getRefreshTokenHashFn: func(_ string) (string, error) { return "", nil },
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, refresh))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "UNAUTHORIZED")
	})

	t.Run("returns 401 for an access token", func(t *testing.T) {
		access, _ := middleware.GenerateAccessToken(user)
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, access))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	var cleared string
	userSvc := &mockUserService{
		clearRefreshTokenHashFn: func(userID string) error {
			cleared = userID
			return nil
		},
	}
	r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

	rec := doRequest(r, "POST", "/auth/logout", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cleared != testUserID {
		t.Errorf("expected refresh token of %s cleared, got %q", testUserID, cleared)
	}
}

func TestAuthHandler_GetProfile(t *testing.T) {
	t.Run("returns the authenticated user", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByIDFn: func(id string) (*models.User, error) {
				if id != testUserID {
					t.Errorf("expected lookup of %s, got %s", testUserID, id)
				}
				return testUser(lifecycle.RoleOfficer), nil
			},
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["email"] != "budi@kaskecil.test" {
			t.Errorf("unexpected email %v", user["email"])
		}
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewAuthHandler(&mockUserService{}, &mockAuditService{})
		r := gin.New()
		r.GET("/profile", handler.GetProfile)

		rec := doRequest(r, "GET", "/profile", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	t.Run("returns 400 on wrong old password", func(t *testing.T) {
		userSvc := &mockUserService{
			changePasswordFn: func(_, _, _ string) error { return apperrors.ErrInvalidPassword },
		}
		r := setupAuthRouter(NewAuthHandler(userSvc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/profile/password", `{"old_password":"salah","new_password":"rahasia123"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_PASSWORD")
	})

	t.Run("returns 400 on short new password", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/profile/password", `{"old_password":"password123","new_password":"short"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 200 on success", func(t *testing.T) {
		r := setupAuthRouter(NewAuthHandler(&mockUserService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/profile/password", `{"old_password":"password123","new_password":"rahasia123"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
