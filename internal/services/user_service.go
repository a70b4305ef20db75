package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/internal/pagination"
	"kaskecil/pkg/lifecycle"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
	minPasswordLen  = 8
)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// AttemptLogin verifies credentials and enforces the lockout policy.
// Unknown emails and wrong passwords both return ErrInvalidCredentials.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(email)), true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := time.Now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, apperrors.ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		updates := map[string]interface{}{"failed_login_attempts": user.FailedLoginAttempts + 1}
		if user.FailedLoginAttempts+1 >= maxFailedLogins {
			updates["locked_until"] = now.Add(lockoutDuration)
			updates["failed_login_attempts"] = 0
		}
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.LastLoginAt = &now
	user.LockedUntil = nil
	user.FailedLoginAttempts = 0
	return &user, nil
}

// GetUserByID retrieves an active user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Branch").Preload("Unit").Where("id = ? AND is_active = ?", id, true).First(&user).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

// StoreRefreshTokenHash saves the hash of the user's current refresh token.
func (s *userService) StoreRefreshTokenHash(userID, tokenHash string) error {
	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token_hash", tokenHash)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token hash of an active user.
func (s *userService) GetRefreshTokenHash(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	return user.RefreshTokenHash, nil
}

// ClearRefreshTokenHash revokes the user's refresh token.
func (s *userService) ClearRefreshTokenHash(userID string) error {
	return s.StoreRefreshTokenHash(userID, "")
}

// ChangePassword replaces the password after verifying the old one. The
// refresh token is revoked so other sessions must log in again.
func (s *userService) ChangePassword(userID, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return apperrors.ErrInvalidPassword
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"password":           hash,
		"refresh_token_hash": "",
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CreateUser registers a new user within the actor's authority.
func (s *userService) CreateUser(actor Actor, input UserInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Email dan nama wajib diisi")
	}
	if !input.Role.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Peran tidak dikenal")
	}

	branchID, unitID, err := s.resolveScope(input.Role, input.BranchID, input.UnitID)
	if err != nil {
		return nil, err
	}
	if !canManageUser(actor, input.Role, branchID, unitID) {
		return nil, apperrors.ErrForbidden
	}

	n, err := countRows(s.db.Unscoped(), &models.User{}, "email = ?", email)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:    email,
		Password: hash,
		Name:     strings.TrimSpace(input.Name),
		Role:     input.Role,
		BranchID: branchID,
		UnitID:   unitID,
		IsActive: true,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// ListUsers retrieves a paginated list of the users the actor may see.
func (s *userService) ListUsers(actor Actor, filter MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	page.Defaults()

	base := s.db.Model(&models.User{}).Scopes(scopeUsers(actor))
	if q := strings.TrimSpace(filter.Query); q != "" {
		p := likePattern(q)
		base = base.Where(`(LOWER(email) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\')`, p, p)
	}
	if filter.BranchID != "" {
		base = base.Where("branch_id = ?", filter.BranchID)
	}
	if filter.UnitID != "" {
		base = base.Where("unit_id = ?", filter.UnitID)
	}
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var users []models.User
	if err := base.Scopes(pagination.Paginate(page)).Order("name ASC").Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(users, page.Page, page.PerPage, total)
	return &result, nil
}

// GetUser retrieves a user visible to the actor.
func (s *userService) GetUser(actor Actor, id string) (*models.User, error) {
	var user models.User
	if err := s.db.Scopes(scopeUsers(actor)).Preload("Branch").Preload("Unit").
		Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrUserNotFound)
	}
	return &user, nil
}

// UpdateUser changes a user's profile, role, scope or status.
func (s *userService) UpdateUser(actor Actor, id string, input UserUpdate) (*models.User, error) {
	user, err := s.GetUser(actor, id)
	if err != nil {
		return nil, err
	}
	if !canManageUser(actor, user.Role, user.BranchID, user.UnitID) {
		return nil, apperrors.ErrForbidden
	}

	updates := make(map[string]interface{})
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.IsActive != nil {
		if !*input.IsActive && user.ID == actor.UserID {
			return nil, apperrors.WithMessage(apperrors.ErrForbidden, "Tidak dapat menonaktifkan akun sendiri")
		}
		updates["is_active"] = *input.IsActive
	}
	if input.Password != nil {
		hash, err := hashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hash
		updates["refresh_token_hash"] = ""
	}

	if input.Role != nil || input.BranchID != nil || input.UnitID != nil {
		role := user.Role
		if input.Role != nil {
			if !input.Role.Valid() {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Peran tidak dikenal")
			}
			role = *input.Role
		}
		branchID, unitID := user.BranchID, user.UnitID
		if input.BranchID != nil {
			branchID = input.BranchID
		}
		if input.UnitID != nil {
			unitID = input.UnitID
			if input.BranchID == nil {
				branchID = nil
			}
		}
		branchID, unitID, err = s.resolveScope(role, branchID, unitID)
		if err != nil {
			return nil, err
		}
		if !canManageUser(actor, role, branchID, unitID) {
			return nil, apperrors.ErrForbidden
		}
		updates["role"] = role
		updates["branch_id"] = branchID
		updates["unit_id"] = unitID
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetUser(Actor{Role: lifecycle.RoleSuperAdmin}, user.ID)
}

// DeleteUser soft-deletes a user. Users cannot delete themselves.
func (s *userService) DeleteUser(actor Actor, id string) error {
	user, err := s.GetUser(actor, id)
	if err != nil {
		return err
	}
	if user.ID == actor.UserID {
		return apperrors.WithMessage(apperrors.ErrForbidden, "Tidak dapat menghapus akun sendiri")
	}
	if !canManageUser(actor, user.Role, user.BranchID, user.UnitID) {
		return apperrors.ErrForbidden
	}
	if err := s.db.Delete(user).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// resolveScope validates the branch/unit a role needs. A unit implies its
// branch; super admins carry neither.
func (s *userService) resolveScope(role lifecycle.Role, branchID, unitID *string) (*string, *string, error) {
	switch role {
	case lifecycle.RoleSuperAdmin:
		return nil, nil, nil

	case lifecycle.RoleBranchAdmin:
		if branchID == nil || *branchID == "" {
			return nil, nil, apperrors.ErrInvalidScope
		}
		n, err := countRows(s.db, &models.Branch{}, "id = ?", *branchID)
		if err != nil {
			return nil, nil, err
		}
		if n == 0 {
			return nil, nil, apperrors.ErrInvalidScope
		}
		return branchID, nil, nil

	default:
		if unitID == nil || *unitID == "" {
			return nil, nil, apperrors.ErrInvalidScope
		}
		unit, err := loadUnit(s.db, *unitID)
		if err != nil {
			return nil, nil, apperrors.Wrap(apperrors.ErrInvalidScope, err)
		}
		if branchID != nil && *branchID != "" && *branchID != unit.BranchID {
			return nil, nil, apperrors.ErrInvalidScope
		}
		return &unit.BranchID, &unit.ID, nil
	}
}

// canManageUser reports whether actor may create or change a user with the
// given role and scope.
func canManageUser(actor Actor, role lifecycle.Role, branchID, unitID *string) bool {
	switch actor.Role {
	case lifecycle.RoleSuperAdmin:
		return true
	case lifecycle.RoleBranchAdmin:
		if role == lifecycle.RoleSuperAdmin || role == lifecycle.RoleBranchAdmin {
			return false
		}
		return branchID != nil && *branchID == actor.BranchID
	case lifecycle.RoleUnitAdmin:
		return role == lifecycle.RoleOfficer && unitID != nil && *unitID == actor.UnitID
	}
	return false
}

// scopeUsers restricts the users table to what the actor may see.
func scopeUsers(a Actor) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch a.Role {
		case lifecycle.RoleSuperAdmin:
			return db
		case lifecycle.RoleBranchAdmin:
			return db.Where("(branch_id = ? OR id = ?)", a.BranchID, a.UserID)
		case lifecycle.RoleUnitAdmin, lifecycle.RoleOfficer:
			return db.Where("(unit_id = ? OR id = ?)", a.UnitID, a.UserID)
		}
		return db.Where("id = ?", a.UserID)
	}
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Kata sandi minimal 8 karakter")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return string(hash), nil
}
