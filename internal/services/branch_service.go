package services

import (
	"strings"

	"gorm.io/gorm"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/internal/pagination"
	"kaskecil/pkg/lifecycle"
)

// branchService handles branch (cabang) management.
type branchService struct {
	db *gorm.DB
}

// NewBranchService creates a new BranchServicer.
func NewBranchService(db *gorm.DB) BranchServicer {
	return &branchService{db: db}
}

// CreateBranch creates a branch. Only super admins manage branches.
func (s *branchService) CreateBranch(actor Actor, input BranchInput) (*models.Branch, error) {
	if actor.Role != lifecycle.RoleSuperAdmin {
		return nil, apperrors.ErrForbidden
	}
	if input.Code == nil || input.Name == nil || strings.TrimSpace(*input.Code) == "" || strings.TrimSpace(*input.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Kode dan nama cabang wajib diisi")
	}

	code := strings.TrimSpace(*input.Code)
	if err := s.ensureUniqueCode(code, ""); err != nil {
		return nil, err
	}

	branch := &models.Branch{
		Code:     code,
		Name:     strings.TrimSpace(*input.Name),
		IsActive: true,
	}
	if input.Address != nil {
		branch.Address = *input.Address
	}
	if err := s.db.Create(branch).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return branch, nil
}

// ListBranches retrieves a paginated list of the branches the actor may see.
func (s *branchService) ListBranches(actor Actor, filter MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Branch], error) {
	page.Defaults()

	base := s.db.Model(&models.Branch{}).Scopes(scopeBranches(actor), searchCodeName(filter.Query))
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var branches []models.Branch
	if err := base.Scopes(pagination.Paginate(page)).Order("code ASC").Find(&branches).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(branches, page.Page, page.PerPage, total)
	return &result, nil
}

// GetBranch retrieves a branch visible to the actor.
func (s *branchService) GetBranch(actor Actor, id string) (*models.Branch, error) {
	var branch models.Branch
	if err := s.db.Scopes(scopeBranches(actor)).Where("id = ?", id).First(&branch).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrBranchNotFound)
	}
	return &branch, nil
}

// UpdateBranch changes a branch's code, name, address or status.
func (s *branchService) UpdateBranch(actor Actor, id string, input BranchInput) (*models.Branch, error) {
	if actor.Role != lifecycle.RoleSuperAdmin {
		return nil, apperrors.ErrForbidden
	}
	branch, err := s.GetBranch(actor, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if input.Code != nil && strings.TrimSpace(*input.Code) != "" && strings.TrimSpace(*input.Code) != branch.Code {
		code := strings.TrimSpace(*input.Code)
		if err := s.ensureUniqueCode(code, branch.ID); err != nil {
			return nil, err
		}
		updates["code"] = code
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.Branch{}).Where("id = ?", branch.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetBranch(actor, id)
}

// DeleteBranch soft-deletes a branch. A branch that still owns units is
// kept and ErrBranchHasUnits is returned.
func (s *branchService) DeleteBranch(actor Actor, id string) error {
	if actor.Role != lifecycle.RoleSuperAdmin {
		return apperrors.ErrForbidden
	}
	branch, err := s.GetBranch(actor, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		units, err := countRows(tx, &models.Unit{}, "branch_id = ?", branch.ID)
		if err != nil {
			return err
		}
		if units > 0 {
			return apperrors.ErrBranchHasUnits
		}
		if err := tx.Delete(branch).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func (s *branchService) ensureUniqueCode(code, exceptID string) error {
	q := s.db.Model(&models.Branch{}).Where("code = ?", code)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if n > 0 {
		return apperrors.ErrDuplicateCode
	}
	return nil
}

// scopeBranches restricts the branches table to what the actor may see.
func scopeBranches(a Actor) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if a.Role == lifecycle.RoleSuperAdmin {
			return db
		}
		return db.Where("id = ?", a.BranchID)
	}
}
