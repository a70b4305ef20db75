package services

import (
	"strings"

	"gorm.io/gorm"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/internal/pagination"
	"kaskecil/pkg/lifecycle"
)

// unitService handles unit management.
type unitService struct {
	db *gorm.DB
}

// NewUnitService creates a new UnitServicer.
func NewUnitService(db *gorm.DB) UnitServicer {
	return &unitService{db: db}
}

// CreateUnit creates a unit in a branch. Branch admins may only create
// units in their own branch, which is also the default.
func (s *unitService) CreateUnit(actor Actor, input UnitInput) (*models.Unit, error) {
	if !canManageUnits(actor) {
		return nil, apperrors.ErrForbidden
	}
	if input.Code == nil || input.Name == nil || strings.TrimSpace(*input.Code) == "" || strings.TrimSpace(*input.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Kode dan nama unit wajib diisi")
	}

	branchID := actor.BranchID
	if input.BranchID != nil && *input.BranchID != "" {
		branchID = *input.BranchID
	}
	if branchID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Cabang wajib dipilih")
	}
	if actor.Role == lifecycle.RoleBranchAdmin && branchID != actor.BranchID {
		return nil, apperrors.ErrForbidden
	}
	n, err := countRows(s.db, &models.Branch{}, "id = ?", branchID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperrors.ErrBranchNotFound
	}

	code := strings.TrimSpace(*input.Code)
	if err := s.ensureUniqueCode(branchID, code, ""); err != nil {
		return nil, err
	}

	unit := &models.Unit{
		BranchID: branchID,
		Code:     code,
		Name:     strings.TrimSpace(*input.Name),
		IsActive: true,
	}
	if err := s.db.Create(unit).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return unit, nil
}

// ListUnits retrieves a paginated list of the units the actor may see.
func (s *unitService) ListUnits(actor Actor, filter MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Unit], error) {
	page.Defaults()

	base := s.db.Model(&models.Unit{}).Scopes(scopeUnits(actor), searchCodeName(filter.Query))
	if filter.BranchID != "" {
		base = base.Where("branch_id = ?", filter.BranchID)
	}
	if filter.IsActive != nil {
		base = base.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var units []models.Unit
	if err := base.Scopes(pagination.Paginate(page)).Preload("Branch").Order("code ASC").Find(&units).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(units, page.Page, page.PerPage, total)
	return &result, nil
}

// GetUnit retrieves a unit visible to the actor.
func (s *unitService) GetUnit(actor Actor, id string) (*models.Unit, error) {
	var unit models.Unit
	if err := s.db.Scopes(scopeUnits(actor)).Preload("Branch").Where("id = ?", id).First(&unit).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrUnitNotFound)
	}
	return &unit, nil
}

// UpdateUnit changes a unit's code, name or status. Units never move
// between branches because their history is attributed to the branch.
func (s *unitService) UpdateUnit(actor Actor, id string, input UnitInput) (*models.Unit, error) {
	if !canManageUnits(actor) {
		return nil, apperrors.ErrForbidden
	}
	unit, err := s.GetUnit(actor, id)
	if err != nil {
		return nil, err
	}
	if input.BranchID != nil && *input.BranchID != "" && *input.BranchID != unit.BranchID {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unit tidak dapat dipindah ke cabang lain")
	}

	updates := make(map[string]interface{})
	if input.Code != nil && strings.TrimSpace(*input.Code) != "" && strings.TrimSpace(*input.Code) != unit.Code {
		code := strings.TrimSpace(*input.Code)
		if err := s.ensureUniqueCode(unit.BranchID, code, unit.ID); err != nil {
			return nil, err
		}
		updates["code"] = code
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.Unit{}).Where("id = ?", unit.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetUnit(actor, id)
}

// DeleteUnit soft-deletes a unit that owns no accounts, budget items,
// transactions, drafts or users.
func (s *unitService) DeleteUnit(actor Actor, id string) error {
	if !canManageUnits(actor) {
		return apperrors.ErrForbidden
	}
	unit, err := s.GetUnit(actor, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.Account{}, &models.BudgetItem{}, &models.Transaction{}, &models.Draft{}, &models.User{}} {
			n, err := countRows(tx, model, "unit_id = ?", unit.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return apperrors.ErrUnitInUse
			}
		}
		if err := tx.Delete(&models.Unit{}, "id = ?", unit.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func (s *unitService) ensureUniqueCode(branchID, code, exceptID string) error {
	q := s.db.Model(&models.Unit{}).Where("branch_id = ? AND code = ?", branchID, code)
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

func canManageUnits(a Actor) bool {
	return a.Role == lifecycle.RoleSuperAdmin || a.Role == lifecycle.RoleBranchAdmin
}

// scopeUnits restricts the units table to what the actor may see.
func scopeUnits(a Actor) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch a.Role {
		case lifecycle.RoleSuperAdmin:
			return db
		case lifecycle.RoleBranchAdmin:
			return db.Where("branch_id = ?", a.BranchID)
		case lifecycle.RoleUnitAdmin, lifecycle.RoleOfficer:
			return db.Where("id = ?", a.UnitID)
		}
		return db.Where("1 = 0")
	}
}
