package services

import (
	"strings"

	"gorm.io/gorm"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/internal/pagination"
)

// accountService handles Akun AAS management.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates an Akun AAS in a unit. Unit-scoped admins create in
// their own unit when none is given.
func (s *accountService) CreateAccount(actor Actor, input AccountInput) (*models.Account, error) {
	if input.Code == nil || input.Name == nil || strings.TrimSpace(*input.Code) == "" || strings.TrimSpace(*input.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Kode dan nama akun wajib diisi")
	}
	if input.Type == nil || (*input.Type != models.AccountTypeDebit && *input.Type != models.AccountTypeCredit) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Jenis akun harus debit atau kredit")
	}

	unit, err := resolveManagedUnit(s.db, actor, input.UnitID)
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(*input.Code)
	if err := ensureUniqueInUnit(s.db, &models.Account{}, unit.ID, code, ""); err != nil {
		return nil, err
	}

	account := &models.Account{
		UnitID:   unit.ID,
		Code:     code,
		Name:     strings.TrimSpace(*input.Name),
		Type:     *input.Type,
		IsActive: true,
	}
	if input.Description != nil {
		account.Description = *input.Description
	}
	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// ListAccounts retrieves a paginated list of accounts visible to the actor.
func (s *accountService) ListAccounts(actor Actor, filter MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	base := s.db.Model(&models.Account{}).Scopes(scopeUnitOwned(actor), searchCodeName(filter.Query))
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

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page)).Order("code ASC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PerPage, total)
	return &result, nil
}

// GetAccount retrieves an account visible to the actor.
func (s *accountService) GetAccount(actor Actor, id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Scopes(scopeUnitOwned(actor)).Preload("Unit").Where("id = ?", id).First(&account).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrAccountNotFound)
	}
	return &account, nil
}

// UpdateAccount changes an account's code, name, type, description or status.
func (s *accountService) UpdateAccount(actor Actor, id string, input AccountInput) (*models.Account, error) {
	account, err := s.GetAccount(actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageUnit(branchOf(account.Unit), account.UnitID) {
		return nil, apperrors.ErrForbidden
	}

	updates := make(map[string]interface{})
	if input.Code != nil && strings.TrimSpace(*input.Code) != "" && strings.TrimSpace(*input.Code) != account.Code {
		code := strings.TrimSpace(*input.Code)
		if err := ensureUniqueInUnit(s.db, &models.Account{}, account.UnitID, code, account.ID); err != nil {
			return nil, err
		}
		updates["code"] = code
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Type != nil {
		if *input.Type != models.AccountTypeDebit && *input.Type != models.AccountTypeCredit {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Jenis akun harus debit atau kredit")
		}
		updates["type"] = *input.Type
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.Account{}).Where("id = ?", account.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetAccount(actor, id)
}

// DeleteAccount soft-deletes an account no budget item references.
func (s *accountService) DeleteAccount(actor Actor, id string) error {
	account, err := s.GetAccount(actor, id)
	if err != nil {
		return err
	}
	if !actor.CanManageUnit(branchOf(account.Unit), account.UnitID) {
		return apperrors.ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		n, err := countRows(tx, &models.BudgetItem{}, "account_id = ?", account.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperrors.ErrAccountInUse
		}
		if err := tx.Delete(&models.Account{}, "id = ?", account.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// resolveManagedUnit picks the unit a new master-data row belongs to and
// checks the actor may manage it. unitID defaults to the actor's own unit.
func resolveManagedUnit(db *gorm.DB, actor Actor, unitID *string) (*models.Unit, error) {
	id := actor.UnitID
	if unitID != nil && *unitID != "" {
		id = *unitID
	}
	if id == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unit wajib dipilih")
	}
	unit, err := loadUnit(db, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanSeeUnit(unit.BranchID, unit.ID) {
		return nil, apperrors.ErrUnitNotFound
	}
	if !actor.CanManageUnit(unit.BranchID, unit.ID) {
		return nil, apperrors.ErrForbidden
	}
	return unit, nil
}

// ensureUniqueInUnit fails with ErrDuplicateCode when another live row of
// model in the unit already uses code.
func ensureUniqueInUnit(db *gorm.DB, model interface{}, unitID, code, exceptID string) error {
	q := db.Model(model).Where("unit_id = ? AND code = ?", unitID, code)
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
