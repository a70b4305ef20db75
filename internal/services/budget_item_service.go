package services

import (
	"strings"

	"gorm.io/gorm"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/internal/pagination"
	"kaskecil/pkg/lifecycle"
)

// budgetItemService handles budget item (mata anggaran) management and
// balance bookkeeping.
type budgetItemService struct {
	db *gorm.DB
}

// NewBudgetItemService creates a new BudgetItemServicer.
func NewBudgetItemService(db *gorm.DB) BudgetItemServicer {
	return &budgetItemService{db: db}
}

// CreateBudgetItem creates a budget item with a zero balance. The initial
// float is booked as a pembentukan transaction.
func (s *budgetItemService) CreateBudgetItem(actor Actor, input BudgetItemInput) (*models.BudgetItem, error) {
	if input.Code == nil || input.Name == nil || strings.TrimSpace(*input.Code) == "" || strings.TrimSpace(*input.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Kode dan nama mata anggaran wajib diisi")
	}
	if input.AccountID == nil || *input.AccountID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Akun AAS wajib dipilih")
	}

	unit, err := resolveManagedUnit(s.db, actor, input.UnitID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccount(unit.ID, *input.AccountID); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(*input.Code)
	if err := ensureUniqueInUnit(s.db, &models.BudgetItem{}, unit.ID, code, ""); err != nil {
		return nil, err
	}

	item := &models.BudgetItem{
		UnitID:    unit.ID,
		AccountID: *input.AccountID,
		Code:      code,
		Name:      strings.TrimSpace(*input.Name),
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if err := s.db.Create(item).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return item, nil
}

// ListBudgetItems retrieves a paginated list of budget items visible to the actor.
func (s *budgetItemService) ListBudgetItems(actor Actor, filter MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetItem], error) {
	page.Defaults()

	base := s.db.Model(&models.BudgetItem{}).Scopes(scopeUnitOwned(actor), searchCodeName(filter.Query))
	if filter.UnitID != "" {
		base = base.Where("unit_id = ?", filter.UnitID)
	}
	if filter.AccountID != "" {
		base = base.Where("account_id = ?", filter.AccountID)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var items []models.BudgetItem
	if err := base.Scopes(pagination.Paginate(page)).Preload("Account").Order("code ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(items, page.Page, page.PerPage, total)
	return &result, nil
}

// GetBudgetItem retrieves a budget item visible to the actor.
func (s *budgetItemService) GetBudgetItem(actor Actor, id string) (*models.BudgetItem, error) {
	var item models.BudgetItem
	if err := s.db.Scopes(scopeUnitOwned(actor)).Preload("Unit").Preload("Account").
		Where("id = ?", id).First(&item).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrBudgetItemNotFound)
	}
	return &item, nil
}

// UpdateBudgetItem changes a budget item's code, name, description or
// account. The balance is only moved by transactions.
func (s *budgetItemService) UpdateBudgetItem(actor Actor, id string, input BudgetItemInput) (*models.BudgetItem, error) {
	item, err := s.GetBudgetItem(actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageUnit(branchOf(item.Unit), item.UnitID) {
		return nil, apperrors.ErrForbidden
	}
	if input.UnitID != nil && *input.UnitID != "" && *input.UnitID != item.UnitID {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Mata anggaran tidak dapat dipindah ke unit lain")
	}

	updates := make(map[string]interface{})
	if input.Code != nil && strings.TrimSpace(*input.Code) != "" && strings.TrimSpace(*input.Code) != item.Code {
		code := strings.TrimSpace(*input.Code)
		if err := ensureUniqueInUnit(s.db, &models.BudgetItem{}, item.UnitID, code, item.ID); err != nil {
			return nil, err
		}
		updates["code"] = code
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.AccountID != nil && *input.AccountID != "" && *input.AccountID != item.AccountID {
		if err := s.checkAccount(item.UnitID, *input.AccountID); err != nil {
			return nil, err
		}
		updates["account_id"] = *input.AccountID
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.BudgetItem{}).Where("id = ?", item.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetBudgetItem(actor, id)
}

// DeleteBudgetItem soft-deletes a budget item without transactions or drafts.
func (s *budgetItemService) DeleteBudgetItem(actor Actor, id string) error {
	item, err := s.GetBudgetItem(actor, id)
	if err != nil {
		return err
	}
	if !actor.CanManageUnit(branchOf(item.Unit), item.UnitID) {
		return apperrors.ErrForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.Transaction{}, &models.Draft{}} {
			n, err := countRows(tx, model, "budget_item_id = ?", item.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return apperrors.ErrBudgetItemInUse
			}
		}
		if err := tx.Delete(&models.BudgetItem{}, "id = ?", item.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// ApplyBalance books the effect of a transaction on its budget item inside
// tx. Inflows add; an expense subtracts and fails with
// ErrInsufficientBalance rather than driving the balance negative.
func (s *budgetItemService) ApplyBalance(tx *gorm.DB, budgetItemID string, category lifecycle.Category, amount int64) error {
	if category.IsInflow() {
		return adjustBalance(tx, budgetItemID, amount)
	}
	return adjustBalance(tx, budgetItemID, -amount)
}

// RevertBalance undoes ApplyBalance for a removed transaction.
func (s *budgetItemService) RevertBalance(tx *gorm.DB, budgetItemID string, category lifecycle.Category, amount int64) error {
	if category.IsInflow() {
		return adjustBalance(tx, budgetItemID, -amount)
	}
	return adjustBalance(tx, budgetItemID, amount)
}

// adjustBalance moves a balance by delta in a single guarded UPDATE, so
// concurrent writers cannot overdraw the item.
func adjustBalance(tx *gorm.DB, budgetItemID string, delta int64) error {
	q := tx.Model(&models.BudgetItem{}).Where("id = ?", budgetItemID)
	if delta < 0 {
		q = q.Where("balance >= ?", -delta)
	}
	res := q.Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	n, err := countRows(tx, &models.BudgetItem{}, "id = ?", budgetItemID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrBudgetItemNotFound
	}
	return apperrors.ErrInsufficientBalance
}

// checkAccount verifies accountID names an active account of the unit.
func (s *budgetItemService) checkAccount(unitID, accountID string) error {
	var account models.Account
	if err := s.db.Where("id = ?", accountID).First(&account).Error; err != nil {
		return notFoundOr(err, apperrors.ErrAccountNotFound)
	}
	if account.UnitID != unitID {
		return apperrors.WithMessage(apperrors.ErrAccountNotFound, "Akun AAS bukan milik unit ini")
	}
	if !account.IsActive {
		return apperrors.ErrAccountInactive
	}
	return nil
}
