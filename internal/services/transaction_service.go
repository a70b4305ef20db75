package services

import (
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/internal/pagination"
	"kaskecil/pkg/lifecycle"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db          *gorm.DB
	budgetItems BudgetItemServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, budgetItems BudgetItemServicer) TransactionServicer {
	return &transactionService{
		db:          db,
		budgetItems: budgetItems,
	}
}

// CreateTransaction books an expense or initial float directly. Top-ups
// must go through the draft workflow and initial floats are reserved for
// approvers.
func (s *transactionService) CreateTransaction(actor Actor, input EntryInput) (*models.Transaction, error) {
	if err := actor.require(lifecycle.ActionCreate); err != nil {
		return nil, err
	}
	if err := validateEntry(&input); err != nil {
		return nil, err
	}
	switch input.Category {
	case lifecycle.CategoryTopUp:
		return nil, apperrors.ErrTopUpRequiresDraft
	case lifecycle.CategoryInitial:
		if !actor.Role.IsApprover() {
			return nil, apperrors.ErrForbidden
		}
	}

	item, err := resolveBudgetItem(s.db, actor, input.BudgetItemID)
	if err != nil {
		return nil, err
	}

	var result *models.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = createTransactionWithDB(tx, s.budgetItems, item, actor.UserID, input, nil)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// createTransactionWithDB inserts a transaction with its attachments and
// books its balance effect using the given database transaction.
func createTransactionWithDB(
	tx *gorm.DB,
	budgetItems BudgetItemServicer,
	item *models.BudgetItem,
	createdBy string,
	input EntryInput,
	draftID *string,
) (*models.Transaction, error) {
	transaction := &models.Transaction{
		BranchID:     item.Unit.BranchID,
		UnitID:       item.UnitID,
		BudgetItemID: item.ID,
		Category:     input.Category,
		Amount:       input.Amount,
		Description:  input.Description,
		Date:         input.Date,
		CreatedBy:    createdBy,
		DraftID:      draftID,
		Attachments:  input.Attachments,
	}

	if err := tx.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := budgetItems.ApplyBalance(tx, item.ID, input.Category, input.Amount); err != nil {
		return nil, err
	}

	return transaction, nil
}

// ListTransactions retrieves a paginated, filtered list of transactions
// visible to the actor, newest first.
func (s *transactionService) ListTransactions(actor Actor, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Scopes(scopeBranchUnit(actor), entryFilters(filter))

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("BudgetItem").Preload("Attachments").
		Order("date DESC").Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PerPage, totalItems)
	return &result, nil
}

// entryFilters applies TransactionFilter to the transactions or drafts table.
func entryFilters(f TransactionFilter) func(db *gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if strings.TrimSpace(f.Query) != "" {
			p := likePattern(f.Query)
			items := q.Session(&gorm.Session{NewDB: true}).Model(&models.BudgetItem{}).Select("id").
				Where(`LOWER(code) LIKE ? ESCAPE '\'`, p)
			q = q.Where(`(LOWER(description) LIKE ? ESCAPE '\' OR budget_item_id IN (?))`, p, items)
		}
		if f.Category != "" {
			q = q.Where("category = ?", f.Category)
		}
		if f.BudgetItemID != "" {
			q = q.Where("budget_item_id = ?", f.BudgetItemID)
		}
		if f.UnitID != "" {
			q = q.Where("unit_id = ?", f.UnitID)
		}
		if f.BranchID != "" {
			q = q.Where("branch_id = ?", f.BranchID)
		}
		if f.StartDate != nil {
			q = q.Where("date >= ?", startOfDay(*f.StartDate))
		}
		if f.EndDate != nil {
			// the end date is inclusive of the whole day
			q = q.Where("date < ?", nextDay(*f.EndDate))
		}
		return q
	}
}

// GetTransaction retrieves a transaction visible to the actor.
func (s *transactionService) GetTransaction(actor Actor, id string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Scopes(scopeBranchUnit(actor)).
		Preload("BudgetItem").Preload("Attachments").
		Where("id = ?", id).First(&transaction).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrTransactionNotFound)
	}
	return &transaction, nil
}

// UpdateTransaction changes the description or date and appends
// attachments. Amount, category and budget item are fixed once realized.
func (s *transactionService) UpdateTransaction(actor Actor, id string, input TransactionUpdate) (*models.Transaction, error) {
	if err := actor.require(lifecycle.ActionEdit); err != nil {
		return nil, err
	}
	transaction, err := s.GetTransaction(actor, id)
	if err != nil {
		return nil, err
	}
	if len(transaction.Attachments)+len(input.Attachments) > models.MaxAttachments {
		return nil, apperrors.ErrTooManyAttachments
	}

	updates := make(map[string]interface{})
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Date != nil && !input.Date.IsZero() {
		updates["date"] = input.Date.UTC()
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.Transaction{}).Where("id = ?", transaction.ID).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return addAttachments(tx, models.OwnerTransaction, transaction.ID, input.Attachments)
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransaction(actor, id)
}

// DeleteTransaction deletes an expense and gives its amount back to the
// budget item. Realized top-ups, initial floats and transactions booked
// from an approved draft cannot be deleted.
func (s *transactionService) DeleteTransaction(actor Actor, id string) error {
	if err := actor.require(lifecycle.ActionDelete); err != nil {
		return err
	}
	transaction, err := s.GetTransaction(actor, id)
	if err != nil {
		return err
	}
	if err := lifecycle.CanDeleteTransaction(transaction.LifecycleItem()); err != nil {
		return apperrors.FromLifecycle(err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Transaction{}, "id = ?", transaction.ID)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrTransactionNotFound
		}
		if err := tx.Where("owner_type = ? AND owner_id = ?", models.OwnerTransaction, transaction.ID).
			Delete(&models.Attachment{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.budgetItems.RevertBalance(tx, transaction.BudgetItemID, transaction.Category, transaction.Amount)
	})
}

// validateEntry checks and normalizes the fields shared by transactions
// and drafts.
func validateEntry(input *EntryInput) error {
	if input.Amount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Nominal harus lebih dari nol")
	}
	if !input.Category.Valid() {
		return apperrors.ErrInvalidCategory
	}
	if input.BudgetItemID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Mata anggaran wajib dipilih")
	}
	if len(input.Attachments) > models.MaxAttachments {
		return apperrors.ErrTooManyAttachments
	}
	input.Description = strings.TrimSpace(input.Description)
	if input.Date.IsZero() {
		input.Date = time.Now()
	}
	input.Date = input.Date.UTC()
	return nil
}

// resolveBudgetItem loads a budget item with its unit and checks that the
// actor may book against it. Out-of-scope items behave as missing.
func resolveBudgetItem(db *gorm.DB, actor Actor, id string) (*models.BudgetItem, error) {
	var item models.BudgetItem
	if err := db.Preload("Unit").Where("id = ?", id).First(&item).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrBudgetItemNotFound)
	}
	if item.Unit == nil || !actor.CanSeeUnit(item.Unit.BranchID, item.UnitID) {
		return nil, apperrors.ErrBudgetItemNotFound
	}
	return &item, nil
}

// addAttachments saves already stored files as attachments of an owner.
func addAttachments(tx *gorm.DB, ownerType, ownerID string, attachments []models.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	for i := range attachments {
		attachments[i].OwnerType = ownerType
		attachments[i].OwnerID = ownerID
	}
	if err := tx.Create(&attachments).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// copyAttachments returns unsaved copies of attachments that point at the
// same stored files.
func copyAttachments(src []models.Attachment) []models.Attachment {
	if len(src) == 0 {
		return nil
	}
	out := make([]models.Attachment, len(src))
	for i, a := range src {
		out[i] = models.Attachment{
			FileName:    a.FileName,
			ContentType: a.ContentType,
			Size:        a.Size,
			Path:        a.Path,
			Checksum:    a.Checksum,
		}
	}
	return out
}
