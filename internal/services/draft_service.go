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

// draftService handles the draft approval workflow.
type draftService struct {
	db          *gorm.DB
	budgetItems BudgetItemServicer
}

// NewDraftService creates a new DraftServicer.
func NewDraftService(db *gorm.DB, budgetItems BudgetItemServicer) DraftServicer {
	return &draftService{
		db:          db,
		budgetItems: budgetItems,
	}
}

// CreateDraft stores a new draft in StatusDraft.
func (s *draftService) CreateDraft(actor Actor, input EntryInput) (*models.Draft, error) {
	if err := actor.require(lifecycle.ActionCreate); err != nil {
		return nil, err
	}
	if err := validateEntry(&input); err != nil {
		return nil, err
	}
	item, err := resolveBudgetItem(s.db, actor, input.BudgetItemID)
	if err != nil {
		return nil, err
	}

	draft := &models.Draft{
		BranchID:     item.Unit.BranchID,
		UnitID:       item.UnitID,
		BudgetItemID: item.ID,
		Category:     input.Category,
		Amount:       input.Amount,
		Description:  input.Description,
		Date:         input.Date,
		CreatedBy:    actor.UserID,
		Status:       lifecycle.StatusDraft,
		Attachments:  input.Attachments,
	}
	if err := s.db.Create(draft).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return draft, nil
}

// ListDrafts retrieves a paginated, filtered list of drafts visible to the
// actor, newest first.
func (s *draftService) ListDrafts(actor Actor, filter DraftFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Draft], error) {
	page.Defaults()

	base := s.db.Model(&models.Draft{}).Scopes(scopeBranchUnit(actor), entryFilters(filter.TransactionFilter))
	if filter.Status != "" {
		base = base.Where("status = ?", filter.Status)
	}
	if filter.Undisbursed {
		base = base.Scopes(undisbursedTopUps)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var drafts []models.Draft
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("BudgetItem").Preload("Attachments").
		Order("date DESC").Order("created_at DESC").
		Find(&drafts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(drafts, page.Page, page.PerPage, totalItems)
	return &result, nil
}

// undisbursedTopUps selects approved top-ups still waiting for cairkan.
func undisbursedTopUps(db *gorm.DB) *gorm.DB {
	return db.Where("category = ? AND status = ? AND disbursed_at IS NULL",
		lifecycle.CategoryTopUp, lifecycle.StatusApproved)
}

// GetDraft retrieves a draft visible to the actor.
func (s *draftService) GetDraft(actor Actor, id string) (*models.Draft, error) {
	var draft models.Draft
	if err := s.db.Scopes(scopeBranchUnit(actor)).
		Preload("BudgetItem").Preload("Attachments").
		Where("id = ?", id).First(&draft).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrDraftNotFound)
	}
	return &draft, nil
}

// UpdateDraft edits a draft or rejected draft. Editing a rejected draft
// returns it to StatusDraft so it can be submitted again.
func (s *draftService) UpdateDraft(actor Actor, id string, input DraftUpdate) (*models.Draft, error) {
	if err := actor.require(lifecycle.ActionEdit); err != nil {
		return nil, err
	}
	draft, err := s.GetDraft(actor, id)
	if err != nil {
		return nil, err
	}
	if err := ownsDraft(actor, draft); err != nil {
		return nil, err
	}
	if err := lifecycle.CanEdit(draft.Status); err != nil {
		return nil, apperrors.FromLifecycle(err)
	}
	if len(draft.Attachments)+len(input.Attachments) > models.MaxAttachments {
		return nil, apperrors.ErrTooManyAttachments
	}

	updates := make(map[string]interface{})
	if input.BudgetItemID != nil && *input.BudgetItemID != draft.BudgetItemID {
		item, err := resolveBudgetItem(s.db, actor, *input.BudgetItemID)
		if err != nil {
			return nil, err
		}
		updates["budget_item_id"] = item.ID
		updates["unit_id"] = item.UnitID
		updates["branch_id"] = item.Unit.BranchID
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			return nil, apperrors.ErrInvalidCategory
		}
		updates["category"] = *input.Category
	}
	if input.Amount != nil {
		if *input.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Nominal harus lebih dari nol")
		}
		updates["amount"] = *input.Amount
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Date != nil && !input.Date.IsZero() {
		updates["date"] = input.Date.UTC()
	}
	if draft.Status == lifecycle.StatusRejected {
		updates["status"] = lifecycle.StatusDraft
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := transitionDraft(tx, draft.ID, draft.Status, updates); err != nil {
				return err
			}
		}
		return addAttachments(tx, models.OwnerDraft, draft.ID, input.Attachments)
	})
	if err != nil {
		return nil, err
	}
	return s.GetDraft(actor, id)
}

// DeleteDraft deletes a draft that was never submitted.
func (s *draftService) DeleteDraft(actor Actor, id string) error {
	if err := actor.require(lifecycle.ActionDelete); err != nil {
		return err
	}
	draft, err := s.GetDraft(actor, id)
	if err != nil {
		return err
	}
	if err := ownsDraft(actor, draft); err != nil {
		return err
	}
	if err := lifecycle.CanDeleteDraft(draft.Status); err != nil {
		return apperrors.FromLifecycle(err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND status = ?", draft.ID, lifecycle.StatusDraft).Delete(&models.Draft{})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotDeletable
		}
		if err := tx.Where("owner_type = ? AND owner_id = ?", models.OwnerDraft, draft.ID).
			Delete(&models.Attachment{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// SubmitDraft sends a draft to the approvers.
func (s *draftService) SubmitDraft(actor Actor, id string) (*models.Draft, error) {
	if err := actor.require(lifecycle.ActionSubmit); err != nil {
		return nil, err
	}
	draft, err := s.GetDraft(actor, id)
	if err != nil {
		return nil, err
	}
	if err := ownsDraft(actor, draft); err != nil {
		return nil, err
	}
	next, err := lifecycle.Next(draft.Status, lifecycle.ActionSubmit)
	if err != nil {
		return nil, apperrors.FromLifecycle(err)
	}

	now := time.Now()
	if err := transitionDraft(s.db, draft.ID, draft.Status, map[string]interface{}{
		"status":        next,
		"submitted_at":  now,
		"approval_note": "",
	}); err != nil {
		return nil, err
	}
	return s.GetDraft(actor, id)
}

// ApproveDraft approves a pending draft. An approved expense or initial
// float becomes a transaction right away; a top-up waits for DisburseDraft.
func (s *draftService) ApproveDraft(actor Actor, id, note string) (*models.Draft, error) {
	if err := actor.require(lifecycle.ActionApprove); err != nil {
		return nil, err
	}
	draft, err := s.GetDraft(actor, id)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.Next(draft.Status, lifecycle.ActionApprove)
	if err != nil {
		return nil, apperrors.FromLifecycle(err)
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":        next,
			"approval_note": strings.TrimSpace(note),
			"approved_by":   actor.UserID,
			"approved_at":   now,
		}
		if err := transitionDraft(tx, draft.ID, draft.Status, updates); err != nil {
			return err
		}
		if draft.Category == lifecycle.CategoryTopUp {
			return nil
		}
		return s.realize(tx, draft)
	})
	if err != nil {
		return nil, err
	}
	return s.GetDraft(actor, id)
}

// RejectDraft rejects a pending draft. The trimmed reason is required and
// is kept as the approval note.
func (s *draftService) RejectDraft(actor Actor, id, reason string) (*models.Draft, error) {
	if err := actor.require(lifecycle.ActionReject); err != nil {
		return nil, err
	}
	reason, err := lifecycle.ValidateRejectReason(reason)
	if err != nil {
		return nil, apperrors.FromLifecycle(err)
	}
	draft, err := s.GetDraft(actor, id)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.Next(draft.Status, lifecycle.ActionReject)
	if err != nil {
		return nil, apperrors.FromLifecycle(err)
	}

	if err := transitionDraft(s.db, draft.ID, draft.Status, map[string]interface{}{
		"status":        next,
		"approval_note": reason,
		"rejected_by":   actor.UserID,
		"rejected_at":   time.Now(),
	}); err != nil {
		return nil, err
	}
	return s.GetDraft(actor, id)
}

// DisburseDraft releases the cash of an approved top-up (cairkan) and books
// it as a transaction.
func (s *draftService) DisburseDraft(actor Actor, id string) (*models.Draft, error) {
	if err := actor.require(lifecycle.ActionDisburse); err != nil {
		return nil, err
	}
	draft, err := s.GetDraft(actor, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CanDisburse(draft.LifecycleItem()); err != nil {
		return nil, apperrors.FromLifecycle(err)
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Draft{}).
			Where("id = ? AND status = ? AND disbursed_at IS NULL", draft.ID, lifecycle.StatusApproved).
			Updates(map[string]interface{}{
				"disbursed_by": actor.UserID,
				"disbursed_at": now,
			})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrAlreadyDisbursed
		}
		return s.realize(tx, draft)
	})
	if err != nil {
		return nil, err
	}
	return s.GetDraft(actor, id)
}

// realize books draft as a transaction and links the two.
func (s *draftService) realize(tx *gorm.DB, draft *models.Draft) error {
	item, err := loadBudgetItemWithUnit(tx, draft.BudgetItemID)
	if err != nil {
		return err
	}
	input := EntryInput{
		BudgetItemID: draft.BudgetItemID,
		Category:     draft.Category,
		Amount:       draft.Amount,
		Description:  draft.Description,
		Date:         draft.Date,
		Attachments:  copyAttachments(draft.Attachments),
	}
	draftID := draft.ID
	transaction, err := createTransactionWithDB(tx, s.budgetItems, item, draft.CreatedBy, input, &draftID)
	if err != nil {
		return err
	}
	if err := tx.Model(&models.Draft{}).Where("id = ?", draft.ID).
		Update("transaction_id", transaction.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// transitionDraft applies updates only while the draft is still in status
// from. A concurrent decision leaves no row to update.
func transitionDraft(db *gorm.DB, id string, from lifecycle.Status, updates map[string]interface{}) error {
	res := db.Model(&models.Draft{}).Where("id = ? AND status = ?", id, from).Updates(updates)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrInvalidTransition
	}
	return nil
}

// ownsDraft restricts officers to the drafts they created.
func ownsDraft(actor Actor, draft *models.Draft) error {
	if actor.Role == lifecycle.RoleOfficer && draft.CreatedBy != actor.UserID {
		return apperrors.ErrForbidden
	}
	return nil
}

func loadBudgetItemWithUnit(db *gorm.DB, id string) (*models.BudgetItem, error) {
	var item models.BudgetItem
	if err := db.Preload("Unit").Where("id = ?", id).First(&item).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrBudgetItemNotFound)
	}
	if item.Unit == nil {
		return nil, apperrors.ErrUnitNotFound
	}
	return &item, nil
}
