package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/internal/services"
	"kaskecil/pkg/lifecycle"
)

// DraftHandler handles the draft approval workflow.
type DraftHandler struct {
	draftService services.DraftServicer
	auditService services.AuditServicer
	store        AttachmentStore
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(draftService services.DraftServicer, auditService services.AuditServicer, store AttachmentStore) *DraftHandler {
	return &DraftHandler{draftService: draftService, auditService: auditService, store: store}
}

// UpdateDraftRequest represents the editable fields of a draft. Omitted
// fields are left unchanged.
type UpdateDraftRequest struct {
	BudgetItemID *string             `json:"budget_item_id" form:"budget_item_id" binding:"omitempty,uuid"`
	Category     *lifecycle.Category `json:"category" form:"category" binding:"omitempty,category"`
	Amount       *int64              `json:"amount" form:"amount" binding:"omitempty,gt=0"`
	Description  *string             `json:"description" form:"description" binding:"omitempty,max=500"`
	Date         *string             `json:"date" form:"date"`
}

// ApproveRequest carries the optional approval note.
type ApproveRequest struct {
	Note string `json:"catatan_approval" binding:"max=500"`
}

// RejectRequest carries the rejection reason. A blank reason is refused by
// the workflow with REASON_REQUIRED.
type RejectRequest struct {
	Reason string `json:"catatan_approval" binding:"max=500"`
}

// CreateDraft handles draft creation
// @Summary     Create a draft
// @Description Propose a pengeluaran, pengisian or pembentukan. The draft starts in status draft. Send JSON, or multipart form fields with up to 3 `lampiran` files.
// @Tags        drafts
// @Accept      json,mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       request body EntryRequest true "Draft details"
// @Success     201 {object} models.Draft "Draft created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget item not found"
// @Router      /drafts [post]
func (h *DraftHandler) CreateDraft(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	input, err := bindEntry(c, h.store)
	if err != nil {
		respondWithError(c, err)
		return
	}

	draft, err := h.draftService.CreateDraft(actor, input)
	if err != nil {
		discardUploads(h.store, input.Attachments)
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "CREATE_DRAFT", "draft", draft.ID, c.ClientIP(),
		map[string]interface{}{
			"category":       draft.Category,
			"amount":         draft.Amount,
			"budget_item_id": draft.BudgetItemID,
		})

	c.JSON(http.StatusCreated, gin.H{"draft": draft})
}

// ListDrafts handles listing drafts
// @Summary     List drafts
// @Description Paginated drafts visible to the user, newest first
// @Tags        drafts
// @Produce     json
// @Security    BearerAuth
// @Param       status         query string false "draft, pending, approved or rejected"
// @Param       belum_cair     query bool   false "Only approved pengisian not disbursed yet"
// @Param       q              query string false "Search description or budget item code"
// @Param       category       query string false "pengeluaran, pengisian or pembentukan"
// @Param       budget_item_id query string false "Filter by budget item"
// @Param       unit_id        query string false "Filter by unit"
// @Param       branch_id      query string false "Filter by branch"
// @Param       start_date     query string false "From date (YYYY-MM-DD or RFC3339)"
// @Param       end_date       query string false "To date (YYYY-MM-DD or RFC3339)"
// @Param       page           query int    false "Page number (default 1)"
// @Param       per_page       query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Draft] "Paginated drafts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /drafts [get]
func (h *DraftHandler) ListDrafts(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	base, err := entryFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter := services.DraftFilter{TransactionFilter: base}

	if v := c.Query("status"); v != "" {
		status := lifecycle.Status(v)
		if !status.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Status draft tidak dikenal"))
			return
		}
		filter.Status = status
	}
	undisbursed, err := optionalBool(c, "belum_cair")
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.Undisbursed = undisbursed != nil && *undisbursed

	result, err := h.draftService.ListDrafts(actor, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.WithLinks(c.Request.URL))
}

// GetDraft handles fetching one draft
// @Summary     Get a draft
// @Tags        drafts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Draft ID"
// @Success     200 {object} models.Draft "Draft with attachments"
// @Failure     404 {object} ErrorResponse "Draft not found"
// @Router      /drafts/{id} [get]
func (h *DraftHandler) GetDraft(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	draft, err := h.draftService.GetDraft(actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// UpdateDraft handles draft edits
// @Summary     Update a draft
// @Description Edit a draft in status draft or rejected. Editing a rejected draft moves it back to draft.
// @Tags        drafts
// @Accept      json,mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Draft ID"
// @Param       request body UpdateDraftRequest true "Fields to change"
// @Success     200 {object} models.Draft "Draft updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Draft not found"
// @Failure     409 {object} ErrorResponse "Not editable"
// @Router      /drafts/{id} [put]
func (h *DraftHandler) UpdateDraft(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req UpdateDraftRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	input := services.DraftUpdate{
		BudgetItemID: req.BudgetItemID,
		Category:     req.Category,
		Amount:       req.Amount,
		Description:  req.Description,
	}
	if req.Date != nil {
		date, err := parseOptionalDate(*req.Date)
		if err != nil {
			respondWithError(c, err)
			return
		}
		if !date.IsZero() {
			input.Date = &date
		}
	}

	var err error
	input.Attachments, err = storeUploads(c, h.store)
	if err != nil {
		respondWithError(c, err)
		return
	}

	draft, err := h.draftService.UpdateDraft(actor, id, input)
	if err != nil {
		discardUploads(h.store, input.Attachments)
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "UPDATE_DRAFT", "draft", draft.ID, c.ClientIP(),
		map[string]interface{}{"status": draft.Status, "attachments_added": len(input.Attachments)})

	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// DeleteDraft handles draft deletion
// @Summary     Delete a draft
// @Description Delete a draft that was not submitted yet.
// @Tags        drafts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Draft ID"
// @Success     200 {object} MessageResponse "Draft deleted"
// @Failure     404 {object} ErrorResponse "Draft not found"
// @Failure     409 {object} ErrorResponse "Not deletable"
// @Router      /drafts/{id} [delete]
func (h *DraftHandler) DeleteDraft(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	if err := h.draftService.DeleteDraft(actor, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "DELETE_DRAFT", "draft", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Draft berhasil dihapus"})
}

// SubmitDraft handles submitting a draft for approval
// @Summary     Submit a draft
// @Description Move a draft from draft to pending.
// @Tags        drafts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Draft ID"
// @Success     200 {object} models.Draft "Draft pending"
// @Failure     404 {object} ErrorResponse "Draft not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Router      /drafts/{id}/submit [post]
func (h *DraftHandler) SubmitDraft(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	draft, err := h.draftService.SubmitDraft(actor, id)
	h.respondTransition(c, actor, "SUBMIT_DRAFT", draft, err, nil)
}

// ApproveDraft handles approving a pending draft
// @Summary     Approve a draft
// @Description Approve a pending draft. Pengeluaran and pembentukan are booked immediately; pengisian waits for cairkan.
// @Tags        drafts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true  "Draft ID"
// @Param       request body ApproveRequest false "Optional note"
// @Success     200 {object} models.Draft "Draft approved"
// @Failure     400 {object} ErrorResponse "Insufficient balance"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Draft not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Router      /drafts/{id}/approve [post]
func (h *DraftHandler) ApproveDraft(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	// The note is optional, so an empty body is fine.
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(c, bindError(err))
		return
	}

	draft, err := h.draftService.ApproveDraft(actor, id, req.Note)
	h.respondTransition(c, actor, "APPROVE_DRAFT", draft, err, nil)
}

// RejectDraft handles rejecting a pending draft
// @Summary     Reject a draft
// @Description Reject a pending draft with a mandatory reason, stored as catatan_approval.
// @Tags        drafts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string        true "Draft ID"
// @Param       request body RejectRequest true "Rejection reason"
// @Success     200 {object} models.Draft "Draft rejected"
// @Failure     400 {object} ErrorResponse "Reason required"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Draft not found"
// @Failure     409 {object} ErrorResponse "Invalid transition"
// @Router      /drafts/{id}/reject [post]
func (h *DraftHandler) RejectDraft(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(c, bindError(err))
		return
	}

	draft, err := h.draftService.RejectDraft(actor, id, req.Reason)
	h.respondTransition(c, actor, "REJECT_DRAFT", draft, err, map[string]interface{}{"reason": req.Reason})
}

// DisburseDraft handles releasing an approved top-up
// @Summary     Disburse a top-up (cairkan)
// @Description Release an approved pengisian: the amount is booked as a transaction and credited to the budget item.
// @Tags        drafts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Draft ID"
// @Success     200 {object} models.Draft "Draft disbursed"
// @Failure     400 {object} ErrorResponse "Not a top-up"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Draft not found"
// @Failure     409 {object} ErrorResponse "Already disbursed or not approved"
// @Router      /drafts/{id}/cairkan [post]
func (h *DraftHandler) DisburseDraft(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}

	draft, err := h.draftService.DisburseDraft(actor, id)
	h.respondTransition(c, actor, "DISBURSE_DRAFT", draft, err, nil)
}

func (h *DraftHandler) actorAndID(c *gin.Context) (services.Actor, string, bool) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return actor, "", false
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return actor, "", false
	}
	return actor, id, true
}

func (h *DraftHandler) respondTransition(c *gin.Context, actor services.Actor, action string, draft *models.Draft, err error, changes map[string]interface{}) {
	if err != nil {
		respondWithError(c, err)
		return
	}

	if changes == nil {
		changes = map[string]interface{}{}
	}
	changes["status"] = draft.Status
	if draft.TransactionID != nil {
		changes["transaction_id"] = *draft.TransactionID
	}
	h.auditService.Log(actor.UserID, action, "draft", draft.ID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, gin.H{"draft": draft})
}
