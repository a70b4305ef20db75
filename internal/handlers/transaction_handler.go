package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kaskecil/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
	store              AttachmentStore
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer, store AttachmentStore) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService, store: store}
}

// UpdateTransactionRequest represents the editable fields of a transaction.
// Amount, category and budget item are fixed once booked.
type UpdateTransactionRequest struct {
	Description *string `json:"description" form:"description" binding:"omitempty,max=500"`
	Date        *string `json:"date" form:"date"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Book a pengeluaran or pembentukan directly against a budget item. Pengisian must go through a draft. Send JSON, or multipart form fields with up to 3 `lampiran` files.
// @Tags        transactions
// @Accept      json,mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       request body EntryRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input or insufficient balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Budget item not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
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

	transaction, err := h.transactionService.CreateTransaction(actor, input)
	if err != nil {
		discardUploads(h.store, input.Attachments)
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{
			"category":       transaction.Category,
			"amount":         transaction.Amount,
			"budget_item_id": transaction.BudgetItemID,
		})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// ListTransactions handles listing transactions
// @Summary     List transactions
// @Description Paginated transactions visible to the user, newest first
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       q              query string false "Search description or budget item code"
// @Param       category       query string false "pengeluaran, pengisian or pembentukan"
// @Param       budget_item_id query string false "Filter by budget item"
// @Param       unit_id        query string false "Filter by unit"
// @Param       branch_id      query string false "Filter by branch"
// @Param       start_date     query string false "From date (YYYY-MM-DD or RFC3339)"
// @Param       end_date       query string false "To date (YYYY-MM-DD or RFC3339)"
// @Param       page           query int    false "Page number (default 1)"
// @Param       per_page       query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
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
	filter, err := entryFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(actor, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.WithLinks(c.Request.URL))
}

// GetTransaction handles the retrieval of a transaction
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction with attachments"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransaction(actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction handles transaction edits
// @Summary     Update a transaction
// @Description Change description or date, or add lampiran files. Amounts cannot change after booking.
// @Tags        transactions
// @Accept      json,mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} models.Transaction "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBind(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	input := services.TransactionUpdate{Description: req.Description}
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

	input.Attachments, err = storeUploads(c, h.store)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(actor, id, input)
	if err != nil {
		discardUploads(h.store, input.Attachments)
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "UPDATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"attachments_added": len(input.Attachments)})

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete a transaction
// @Description Delete a pengeluaran and return its amount to the budget item balance.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Not deletable"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(actor, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "DELETE_TRANSACTION", "transaction", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaksi berhasil dihapus"})
}
