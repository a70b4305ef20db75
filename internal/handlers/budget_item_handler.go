package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kaskecil/internal/services"
)

// BudgetItemHandler handles mata anggaran master data.
type BudgetItemHandler struct {
	budgetItemService services.BudgetItemServicer
	auditService      services.AuditServicer
}

// NewBudgetItemHandler creates a new BudgetItemHandler.
func NewBudgetItemHandler(budgetItemService services.BudgetItemServicer, auditService services.AuditServicer) *BudgetItemHandler {
	return &BudgetItemHandler{budgetItemService: budgetItemService, auditService: auditService}
}

// CreateBudgetItemRequest represents the payload for creating a budget item.
// The balance always starts at zero; only transactions move it.
type CreateBudgetItemRequest struct {
	UnitID      *string `json:"unit_id" binding:"omitempty,uuid"`
	AccountID   string  `json:"account_id" binding:"required,uuid"`
	Code        string  `json:"code" binding:"required,code"`
	Name        string  `json:"name" binding:"required,max=100"`
	Description string  `json:"description" binding:"max=500"`
}

// UpdateBudgetItemRequest represents the payload for updating a budget item.
type UpdateBudgetItemRequest struct {
	AccountID   *string `json:"account_id" binding:"omitempty,uuid"`
	Code        *string `json:"code" binding:"omitempty,code"`
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// CreateBudgetItem handles budget item creation
// @Summary     Create a mata anggaran
// @Tags        budget-items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetItemRequest true "Budget item details"
// @Success     201 {object} models.BudgetItem "Budget item created"
// @Failure     400 {object} ErrorResponse "Invalid input or inactive account"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Duplicate code"
// @Router      /budget-items [post]
func (h *BudgetItemHandler) CreateBudgetItem(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	item, err := h.budgetItemService.CreateBudgetItem(actor, services.BudgetItemInput{
		UnitID:      req.UnitID,
		AccountID:   &req.AccountID,
		Code:        &req.Code,
		Name:        &req.Name,
		Description: &req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "CREATE_BUDGET_ITEM", "budget_item", item.ID, c.ClientIP(),
		map[string]interface{}{"unit_id": item.UnitID, "code": item.Code})

	c.JSON(http.StatusCreated, gin.H{"budget_item": item})
}

// ListBudgetItems handles listing budget items
// @Summary     List mata anggaran
// @Tags        budget-items
// @Produce     json
// @Security    BearerAuth
// @Param       q          query string false "Search code or name"
// @Param       unit_id    query string false "Filter by unit"
// @Param       account_id query string false "Filter by account"
// @Param       page       query int    false "Page number (default 1)"
// @Param       per_page   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BudgetItem] "Paginated budget items"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budget-items [get]
func (h *BudgetItemHandler) ListBudgetItems(c *gin.Context) {
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
	filter, err := masterFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.budgetItemService.ListBudgetItems(actor, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.WithLinks(c.Request.URL))
}

// GetBudgetItem handles fetching one budget item
// @Summary     Get a mata anggaran
// @Tags        budget-items
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget item ID"
// @Success     200 {object} models.BudgetItem "Budget item with balance"
// @Failure     404 {object} ErrorResponse "Budget item not found"
// @Router      /budget-items/{id} [get]
func (h *BudgetItemHandler) GetBudgetItem(c *gin.Context) {
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

	item, err := h.budgetItemService.GetBudgetItem(actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget_item": item})
}

// UpdateBudgetItem handles budget item updates
// @Summary     Update a mata anggaran
// @Description Update code, name, description or account. The balance cannot be set directly.
// @Tags        budget-items
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Budget item ID"
// @Param       request body UpdateBudgetItemRequest true "Fields to change"
// @Success     200 {object} models.BudgetItem "Budget item updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Budget item not found"
// @Router      /budget-items/{id} [put]
func (h *BudgetItemHandler) UpdateBudgetItem(c *gin.Context) {
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

	var req UpdateBudgetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	item, err := h.budgetItemService.UpdateBudgetItem(actor, id, services.BudgetItemInput{
		AccountID:   req.AccountID,
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "UPDATE_BUDGET_ITEM", "budget_item", item.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"budget_item": item})
}

// DeleteBudgetItem handles budget item deletion
// @Summary     Delete a mata anggaran
// @Description Delete a budget item no transaction or draft refers to.
// @Tags        budget-items
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget item ID"
// @Success     200 {object} MessageResponse "Budget item deleted"
// @Failure     404 {object} ErrorResponse "Budget item not found"
// @Failure     409 {object} ErrorResponse "Budget item in use"
// @Router      /budget-items/{id} [delete]
func (h *BudgetItemHandler) DeleteBudgetItem(c *gin.Context) {
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

	if err := h.budgetItemService.DeleteBudgetItem(actor, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "DELETE_BUDGET_ITEM", "budget_item", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Mata anggaran berhasil dihapus"})
}
