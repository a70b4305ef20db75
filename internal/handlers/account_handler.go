package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kaskecil/internal/models"
	"kaskecil/internal/services"
)

// AccountHandler handles Akun AAS master data.
type AccountHandler struct {
	accountService services.AccountServicer
	auditService   services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer, auditService services.AuditServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService, auditService: auditService}
}

// CreateAccountRequest represents the payload for creating an account.
// Unit-scoped users may omit unit_id.
type CreateAccountRequest struct {
	UnitID      *string            `json:"unit_id" binding:"omitempty,uuid"`
	Code        string             `json:"code" binding:"required,code"`
	Name        string             `json:"name" binding:"required,max=100"`
	Type        models.AccountType `json:"type" binding:"required,account_type"`
	Description string             `json:"description" binding:"max=500"`
}

// UpdateAccountRequest represents the payload for updating an account.
type UpdateAccountRequest struct {
	Code        *string             `json:"code" binding:"omitempty,code"`
	Name        *string             `json:"name" binding:"omitempty,min=1,max=100"`
	Type        *models.AccountType `json:"type" binding:"omitempty,account_type"`
	Description *string             `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool               `json:"is_active"`
}

// CreateAccount handles account creation
// @Summary     Create an Akun AAS
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} models.Account "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Duplicate code"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	account, err := h.accountService.CreateAccount(actor, services.AccountInput{
		UnitID:      req.UnitID,
		Code:        &req.Code,
		Name:        &req.Name,
		Type:        &req.Type,
		Description: &req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "CREATE_ACCOUNT", "account", account.ID, c.ClientIP(),
		map[string]interface{}{"unit_id": account.UnitID, "code": account.Code})

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// ListAccounts handles listing accounts
// @Summary     List Akun AAS
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       q         query string false "Search code or name"
// @Param       unit_id   query string false "Filter by unit"
// @Param       is_active query bool   false "Filter by active flag"
// @Param       page      query int    false "Page number (default 1)"
// @Param       per_page  query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Account] "Paginated accounts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
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

	result, err := h.accountService.ListAccounts(actor, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.WithLinks(c.Request.URL))
}

// GetAccount handles fetching one account
// @Summary     Get an Akun AAS
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Account "Account"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
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

	account, err := h.accountService.GetAccount(actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// UpdateAccount handles account updates
// @Summary     Update an Akun AAS
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Account ID"
// @Param       request body UpdateAccountRequest true "Fields to change"
// @Success     200 {object} models.Account "Account updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
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

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	account, err := h.accountService.UpdateAccount(actor, id, services.AccountInput{
		Code:        req.Code,
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "UPDATE_ACCOUNT", "account", account.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// DeleteAccount handles account deletion
// @Summary     Delete an Akun AAS
// @Description Delete an account no budget item uses.
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} MessageResponse "Account deleted"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     409 {object} ErrorResponse "Account in use"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
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

	if err := h.accountService.DeleteAccount(actor, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "DELETE_ACCOUNT", "account", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Akun AAS berhasil dihapus"})
}
