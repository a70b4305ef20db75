package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kaskecil/internal/services"
)

// BranchHandler handles cabang master data.
type BranchHandler struct {
	branchService services.BranchServicer
	auditService  services.AuditServicer
}

// NewBranchHandler creates a new BranchHandler.
func NewBranchHandler(branchService services.BranchServicer, auditService services.AuditServicer) *BranchHandler {
	return &BranchHandler{branchService: branchService, auditService: auditService}
}

// CreateBranchRequest represents the payload for creating a branch.
type CreateBranchRequest struct {
	Code    string `json:"code" binding:"required,code"`
	Name    string `json:"name" binding:"required,max=100"`
	Address string `json:"address" binding:"max=255"`
}

// UpdateBranchRequest represents the payload for updating a branch. Omitted
// fields are left unchanged.
type UpdateBranchRequest struct {
	Code     *string `json:"code" binding:"omitempty,code"`
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	Address  *string `json:"address" binding:"omitempty,max=255"`
	IsActive *bool   `json:"is_active"`
}

// CreateBranch handles branch creation
// @Summary     Create a branch
// @Description Create a cabang. Super admin only.
// @Tags        branches
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBranchRequest true "Branch details"
// @Success     201 {object} models.Branch "Branch created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Duplicate code"
// @Router      /branches [post]
func (h *BranchHandler) CreateBranch(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	branch, err := h.branchService.CreateBranch(actor, services.BranchInput{
		Code:    &req.Code,
		Name:    &req.Name,
		Address: &req.Address,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "CREATE_BRANCH", "branch", branch.ID, c.ClientIP(),
		map[string]interface{}{"code": branch.Code, "name": branch.Name})

	c.JSON(http.StatusCreated, gin.H{"branch": branch})
}

// ListBranches handles listing branches
// @Summary     List branches
// @Description Paginated branches visible to the user
// @Tags        branches
// @Produce     json
// @Security    BearerAuth
// @Param       q         query string false "Search code or name"
// @Param       is_active query bool   false "Filter by active flag"
// @Param       page      query int    false "Page number (default 1)"
// @Param       per_page  query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Branch] "Paginated branches"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /branches [get]
func (h *BranchHandler) ListBranches(c *gin.Context) {
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

	result, err := h.branchService.ListBranches(actor, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.WithLinks(c.Request.URL))
}

// GetBranch handles fetching one branch
// @Summary     Get a branch
// @Tags        branches
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Branch ID"
// @Success     200 {object} models.Branch "Branch"
// @Failure     404 {object} ErrorResponse "Branch not found"
// @Router      /branches/{id} [get]
func (h *BranchHandler) GetBranch(c *gin.Context) {
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

	branch, err := h.branchService.GetBranch(actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"branch": branch})
}

// UpdateBranch handles branch updates
// @Summary     Update a branch
// @Tags        branches
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Branch ID"
// @Param       request body UpdateBranchRequest true "Fields to change"
// @Success     200 {object} models.Branch "Branch updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Branch not found"
// @Failure     409 {object} ErrorResponse "Duplicate code"
// @Router      /branches/{id} [put]
func (h *BranchHandler) UpdateBranch(c *gin.Context) {
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

	var req UpdateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	branch, err := h.branchService.UpdateBranch(actor, id, services.BranchInput{
		Code:     req.Code,
		Name:     req.Name,
		Address:  req.Address,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "UPDATE_BRANCH", "branch", branch.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"branch": branch})
}

// DeleteBranch handles branch deletion
// @Summary     Delete a branch
// @Description Delete a cabang. Fails while the branch still has units.
// @Tags        branches
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Branch ID"
// @Success     200 {object} MessageResponse "Branch deleted"
// @Failure     404 {object} ErrorResponse "Branch not found"
// @Failure     409 {object} ErrorResponse "Branch has units"
// @Router      /branches/{id} [delete]
func (h *BranchHandler) DeleteBranch(c *gin.Context) {
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

	if err := h.branchService.DeleteBranch(actor, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "DELETE_BRANCH", "branch", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Cabang berhasil dihapus"})
}
