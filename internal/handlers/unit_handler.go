package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kaskecil/internal/services"
)

// UnitHandler handles unit master data.
type UnitHandler struct {
	unitService  services.UnitServicer
	auditService services.AuditServicer
}

// NewUnitHandler creates a new UnitHandler.
func NewUnitHandler(unitService services.UnitServicer, auditService services.AuditServicer) *UnitHandler {
	return &UnitHandler{unitService: unitService, auditService: auditService}
}

// CreateUnitRequest represents the payload for creating a unit. Branch
// admins may omit branch_id; their own branch is used.
type CreateUnitRequest struct {
	BranchID *string `json:"branch_id" binding:"omitempty,uuid"`
	Code     string  `json:"code" binding:"required,code"`
	Name     string  `json:"name" binding:"required,max=100"`
}

// UpdateUnitRequest represents the payload for updating a unit.
type UpdateUnitRequest struct {
	BranchID *string `json:"branch_id" binding:"omitempty,uuid"`
	Code     *string `json:"code" binding:"omitempty,code"`
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	IsActive *bool   `json:"is_active"`
}

// CreateUnit handles unit creation
// @Summary     Create a unit
// @Tags        units
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateUnitRequest true "Unit details"
// @Success     201 {object} models.Unit "Unit created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Duplicate code"
// @Router      /units [post]
func (h *UnitHandler) CreateUnit(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	unit, err := h.unitService.CreateUnit(actor, services.UnitInput{
		BranchID: req.BranchID,
		Code:     &req.Code,
		Name:     &req.Name,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "CREATE_UNIT", "unit", unit.ID, c.ClientIP(),
		map[string]interface{}{"branch_id": unit.BranchID, "code": unit.Code})

	c.JSON(http.StatusCreated, gin.H{"unit": unit})
}

// ListUnits handles listing units
// @Summary     List units
// @Tags        units
// @Produce     json
// @Security    BearerAuth
// @Param       q         query string false "Search code or name"
// @Param       branch_id query string false "Filter by branch"
// @Param       is_active query bool   false "Filter by active flag"
// @Param       page      query int    false "Page number (default 1)"
// @Param       per_page  query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Unit] "Paginated units"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /units [get]
func (h *UnitHandler) ListUnits(c *gin.Context) {
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

	result, err := h.unitService.ListUnits(actor, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.WithLinks(c.Request.URL))
}

// GetUnit handles fetching one unit
// @Summary     Get a unit
// @Tags        units
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Unit ID"
// @Success     200 {object} models.Unit "Unit"
// @Failure     404 {object} ErrorResponse "Unit not found"
// @Router      /units/{id} [get]
func (h *UnitHandler) GetUnit(c *gin.Context) {
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

	unit, err := h.unitService.GetUnit(actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unit": unit})
}

// UpdateUnit handles unit updates
// @Summary     Update a unit
// @Tags        units
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Unit ID"
// @Param       request body UpdateUnitRequest true "Fields to change"
// @Success     200 {object} models.Unit "Unit updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Unit not found"
// @Router      /units/{id} [put]
func (h *UnitHandler) UpdateUnit(c *gin.Context) {
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

	var req UpdateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	unit, err := h.unitService.UpdateUnit(actor, id, services.UnitInput{
		BranchID: req.BranchID,
		Code:     req.Code,
		Name:     req.Name,
		IsActive: req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "UPDATE_UNIT", "unit", unit.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"unit": unit})
}

// DeleteUnit handles unit deletion
// @Summary     Delete a unit
// @Description Delete a unit that has no users, accounts, budget items or cash movements.
// @Tags        units
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Unit ID"
// @Success     200 {object} MessageResponse "Unit deleted"
// @Failure     404 {object} ErrorResponse "Unit not found"
// @Failure     409 {object} ErrorResponse "Unit in use"
// @Router      /units/{id} [delete]
func (h *UnitHandler) DeleteUnit(c *gin.Context) {
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

	if err := h.unitService.DeleteUnit(actor, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "DELETE_UNIT", "unit", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Unit berhasil dihapus"})
}
