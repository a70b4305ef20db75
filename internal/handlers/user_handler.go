package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kaskecil/internal/services"
	"kaskecil/pkg/lifecycle"
)

// UserHandler handles user management by administrators.
type UserHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService services.UserServicer, auditService services.AuditServicer) *UserHandler {
	return &UserHandler{userService: userService, auditService: auditService}
}

// CreateUserRequest represents the payload for creating a user. Which of
// branch_id and unit_id is required depends on the role.
type CreateUserRequest struct {
	Email    string         `json:"email" binding:"required,email,max=255"`
	Password string         `json:"password" binding:"required,min=8,max=128"`
	Name     string         `json:"name" binding:"required,max=100"`
	Role     lifecycle.Role `json:"role" binding:"required,role"`
	BranchID *string        `json:"branch_id" binding:"omitempty,uuid"`
	UnitID   *string        `json:"unit_id" binding:"omitempty,uuid"`
}

// UpdateUserRequest represents the payload for updating a user.
type UpdateUserRequest struct {
	Name     *string         `json:"name" binding:"omitempty,min=1,max=100"`
	Role     *lifecycle.Role `json:"role" binding:"omitempty,role"`
	BranchID *string         `json:"branch_id" binding:"omitempty,uuid"`
	UnitID   *string         `json:"unit_id" binding:"omitempty,uuid"`
	IsActive *bool           `json:"is_active"`
	Password *string         `json:"password" binding:"omitempty,min=8,max=128"`
}

// CreateUser handles user creation
// @Summary     Create a user
// @Description Create a user within the administrator's branch or unit.
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateUserRequest true "User details"
// @Success     201 {object} models.User "User created"
// @Failure     400 {object} ErrorResponse "Invalid input or scope"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Duplicate email"
// @Router      /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.CreateUser(actor, services.UserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
		BranchID: req.BranchID,
		UnitID:   req.UnitID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "CREATE_USER", "user", user.ID, c.ClientIP(),
		map[string]interface{}{"email": user.Email, "role": user.Role})

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// ListUsers handles listing users
// @Summary     List users
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       q         query string false "Search name or email"
// @Param       branch_id query string false "Filter by branch"
// @Param       unit_id   query string false "Filter by unit"
// @Param       is_active query bool   false "Filter by active flag"
// @Param       page      query int    false "Page number (default 1)"
// @Param       per_page  query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.User] "Paginated users"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
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

	result, err := h.userService.ListUsers(actor, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result.WithLinks(c.Request.URL))
}

// GetUser handles fetching one user
// @Summary     Get a user
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} models.User "User"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
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

	user, err := h.userService.GetUser(actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateUser handles user updates
// @Summary     Update a user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "User ID"
// @Param       request body UpdateUserRequest true "Fields to change"
// @Success     200 {object} models.User "User updated"
// @Failure     400 {object} ErrorResponse "Invalid input or scope"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
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

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.UpdateUser(actor, id, services.UserUpdate{
		Name:     req.Name,
		Role:     req.Role,
		BranchID: req.BranchID,
		UnitID:   req.UnitID,
		IsActive: req.IsActive,
		Password: req.Password,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Role != nil {
		changes["role"] = *req.Role
	}
	if req.IsActive != nil {
		changes["is_active"] = *req.IsActive
	}
	if req.Password != nil {
		changes["password_reset"] = true
	}
	h.auditService.Log(actor.UserID, "UPDATE_USER", "user", user.ID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser handles user deletion
// @Summary     Delete a user
// @Tags        users
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "User ID"
// @Success     200 {object} MessageResponse "User deleted"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
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

	if err := h.userService.DeleteUser(actor, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, "DELETE_USER", "user", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Pengguna berhasil dihapus"})
}
