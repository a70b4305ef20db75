package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/logger"
	"kaskecil/internal/middleware"
	"kaskecil/internal/pagination"
	"kaskecil/internal/services"
	"kaskecil/internal/uuid"
)

// getActor extracts the authenticated actor from the Gin context.
// Returns ErrUnauthorized if not present.
func getActor(c *gin.Context) (services.Actor, error) {
	v, exists := c.Get(middleware.ActorKey)
	if !exists {
		return services.Actor{}, apperrors.ErrUnauthorized
	}
	actor, ok := v.(services.Actor)
	if !ok || actor.UserID == "" {
		return services.Actor{}, apperrors.ErrUnauthorized
	}
	return actor, nil
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (string, error) {
	id := c.Param(param)
	if !uuid.IsValid(id) {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "ID "+param+" tidak valid")
	}
	return id, nil
}

// bindPage parses page and per_page and applies the defaults.
func bindPage(c *gin.Context) (pagination.PageRequest, error) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		return page, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	page.Defaults()
	return page, nil
}

// parseFlexibleTime accepts RFC3339 or a plain YYYY-MM-DD date.
func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("format tanggal %q tidak valid, gunakan YYYY-MM-DD atau RFC3339", s)
}

// optionalDate parses a query parameter date, nil when absent.
func optionalDate(c *gin.Context, key string) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	t, err := parseFlexibleTime(v)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return &t, nil
}

// optionalBool parses "true"/"false" query values, nil when absent.
func optionalBool(c *gin.Context, key string) (*bool, error) {
	switch c.Query(key) {
	case "":
		return nil, nil
	case "true", "1":
		v := true
		return &v, nil
	case "false", "0":
		v := false
		return &v, nil
	}
	return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, key+" harus true atau false")
}

// masterFilter reads the query parameters shared by master-data lists.
func masterFilter(c *gin.Context) (services.MasterFilter, error) {
	active, err := optionalBool(c, "is_active")
	if err != nil {
		return services.MasterFilter{}, err
	}
	return services.MasterFilter{
		Query:     c.Query("q"),
		BranchID:  c.Query("branch_id"),
		UnitID:    c.Query("unit_id"),
		AccountID: c.Query("account_id"),
		IsActive:  active,
	}, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// bindError converts a binding failure into ErrInvalidInput, or
// ErrAttachmentTooLarge when the body exceeded the request limit.
func bindError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.ErrAttachmentTooLarge
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse is returned by endpoints without a resource body.
type MessageResponse struct {
	Message string `json:"message"`
}
