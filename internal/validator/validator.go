// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"kaskecil/internal/models"
	"kaskecil/pkg/lifecycle"
)

// codeRegex matches master-data codes such as "CBG-01" or "5.1.02".
var codeRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-_/]{0,31}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn installs the custom tags on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("category", validateCategory)
	_ = v.RegisterValidation("draft_status", validateDraftStatus)
	_ = v.RegisterValidation("role", validateRole)
	_ = v.RegisterValidation("account_type", validateAccountType)
	_ = v.RegisterValidation("code", validateCode)
}

func validateCategory(fl validator.FieldLevel) bool {
	return lifecycle.Category(fl.Field().String()).Valid()
}

func validateDraftStatus(fl validator.FieldLevel) bool {
	return lifecycle.Status(fl.Field().String()).Valid()
}

func validateRole(fl validator.FieldLevel) bool {
	return lifecycle.Role(fl.Field().String()).Valid()
}

func validateAccountType(fl validator.FieldLevel) bool {
	switch models.AccountType(fl.Field().String()) {
	case models.AccountTypeDebit, models.AccountTypeCredit:
		return true
	}
	return false
}

func validateCode(fl validator.FieldLevel) bool {
	return codeRegex.MatchString(fl.Field().String())
}
