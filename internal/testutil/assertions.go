package testutil

import (
	"errors"
	"testing"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"

	"gorm.io/gorm"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertBalance reloads a budget item and checks its balance.
func AssertBalance(t *testing.T, db *gorm.DB, budgetItemID string, want int64) {
	t.Helper()

	var item models.BudgetItem
	if err := db.First(&item, "id = ?", budgetItemID).Error; err != nil {
		t.Fatalf("failed to reload budget item: %v", err)
	}
	if item.Balance != want {
		t.Errorf("expected balance %d, got %d", want, item.Balance)
	}
}
