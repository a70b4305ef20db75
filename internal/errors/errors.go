// Package errors provides the application error type for the Kas Kecil API.
// Service-layer errors are AppErrors so handlers can render a consistent,
// user-facing response without leaking internal details to clients.
package errors

import (
	stderrors "errors"
	"net/http"

	"kaskecil/pkg/lifecycle"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches two AppErrors by code, so a wrapped copy still equals its sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// FromLifecycle converts a lifecycle rule violation into its AppError.
// Errors that are not lifecycle sentinels are returned unchanged.
func FromLifecycle(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, lifecycle.ErrInvalidTransition):
		return Wrap(ErrInvalidTransition, err)
	case stderrors.Is(err, lifecycle.ErrReasonRequired):
		return Wrap(ErrReasonRequired, err)
	case stderrors.Is(err, lifecycle.ErrForbidden):
		return Wrap(ErrForbidden, err)
	case stderrors.Is(err, lifecycle.ErrNotTopUp):
		return Wrap(ErrNotTopUp, err)
	case stderrors.Is(err, lifecycle.ErrAlreadyDisbursed):
		return Wrap(ErrAlreadyDisbursed, err)
	case stderrors.Is(err, lifecycle.ErrNotEditable):
		return Wrap(ErrNotEditable, err)
	case stderrors.Is(err, lifecycle.ErrNotDeletable):
		return Wrap(ErrNotDeletable, err)
	}
	return err
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Sesi tidak valid, silakan login kembali", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Email atau kata sandi salah", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Anda tidak memiliki akses untuk tindakan ini", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Akun dikunci sementara karena terlalu banyak percobaan login", StatusCode: http.StatusLocked}
	ErrInvalidPassword    = &AppError{Code: "INVALID_PASSWORD", Message: "Kata sandi lama salah", StatusCode: http.StatusBadRequest}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Data yang dikirim tidak valid", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Data tidak ditemukan", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "Terjadi kesalahan pada server", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "Pengguna tidak ditemukan", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "Email sudah digunakan", StatusCode: http.StatusConflict}
	ErrInvalidScope   = &AppError{Code: "INVALID_SCOPE", Message: "Cabang atau unit pengguna tidak sesuai dengan perannya", StatusCode: http.StatusBadRequest}
)

// Branch & unit errors.
var (
	ErrBranchNotFound = &AppError{Code: "BRANCH_NOT_FOUND", Message: "Cabang tidak ditemukan", StatusCode: http.StatusNotFound}
	ErrBranchHasUnits = &AppError{Code: "BRANCH_HAS_UNITS", Message: "Cabang masih memiliki unit dan tidak dapat dihapus", StatusCode: http.StatusConflict}
	ErrUnitNotFound   = &AppError{Code: "UNIT_NOT_FOUND", Message: "Unit tidak ditemukan", StatusCode: http.StatusNotFound}
	ErrUnitInUse      = &AppError{Code: "UNIT_IN_USE", Message: "Unit masih memiliki data dan tidak dapat dihapus", StatusCode: http.StatusConflict}
	ErrDuplicateCode  = &AppError{Code: "DUPLICATE_CODE", Message: "Kode sudah digunakan", StatusCode: http.StatusConflict}
)

// Accounting account (Akun AAS) errors.
var (
	ErrAccountNotFound = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Akun AAS tidak ditemukan", StatusCode: http.StatusNotFound}
	ErrAccountInactive = &AppError{Code: "ACCOUNT_INACTIVE", Message: "Akun AAS tidak aktif", StatusCode: http.StatusBadRequest}
	ErrAccountInUse    = &AppError{Code: "ACCOUNT_IN_USE", Message: "Akun AAS masih dipakai mata anggaran", StatusCode: http.StatusConflict}
)

// Budget item (Mata Anggaran) errors.
var (
	ErrBudgetItemNotFound  = &AppError{Code: "BUDGET_ITEM_NOT_FOUND", Message: "Mata anggaran tidak ditemukan", StatusCode: http.StatusNotFound}
	ErrBudgetItemInUse     = &AppError{Code: "BUDGET_ITEM_IN_USE", Message: "Mata anggaran masih dipakai transaksi", StatusCode: http.StatusConflict}
	ErrInsufficientBalance = &AppError{Code: "INSUFFICIENT_BALANCE", Message: "Saldo mata anggaran tidak mencukupi", StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaksi tidak ditemukan", StatusCode: http.StatusNotFound}
	ErrInvalidCategory     = &AppError{Code: "INVALID_CATEGORY", Message: "Kategori transaksi tidak dikenal", StatusCode: http.StatusBadRequest}
	ErrTopUpRequiresDraft  = &AppError{Code: "TOPUP_REQUIRES_DRAFT", Message: "Pengisian kas harus diajukan melalui draft", StatusCode: http.StatusBadRequest}
)

// Draft lifecycle errors.
var (
	ErrDraftNotFound     = &AppError{Code: "DRAFT_NOT_FOUND", Message: "Draft tidak ditemukan", StatusCode: http.StatusNotFound}
	ErrInvalidTransition = &AppError{Code: "INVALID_TRANSITION", Message: "Status draft tidak memungkinkan tindakan ini", StatusCode: http.StatusConflict}
	ErrReasonRequired    = &AppError{Code: "REASON_REQUIRED", Message: "Alasan penolakan wajib diisi", StatusCode: http.StatusBadRequest}
	ErrNotTopUp          = &AppError{Code: "NOT_TOPUP", Message: "Hanya pengisian kas yang dapat dicairkan", StatusCode: http.StatusBadRequest}
	ErrAlreadyDisbursed  = &AppError{Code: "ALREADY_DISBURSED", Message: "Draft sudah dicairkan", StatusCode: http.StatusConflict}
	ErrNotEditable       = &AppError{Code: "NOT_EDITABLE", Message: "Data tidak dapat diubah lagi", StatusCode: http.StatusConflict}
	ErrNotDeletable      = &AppError{Code: "NOT_DELETABLE", Message: "Data tidak dapat dihapus", StatusCode: http.StatusConflict}
)

// Attachment errors.
var (
	ErrAttachmentNotFound = &AppError{Code: "ATTACHMENT_NOT_FOUND", Message: "Lampiran tidak ditemukan", StatusCode: http.StatusNotFound}
	ErrInvalidAttachment  = &AppError{Code: "INVALID_ATTACHMENT", Message: "Lampiran harus berupa gambar (JPG, PNG, WEBP) atau PDF", StatusCode: http.StatusBadRequest}
	ErrTooManyAttachments = &AppError{Code: "TOO_MANY_ATTACHMENTS", Message: "Maksimal 3 lampiran", StatusCode: http.StatusBadRequest}
	ErrAttachmentTooLarge = &AppError{Code: "ATTACHMENT_TOO_LARGE", Message: "Ukuran lampiran terlalu besar", StatusCode: http.StatusRequestEntityTooLarge}
)
