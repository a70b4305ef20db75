package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/internal/services"
	"kaskecil/pkg/lifecycle"
)

// attachmentField is the multipart field carrying lampiran files.
const attachmentField = "lampiran"

// AttachmentStore stores and serves lampiran files.
type AttachmentStore interface {
	SaveFiles(files []*multipart.FileHeader) ([]models.Attachment, error)
	Open(path string) (*os.File, error)
	Remove(attachments []models.Attachment)
}

// EntryRequest is the body of a new transaction or draft, sent either as
// JSON or as multipart form fields next to the lampiran files.
type EntryRequest struct {
	BudgetItemID string             `json:"budget_item_id" form:"budget_item_id" binding:"required,uuid"`
	Category     lifecycle.Category `json:"category" form:"category" binding:"required,category"`
	Amount       int64              `json:"amount" form:"amount" binding:"required,gt=0"`
	Description  string             `json:"description" form:"description" binding:"max=500"`
	Date         string             `json:"date" form:"date"`
}

// uploadedFiles returns the lampiran files of a multipart request, or nil
// for any other content type.
func uploadedFiles(c *gin.Context) ([]*multipart.FileHeader, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperrors.ErrAttachmentTooLarge
		}
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	files := form.File[attachmentField]
	if len(files) > models.MaxAttachments {
		return nil, apperrors.ErrTooManyAttachments
	}
	return files, nil
}

// storeUploads saves the request's lampiran files. The caller must Remove
// them again when the entry is not persisted.
func storeUploads(c *gin.Context, store AttachmentStore) ([]models.Attachment, error) {
	files, err := uploadedFiles(c)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return store.SaveFiles(files)
}

// parseOptionalDate parses a body date, the zero time when blank.
func parseOptionalDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := parseFlexibleTime(s)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return t, nil
}

// bindEntry binds an EntryRequest and stores its uploads.
func bindEntry(c *gin.Context, store AttachmentStore) (services.EntryInput, error) {
	var req EntryRequest
	if err := c.ShouldBind(&req); err != nil {
		return services.EntryInput{}, bindError(err)
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		return services.EntryInput{}, err
	}
	attachments, err := storeUploads(c, store)
	if err != nil {
		return services.EntryInput{}, err
	}
	return services.EntryInput{
		BudgetItemID: req.BudgetItemID,
		Category:     req.Category,
		Amount:       req.Amount,
		Description:  req.Description,
		Date:         date,
		Attachments:  attachments,
	}, nil
}

// entryFilter reads the list query parameters shared by transactions and
// drafts.
func entryFilter(c *gin.Context) (services.TransactionFilter, error) {
	filter := services.TransactionFilter{
		Query:        c.Query("q"),
		BudgetItemID: c.Query("budget_item_id"),
		UnitID:       c.Query("unit_id"),
		BranchID:     c.Query("branch_id"),
	}

	if v := c.Query("category"); v != "" {
		category := lifecycle.Category(v)
		if !category.Valid() {
			return filter, apperrors.ErrInvalidCategory
		}
		filter.Category = category
	}

	start, err := optionalDate(c, "start_date")
	if err != nil {
		return filter, err
	}
	end, err := optionalDate(c, "end_date")
	if err != nil {
		return filter, err
	}
	if start != nil && end != nil && end.Before(*start) {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "Tanggal akhir tidak boleh sebelum tanggal awal")
	}
	filter.StartDate, filter.EndDate = start, end
	return filter, nil
}

// discardUploads removes stored files of an entry that was not persisted.
func discardUploads(store AttachmentStore, attachments []models.Attachment) {
	if len(attachments) > 0 {
		store.Remove(attachments)
	}
}
