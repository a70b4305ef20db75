package services

import (
	"gorm.io/gorm"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
)

// attachmentService resolves attachments through their owner's scope.
type attachmentService struct {
	db *gorm.DB
}

// NewAttachmentService creates a new AttachmentServicer.
func NewAttachmentService(db *gorm.DB) AttachmentServicer {
	return &attachmentService{db: db}
}

// GetAttachment returns an attachment whose owning transaction or draft is
// visible to the actor.
func (s *attachmentService) GetAttachment(actor Actor, id string) (*models.Attachment, error) {
	var attachment models.Attachment
	if err := s.db.Where("id = ?", id).First(&attachment).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrAttachmentNotFound)
	}

	var owner interface{}
	switch attachment.OwnerType {
	case models.OwnerTransaction:
		owner = &models.Transaction{}
	case models.OwnerDraft:
		owner = &models.Draft{}
	default:
		return nil, apperrors.ErrAttachmentNotFound
	}

	n, err := countRows(s.db.Scopes(scopeBranchUnit(actor)), owner, "id = ?", attachment.OwnerID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperrors.ErrAttachmentNotFound
	}
	return &attachment, nil
}
