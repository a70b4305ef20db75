package models

// Attachment owner types.
const (
	OwnerTransaction = "transaction"
	OwnerDraft       = "draft"
)

// MaxAttachments is the most attachments a transaction or draft may carry.
const MaxAttachments = 3

// Attachment is a lampiran: a receipt image or PDF stored on disk.
type Attachment struct {
	Base
	OwnerType   string `gorm:"size:20;not null;index:idx_attachments_owner" json:"owner_type"`
	OwnerID     string `gorm:"type:uuid;not null;index:idx_attachments_owner" json:"owner_id"`
	FileName    string `gorm:"not null" json:"file_name"`
	ContentType string `gorm:"size:100;not null" json:"content_type"`
	Size        int64  `gorm:"not null" json:"size"`
	Path        string `gorm:"not null" json:"-"`
	Checksum    string `gorm:"size:64;not null" json:"checksum"`
}
