package models

import (
	"time"

	"kaskecil/pkg/lifecycle"
)

// Draft is a proposed transaction moving through the approval workflow.
// Approval promotes an expense into a Transaction; a top-up (pengisian)
// waits for disbursement (cairkan) before it becomes one.
type Draft struct {
	Base
	BranchID     string             `gorm:"type:uuid;not null;index" json:"branch_id"`
	UnitID       string             `gorm:"type:uuid;not null;index" json:"unit_id"`
	BudgetItemID string             `gorm:"type:uuid;not null;index" json:"budget_item_id"`
	Category     lifecycle.Category `gorm:"size:20;not null;index" json:"category"`
	Amount       int64              `gorm:"type:bigint;not null" json:"amount"`
	Description  string             `json:"description"`
	Date         time.Time          `gorm:"not null;index" json:"date"`
	CreatedBy    string             `gorm:"type:uuid;not null" json:"created_by"`

	Status       lifecycle.Status `gorm:"size:20;not null;default:'draft';index" json:"status"`
	ApprovalNote string           `json:"catatan_approval"`
	SubmittedAt  *time.Time       `json:"submitted_at,omitempty"`
	ApprovedBy   *string          `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt   *time.Time       `json:"approved_at,omitempty"`
	RejectedBy   *string          `gorm:"type:uuid" json:"rejected_by,omitempty"`
	RejectedAt   *time.Time       `json:"rejected_at,omitempty"`
	DisbursedBy  *string          `gorm:"type:uuid" json:"disbursed_by,omitempty"`
	DisbursedAt  *time.Time       `gorm:"index" json:"disbursed_at,omitempty"`

	// The transaction this draft became, once realized
	TransactionID *string `gorm:"type:uuid" json:"transaction_id,omitempty"`

	BudgetItem  *BudgetItem  `gorm:"foreignKey:BudgetItemID" json:"budget_item,omitempty"`
	Unit        *Unit        `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	Attachments []Attachment `gorm:"polymorphic:Owner;polymorphicValue:draft" json:"attachments"`
}

// LifecycleItem returns the view of d the lifecycle rules operate on.
func (d *Draft) LifecycleItem() lifecycle.Item {
	return lifecycle.Item{
		IsDraft:   true,
		Status:    d.Status,
		Category:  d.Category,
		Disbursed: d.DisbursedAt != nil,
	}
}
