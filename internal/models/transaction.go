package models

import (
	"time"

	"kaskecil/pkg/lifecycle"
)

// Transaction is a realized cash movement against a budget item.
type Transaction struct {
	Base
	BranchID     string             `gorm:"type:uuid;not null;index" json:"branch_id"`
	UnitID       string             `gorm:"type:uuid;not null;index" json:"unit_id"`
	BudgetItemID string             `gorm:"type:uuid;not null;index" json:"budget_item_id"`
	Category     lifecycle.Category `gorm:"size:20;not null;index" json:"category"`
	Amount       int64              `gorm:"type:bigint;not null" json:"amount"`
	Description  string             `json:"description"`
	Date         time.Time          `gorm:"not null;index" json:"date"`
	CreatedBy    string             `gorm:"type:uuid;not null" json:"created_by"`

	// Set when the transaction was promoted from an approved or disbursed draft
	DraftID *string `gorm:"type:uuid;index" json:"draft_id,omitempty"`

	BudgetItem  *BudgetItem  `gorm:"foreignKey:BudgetItemID" json:"budget_item,omitempty"`
	Unit        *Unit        `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	Attachments []Attachment `gorm:"polymorphic:Owner;polymorphicValue:transaction" json:"attachments"`
}

// LifecycleItem returns the view of t the lifecycle rules operate on.
func (t *Transaction) LifecycleItem() lifecycle.Item {
	return lifecycle.Item{Category: t.Category, FromDraft: t.DraftID != nil}
}
