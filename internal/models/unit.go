package models

// Unit is an operating unit. It belongs to exactly one branch and owns its
// accounts, budget items and cash movements.
type Unit struct {
	Base
	BranchID string `gorm:"type:uuid;not null;index" json:"branch_id"`
	Code     string `gorm:"size:32;not null;index" json:"code"`
	Name     string `gorm:"not null" json:"name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Branch *Branch `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
}
