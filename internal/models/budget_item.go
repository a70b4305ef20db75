package models

// BudgetItem is a mata anggaran. Balance is the running petty-cash balance
// in rupiah, moved only by transactions.
type BudgetItem struct {
	Base
	UnitID      string `gorm:"type:uuid;not null;index" json:"unit_id"`
	AccountID   string `gorm:"type:uuid;not null;index" json:"account_id"`
	Code        string `gorm:"size:32;not null;index" json:"code"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Balance     int64  `gorm:"type:bigint;not null;default:0" json:"balance"`

	Unit    *Unit    `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	Account *Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}
