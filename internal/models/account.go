package models

// AccountType is the normal side of an Akun AAS ledger account.
type AccountType string

const (
	AccountTypeDebit  AccountType = "debit"
	AccountTypeCredit AccountType = "kredit"
)

// Account is an Akun AAS: a ledger account a unit books budget items against.
type Account struct {
	Base
	UnitID      string      `gorm:"type:uuid;not null;index" json:"unit_id"`
	Code        string      `gorm:"size:32;not null;index" json:"code"`
	Name        string      `gorm:"not null" json:"name"`
	Type        AccountType `gorm:"size:10;not null" json:"type"`
	Description string      `json:"description"`
	IsActive    bool        `gorm:"default:true" json:"is_active"`

	Unit *Unit `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
}
