package models

import (
	"time"

	"kaskecil/pkg/lifecycle"
)

// User represents the user model in the database
type User struct {
	Base
	Email               string         `gorm:"uniqueIndex;not null" json:"email"`
	Password            string         `gorm:"not null" json:"-"`
	Name                string         `gorm:"not null" json:"name"`
	Role                lifecycle.Role `gorm:"size:20;not null" json:"role"`
	BranchID            *string        `gorm:"type:uuid;index" json:"branch_id,omitempty"`
	UnitID              *string        `gorm:"type:uuid;index" json:"unit_id,omitempty"`
	IsActive            bool           `gorm:"default:true" json:"is_active"`
	RefreshTokenHash    string         `gorm:"size:64" json:"-"`
	FailedLoginAttempts int            `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time     `json:"-"`
	LastLoginAt         *time.Time     `json:"last_login_at,omitempty"`

	Branch *Branch `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	Unit   *Unit   `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
}
