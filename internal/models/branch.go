package models

// Branch is a cabang, the top of the organisational tree.
type Branch struct {
	Base
	Code     string `gorm:"size:32;not null;index" json:"code"`
	Name     string `gorm:"not null" json:"name"`
	Address  string `json:"address"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Units []Unit `gorm:"foreignKey:BranchID" json:"units,omitempty"`
}
