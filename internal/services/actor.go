package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/pkg/lifecycle"
)

// Actor is the authenticated user an operation runs on behalf of. It is
// built from the access token claims, so no database read is needed to
// decide what the user may see.
type Actor struct {
	UserID   string
	Role     lifecycle.Role
	BranchID string
	UnitID   string
}

// ActorFromUser builds the actor for a loaded user.
func ActorFromUser(u *models.User) Actor {
	a := Actor{UserID: u.ID, Role: u.Role}
	if u.BranchID != nil {
		a.BranchID = *u.BranchID
	}
	if u.UnitID != nil {
		a.UnitID = *u.UnitID
	}
	return a
}

// IsUnitScoped reports whether the actor only sees a single unit.
func (a Actor) IsUnitScoped() bool {
	return a.Role == lifecycle.RoleUnitAdmin || a.Role == lifecycle.RoleOfficer
}

// CanSeeUnit reports whether a row of the given unit and branch is visible.
func (a Actor) CanSeeUnit(branchID, unitID string) bool {
	switch a.Role {
	case lifecycle.RoleSuperAdmin:
		return true
	case lifecycle.RoleBranchAdmin:
		return a.BranchID != "" && a.BranchID == branchID
	case lifecycle.RoleUnitAdmin, lifecycle.RoleOfficer:
		return a.UnitID != "" && a.UnitID == unitID
	}
	return false
}

// CanManageUnit reports whether the actor may change master data
// (accounts, budget items) of a unit.
func (a Actor) CanManageUnit(branchID, unitID string) bool {
	if a.Role == lifecycle.RoleOfficer {
		return false
	}
	return a.CanSeeUnit(branchID, unitID)
}

// require returns ErrForbidden unless the role may perform action.
func (a Actor) require(action lifecycle.Action) error {
	if !lifecycle.CanPerform(a.Role, action) {
		return apperrors.ErrForbidden
	}
	return nil
}

// scopeBranchUnit restricts a table carrying branch_id and unit_id columns
// to the rows the actor may see.
func scopeBranchUnit(a Actor) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch a.Role {
		case lifecycle.RoleSuperAdmin:
			return db
		case lifecycle.RoleBranchAdmin:
			return db.Where("branch_id = ?", a.BranchID)
		case lifecycle.RoleUnitAdmin, lifecycle.RoleOfficer:
			return db.Where("unit_id = ?", a.UnitID)
		}
		return db.Where("1 = 0")
	}
}

// scopeUnitOwned restricts a table carrying only unit_id.
func scopeUnitOwned(a Actor) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch a.Role {
		case lifecycle.RoleSuperAdmin:
			return db
		case lifecycle.RoleBranchAdmin:
			return db.Where("unit_id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).Model(&models.Unit{}).Select("id").Where("branch_id = ?", a.BranchID))
		case lifecycle.RoleUnitAdmin, lifecycle.RoleOfficer:
			return db.Where("unit_id = ?", a.UnitID)
		}
		return db.Where("1 = 0")
	}
}

// likePattern turns a free-text search into a lowercase LIKE pattern.
func likePattern(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(q)
	return "%" + q + "%"
}

// searchCodeName applies a case-insensitive code/name search when q is set.
func searchCodeName(q string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(q) == "" {
			return db
		}
		p := likePattern(q)
		return db.Where(`(LOWER(code) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\')`, p, p)
	}
}

// notFoundOr maps gorm.ErrRecordNotFound onto the given sentinel and wraps
// everything else as an internal error.
func notFoundOr(err error, sentinel *apperrors.AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// loadUnit fetches a unit regardless of actor scope.
func loadUnit(db *gorm.DB, id string) (*models.Unit, error) {
	var unit models.Unit
	if err := db.Where("id = ?", id).First(&unit).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrUnitNotFound)
	}
	return &unit, nil
}

// countRows counts live rows of model matching the condition.
func countRows(db *gorm.DB, model interface{}, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return n, nil
}

// branchOf returns the branch of a preloaded unit, or "" when missing.
func branchOf(unit *models.Unit) string {
	if unit == nil {
		return ""
	}
	return unit.BranchID
}
