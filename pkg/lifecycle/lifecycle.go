// Package lifecycle holds the petty-cash business rules shared by the API
// server and every client: the draft state machine, which roles may act on
// a draft, and when drafts and transactions may be edited or deleted.
//
// The server enforces these rules. Clients use the same functions to decide
// which actions to offer and to reject obviously invalid calls before they
// reach the network.
package lifecycle

import (
	"errors"
	"strings"
)

// Status is the approval state of a draft.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the four draft states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Category classifies a cash movement.
type Category string

const (
	// CategoryExpense is a cash outflow (pengeluaran).
	CategoryExpense Category = "pengeluaran"
	// CategoryTopUp replenishes the cash float (pengisian).
	CategoryTopUp Category = "pengisian"
	// CategoryInitial establishes the initial float (pembentukan).
	CategoryInitial Category = "pembentukan"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryExpense, CategoryTopUp, CategoryInitial:
		return true
	}
	return false
}

// IsInflow reports whether the category adds to a budget item balance.
func (c Category) IsInflow() bool {
	return c == CategoryTopUp || c == CategoryInitial
}

// Role is a user's authorization role.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleBranchAdmin Role = "admin_cabang"
	RoleUnitAdmin   Role = "admin_unit"
	RoleOfficer     Role = "petugas"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleBranchAdmin, RoleUnitAdmin, RoleOfficer:
		return true
	}
	return false
}

// IsApprover reports whether the role may approve, reject and disburse.
func (r Role) IsApprover() bool {
	return r == RoleSuperAdmin || r == RoleBranchAdmin || r == RoleUnitAdmin
}

// Action is a user operation on a draft or transaction.
type Action string

const (
	ActionCreate   Action = "create"
	ActionEdit     Action = "edit"
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionDisburse Action = "disburse"
	ActionDelete   Action = "delete"
)

var (
	ErrInvalidTransition = errors.New("lifecycle: transition not allowed from current status")
	ErrReasonRequired    = errors.New("lifecycle: rejection reason is required")
	ErrForbidden         = errors.New("lifecycle: role may not perform this action")
	ErrNotTopUp          = errors.New("lifecycle: only top-up drafts can be disbursed")
	ErrAlreadyDisbursed  = errors.New("lifecycle: draft has already been disbursed")
	ErrNotEditable       = errors.New("lifecycle: item can no longer be edited")
	ErrNotDeletable      = errors.New("lifecycle: item can no longer be deleted")
)

// Next returns the status a draft moves to when action is applied in state
// from. Only submit, approve and reject change the status.
func Next(from Status, action Action) (Status, error) {
	switch {
	case action == ActionSubmit && from == StatusDraft:
		return StatusPending, nil
	case action == ActionApprove && from == StatusPending:
		return StatusApproved, nil
	case action == ActionReject && from == StatusPending:
		return StatusRejected, nil
	}
	return from, ErrInvalidTransition
}

// ValidateRejectReason returns the trimmed reason, or ErrReasonRequired if
// nothing is left after trimming.
func ValidateRejectReason(reason string) (string, error) {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return "", ErrReasonRequired
	}
	return trimmed, nil
}

// CanPerform reports whether role may perform action at all. Scope checks
// (which branch or unit the item belongs to) happen on the server.
func CanPerform(role Role, action Action) bool {
	if !role.Valid() {
		return false
	}
	switch action {
	case ActionApprove, ActionReject, ActionDisburse:
		return role.IsApprover()
	case ActionCreate, ActionEdit, ActionSubmit, ActionDelete:
		return true
	}
	return false
}

// Item is the slice of a draft or transaction the rules look at.
type Item struct {
	IsDraft   bool
	Status    Status
	Category  Category
	Disbursed bool
	// FromDraft marks a transaction booked by approving or disbursing a draft.
	FromDraft bool
}

// CanEdit reports whether a draft in the given status may be edited.
// Editing a rejected draft sends it back to StatusDraft.
func CanEdit(status Status) error {
	if status == StatusDraft || status == StatusRejected {
		return nil
	}
	return ErrNotEditable
}

// CanDeleteDraft reports whether a draft in the given status may be deleted.
func CanDeleteDraft(status Status) error {
	if status == StatusDraft {
		return nil
	}
	return ErrNotDeletable
}

// CanDeleteTransaction reports whether a realized transaction may be deleted.
// Top-ups and initial funding represent cash that already moved, and a
// transaction booked from a draft carries an approver's decision.
func CanDeleteTransaction(item Item) error {
	if item.Category != CategoryExpense || item.FromDraft {
		return ErrNotDeletable
	}
	return nil
}

// CanDisburse reports whether the draft described by item may be released
// as cash. Only approved top-ups that were not released yet qualify.
func CanDisburse(item Item) error {
	if item.Category != CategoryTopUp {
		return ErrNotTopUp
	}
	if item.Disbursed {
		return ErrAlreadyDisbursed
	}
	if item.Status != StatusApproved {
		return ErrInvalidTransition
	}
	return nil
}

// AvailableActions lists the actions role may take on item, in display
// order. It mirrors the server rules so a UI can hide what would fail.
func AvailableActions(role Role, item Item) []Action {
	var actions []Action
	add := func(a Action, ok bool) {
		if ok && CanPerform(role, a) {
			actions = append(actions, a)
		}
	}

	if !item.IsDraft {
		add(ActionEdit, true)
		add(ActionDelete, CanDeleteTransaction(item) == nil)
		return actions
	}

	add(ActionEdit, CanEdit(item.Status) == nil)
	_, submitErr := Next(item.Status, ActionSubmit)
	add(ActionSubmit, submitErr == nil)
	_, approveErr := Next(item.Status, ActionApprove)
	add(ActionApprove, approveErr == nil)
	add(ActionReject, approveErr == nil)
	add(ActionDisburse, CanDisburse(item) == nil)
	add(ActionDelete, CanDeleteDraft(item.Status) == nil)
	return actions
}
