package client

import (
	"time"

	"kaskecil/pkg/lifecycle"
)

// User is an authenticated user as returned by the API.
type User struct {
	ID       string         `json:"id" yaml:"id"`
	Email    string         `json:"email" yaml:"email"`
	Name     string         `json:"name" yaml:"name"`
	Role     lifecycle.Role `json:"role" yaml:"role"`
	BranchID *string        `json:"branch_id,omitempty" yaml:"branch_id,omitempty"`
	UnitID   *string        `json:"unit_id,omitempty" yaml:"unit_id,omitempty"`
	IsActive bool           `json:"is_active" yaml:"is_active"`
}

// Branch is a cabang.
type Branch struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	IsActive bool   `json:"is_active"`
}

// Unit is an operating unit of a branch.
type Unit struct {
	ID       string `json:"id"`
	BranchID string `json:"branch_id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// Account is an Akun AAS.
type Account struct {
	ID          string `json:"id"`
	UnitID      string `json:"unit_id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// BudgetItem is a mata anggaran with its running balance.
type BudgetItem struct {
	ID          string `json:"id"`
	UnitID      string `json:"unit_id"`
	AccountID   string `json:"account_id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Balance     int64  `json:"balance"`
}

// Attachment is the metadata of a stored lampiran.
type Attachment struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Checksum    string `json:"checksum"`
}

// Transaction is a realized cash movement.
type Transaction struct {
	ID           string             `json:"id"`
	BranchID     string             `json:"branch_id"`
	UnitID       string             `json:"unit_id"`
	BudgetItemID string             `json:"budget_item_id"`
	Category     lifecycle.Category `json:"category"`
	Amount       int64              `json:"amount"`
	Description  string             `json:"description"`
	Date         time.Time          `json:"date"`
	CreatedBy    string             `json:"created_by"`
	CreatedAt    time.Time          `json:"created_at"`
	DraftID      *string            `json:"draft_id,omitempty"`
	BudgetItem   *BudgetItem        `json:"budget_item,omitempty"`
	Attachments  []Attachment       `json:"attachments"`
}

// Draft is a proposed transaction in the approval workflow.
type Draft struct {
	ID            string             `json:"id"`
	BranchID      string             `json:"branch_id"`
	UnitID        string             `json:"unit_id"`
	BudgetItemID  string             `json:"budget_item_id"`
	Category      lifecycle.Category `json:"category"`
	Amount        int64              `json:"amount"`
	Description   string             `json:"description"`
	Date          time.Time          `json:"date"`
	CreatedBy     string             `json:"created_by"`
	CreatedAt     time.Time          `json:"created_at"`
	Status        lifecycle.Status   `json:"status"`
	ApprovalNote  string             `json:"catatan_approval"`
	SubmittedAt   *time.Time         `json:"submitted_at,omitempty"`
	ApprovedAt    *time.Time         `json:"approved_at,omitempty"`
	RejectedAt    *time.Time         `json:"rejected_at,omitempty"`
	DisbursedAt   *time.Time         `json:"disbursed_at,omitempty"`
	TransactionID *string            `json:"transaction_id,omitempty"`
	BudgetItem    *BudgetItem        `json:"budget_item,omitempty"`
	Attachments   []Attachment       `json:"attachments"`
}

// LifecycleItem returns the view of d the lifecycle rules operate on.
func (d Draft) LifecycleItem() lifecycle.Item {
	return lifecycle.Item{IsDraft: true, Status: d.Status, Category: d.Category, Disbursed: d.DisbursedAt != nil}
}

// Meta is the pagination block of a list response.
type Meta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

// Links holds the neighbouring page URLs, nil at either end.
type Links struct {
	Prev *string `json:"prev"`
	Next *string `json:"next"`
}

// Page is one page of a list endpoint.
type Page[T any] struct {
	Data  []T   `json:"data"`
	Meta  *Meta `json:"meta"`
	Links Links `json:"links"`
}

// HasNext reports whether a later page exists.
func (p *Page[T]) HasNext() bool {
	return p.Meta != nil && p.Meta.CurrentPage < p.Meta.LastPage
}

// BudgetItemBalance is one row of the dashboard balance table.
type BudgetItemBalance struct {
	ID      string `json:"id"`
	UnitID  string `json:"unit_id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

// Dashboard summarizes the visible petty cash over a period.
type Dashboard struct {
	PeriodStart       time.Time           `json:"period_start"`
	PeriodEnd         time.Time           `json:"period_end"`
	TotalBalance      int64               `json:"total_balance"`
	TotalExpense      int64               `json:"total_pengeluaran"`
	TotalTopUp        int64               `json:"total_pengisian"`
	TotalInitial      int64               `json:"total_pembentukan"`
	PendingDrafts     int64               `json:"pending_drafts"`
	UndisbursedTopUps int64               `json:"belum_cair"`
	BudgetItems       []BudgetItemBalance `json:"budget_items"`
}

// ReportRow is one ledger line of a transaction report.
type ReportRow struct {
	Date           time.Time          `json:"date"`
	TransactionID  string             `json:"transaction_id"`
	BudgetItemCode string             `json:"budget_item_code"`
	BudgetItemName string             `json:"budget_item_name"`
	Category       lifecycle.Category `json:"category"`
	Description    string             `json:"description"`
	In             int64              `json:"debit"`
	Out            int64              `json:"kredit"`
	Balance        int64              `json:"saldo"`
}

// TransactionReport is the ledger of a period.
type TransactionReport struct {
	Start          time.Time   `json:"start_date"`
	End            time.Time   `json:"end_date"`
	OpeningBalance int64       `json:"opening_balance"`
	TotalIn        int64       `json:"total_in"`
	TotalOut       int64       `json:"total_out"`
	ClosingBalance int64       `json:"closing_balance"`
	Rows           []ReportRow `json:"rows"`
}

// EntryInput is the body of a new transaction or draft.
type EntryInput struct {
	BudgetItemID string             `json:"budget_item_id"`
	Category     lifecycle.Category `json:"category"`
	Amount       int64              `json:"amount"`
	Description  string             `json:"description,omitempty"`
	Date         string             `json:"date,omitempty"`
}

// DraftUpdate holds the draft fields to change; nil fields are left alone.
type DraftUpdate struct {
	BudgetItemID *string             `json:"budget_item_id,omitempty"`
	Category     *lifecycle.Category `json:"category,omitempty"`
	Amount       *int64              `json:"amount,omitempty"`
	Description  *string             `json:"description,omitempty"`
	Date         *string             `json:"date,omitempty"`
}

// TransactionUpdate holds the mutable fields of a transaction.
type TransactionUpdate struct {
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
}

// BranchInput creates or updates a branch.
type BranchInput struct {
	Code     *string `json:"code,omitempty"`
	Name     *string `json:"name,omitempty"`
	Address  *string `json:"address,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// UnitInput creates or updates a unit.
type UnitInput struct {
	BranchID *string `json:"branch_id,omitempty"`
	Code     *string `json:"code,omitempty"`
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// AccountInput creates or updates an Akun AAS.
type AccountInput struct {
	UnitID      *string `json:"unit_id,omitempty"`
	Code        *string `json:"code,omitempty"`
	Name        *string `json:"name,omitempty"`
	Type        *string `json:"type,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// BudgetItemInput creates or updates a mata anggaran.
type BudgetItemInput struct {
	UnitID      *string `json:"unit_id,omitempty"`
	AccountID   *string `json:"account_id,omitempty"`
	Code        *string `json:"code,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// UserInput creates or updates a user.
type UserInput struct {
	Email    *string         `json:"email,omitempty"`
	Password *string         `json:"password,omitempty"`
	Name     *string         `json:"name,omitempty"`
	Role     *lifecycle.Role `json:"role,omitempty"`
	BranchID *string         `json:"branch_id,omitempty"`
	UnitID   *string         `json:"unit_id,omitempty"`
	IsActive *bool           `json:"is_active,omitempty"`
}
