package services

import (
	"time"

	"gorm.io/gorm"

	"kaskecil/internal/models"
	"kaskecil/internal/pagination"
	"kaskecil/pkg/lifecycle"
)

// UserInput holds the fields for creating a user.
type UserInput struct {
	Email    string
	Password string
	Name     string
	Role     lifecycle.Role
	BranchID *string
	UnitID   *string
}

// UserUpdate holds optional user fields; nil means unchanged.
type UserUpdate struct {
	Name     *string
	Role     *lifecycle.Role
	BranchID *string
	UnitID   *string
	IsActive *bool
	Password *string
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	AttemptLogin(email, password string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	ClearRefreshTokenHash(userID string) error
	ChangePassword(userID, oldPassword, newPassword string) error

	CreateUser(actor Actor, input UserInput) (*models.User, error)
	ListUsers(actor Actor, filter MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	GetUser(actor Actor, id string) (*models.User, error)
	UpdateUser(actor Actor, id string, input UserUpdate) (*models.User, error)
	DeleteUser(actor Actor, id string) error
}

// MasterFilter holds optional filters shared by the master-data lists.
// Query matches code or name, case-insensitively.
type MasterFilter struct {
	Query     string
	BranchID  string
	UnitID    string
	AccountID string
	IsActive  *bool
}

// BranchInput holds the fields for creating or updating a branch.
type BranchInput struct {
	Code     *string
	Name     *string
	Address  *string
	IsActive *bool
}

// BranchServicer defines the contract for branch (cabang) management.
type BranchServicer interface {
	CreateBranch(actor Actor, input BranchInput) (*models.Branch, error)
	ListBranches(actor Actor, filter MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Branch], error)
	GetBranch(actor Actor, id string) (*models.Branch, error)
	UpdateBranch(actor Actor, id string, input BranchInput) (*models.Branch, error)
	DeleteBranch(actor Actor, id string) error
}

// UnitInput holds the fields for creating or updating a unit.
type UnitInput struct {
	BranchID *string
	Code     *string
	Name     *string
	IsActive *bool
}

// UnitServicer defines the contract for unit management.
type UnitServicer interface {
	CreateUnit(actor Actor, input UnitInput) (*models.Unit, error)
	ListUnits(actor Actor, filter MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Unit], error)
	GetUnit(actor Actor, id string) (*models.Unit, error)
	UpdateUnit(actor Actor, id string, input UnitInput) (*models.Unit, error)
	DeleteUnit(actor Actor, id string) error
}

// AccountInput holds the fields for creating or updating an Akun AAS.
type AccountInput struct {
	UnitID      *string
	Code        *string
	Name        *string
	Type        *models.AccountType
	Description *string
	IsActive    *bool
}

// AccountServicer defines the contract for Akun AAS management.
type AccountServicer interface {
	CreateAccount(actor Actor, input AccountInput) (*models.Account, error)
	ListAccounts(actor Actor, filter MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccount(actor Actor, id string) (*models.Account, error)
	UpdateAccount(actor Actor, id string, input AccountInput) (*models.Account, error)
	DeleteAccount(actor Actor, id string) error
}

// BudgetItemInput holds the fields for creating or updating a budget item.
type BudgetItemInput struct {
	UnitID      *string
	AccountID   *string
	Code        *string
	Name        *string
	Description *string
}

// BudgetItemServicer defines the contract for budget item (mata anggaran)
// management and balance bookkeeping.
type BudgetItemServicer interface {
	CreateBudgetItem(actor Actor, input BudgetItemInput) (*models.BudgetItem, error)
	ListBudgetItems(actor Actor, filter MasterFilter, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetItem], error)
	GetBudgetItem(actor Actor, id string) (*models.BudgetItem, error)
	UpdateBudgetItem(actor Actor, id string, input BudgetItemInput) (*models.BudgetItem, error)
	DeleteBudgetItem(actor Actor, id string) error
	ApplyBalance(tx *gorm.DB, budgetItemID string, category lifecycle.Category, amount int64) error
	RevertBalance(tx *gorm.DB, budgetItemID string, category lifecycle.Category, amount int64) error
}

// TransactionFilter holds optional filter parameters for listing
// transactions and drafts. Query matches the description or the budget
// item code.
type TransactionFilter struct {
	Query        string
	Category     lifecycle.Category
	BudgetItemID string
	UnitID       string
	BranchID     string
	StartDate    *time.Time
	EndDate      *time.Time
}

// EntryInput holds the fields of a new transaction or draft. Attachments
// are already stored files whose rows are saved with the entry.
type EntryInput struct {
	BudgetItemID string
	Category     lifecycle.Category
	Amount       int64
	Description  string
	Date         time.Time
	Attachments  []models.Attachment
}

// TransactionUpdate holds the mutable fields of a realized transaction.
type TransactionUpdate struct {
	Description *string
	Date        *time.Time
	Attachments []models.Attachment
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(actor Actor, input EntryInput) (*models.Transaction, error)
	ListTransactions(actor Actor, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	GetTransaction(actor Actor, id string) (*models.Transaction, error)
	UpdateTransaction(actor Actor, id string, input TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(actor Actor, id string) error
}

// DraftFilter extends TransactionFilter with the draft workflow axes.
// Undisbursed selects approved top-ups that were not released yet.
type DraftFilter struct {
	TransactionFilter
	Status      lifecycle.Status
	Undisbursed bool
}

// DraftUpdate holds optional draft fields; nil means unchanged.
type DraftUpdate struct {
	BudgetItemID *string
	Category     *lifecycle.Category
	Amount       *int64
	Description  *string
	Date         *time.Time
	Attachments  []models.Attachment
}

// DraftServicer defines the contract for the draft approval workflow.
type DraftServicer interface {
	CreateDraft(actor Actor, input EntryInput) (*models.Draft, error)
	ListDrafts(actor Actor, filter DraftFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Draft], error)
	GetDraft(actor Actor, id string) (*models.Draft, error)
	UpdateDraft(actor Actor, id string, input DraftUpdate) (*models.Draft, error)
	DeleteDraft(actor Actor, id string) error
	SubmitDraft(actor Actor, id string) (*models.Draft, error)
	ApproveDraft(actor Actor, id, note string) (*models.Draft, error)
	RejectDraft(actor Actor, id, reason string) (*models.Draft, error)
	DisburseDraft(actor Actor, id string) (*models.Draft, error)
}

// BudgetItemBalance is one row of the dashboard balance table.
type BudgetItemBalance struct {
	ID      string `json:"id"`
	UnitID  string `json:"unit_id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

// Dashboard summarizes the petty cash visible to an actor over a period.
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

// ReportFilter selects the transactions of a report. Start and End are
// inclusive calendar days.
type ReportFilter struct {
	Start        time.Time
	End          time.Time
	BranchID     string
	UnitID       string
	BudgetItemID string
}

// ReportRow is one transaction line with the balance after it.
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

// TransactionReport is a ledger of transactions with running balance.
type TransactionReport struct {
	Start          time.Time   `json:"start_date"`
	End            time.Time   `json:"end_date"`
	OpeningBalance int64       `json:"opening_balance"`
	TotalIn        int64       `json:"total_in"`
	TotalOut       int64       `json:"total_out"`
	ClosingBalance int64       `json:"closing_balance"`
	Rows           []ReportRow `json:"rows"`
}

// ReportServicer defines the contract for dashboard and report queries.
type ReportServicer interface {
	Dashboard(actor Actor, start, end time.Time) (*Dashboard, error)
	TransactionReport(actor Actor, filter ReportFilter) (*TransactionReport, error)
}

// AttachmentServicer defines the contract for reading stored attachments.
type AttachmentServicer interface {
	GetAttachment(actor Actor, id string) (*models.Attachment, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
