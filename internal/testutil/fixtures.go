package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"kaskecil/internal/models"
	"kaskecil/pkg/lifecycle"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Org is a branch with one unit, one account and one budget item.
type Org struct {
	Branch     *models.Branch
	Unit       *models.Unit
	Account    *models.Account
	BudgetItem *models.BudgetItem
}

// CreateTestOrg creates a complete branch → unit → account → budget item
// chain. The budget item starts with the given balance.
func CreateTestOrg(t *testing.T, db *gorm.DB, balance int64) *Org {
	t.Helper()

	branch := CreateTestBranch(t, db)
	unit := CreateTestUnit(t, db, branch.ID)
	account := CreateTestAccount(t, db, unit.ID)
	item := CreateTestBudgetItem(t, db, unit.ID, account.ID, balance)
	return &Org{Branch: branch, Unit: unit, Account: account, BudgetItem: item}
}

// CreateTestBranch creates an active branch with a unique code.
func CreateTestBranch(t *testing.T, db *gorm.DB) *models.Branch {
	t.Helper()

	n := nextID()
	branch := &models.Branch{
		Code:     fmt.Sprintf("CBG-%03d", n),
		Name:     fmt.Sprintf("Cabang %d", n),
		IsActive: true,
	}
	if err := db.Create(branch).Error; err != nil {
		t.Fatalf("failed to create test branch: %v", err)
	}
	return branch
}

// CreateTestUnit creates an active unit in the given branch.
func CreateTestUnit(t *testing.T, db *gorm.DB, branchID string) *models.Unit {
	t.Helper()

	n := nextID()
	unit := &models.Unit{
		BranchID: branchID,
		Code:     fmt.Sprintf("UNT-%03d", n),
		Name:     fmt.Sprintf("Unit %d", n),
		IsActive: true,
	}
	if err := db.Create(unit).Error; err != nil {
		t.Fatalf("failed to create test unit: %v", err)
	}
	return unit
}

// CreateTestAccount creates an active debit Akun AAS in the given unit.
func CreateTestAccount(t *testing.T, db *gorm.DB, unitID string) *models.Account {
	t.Helper()

	n := nextID()
	account := &models.Account{
		UnitID:   unitID,
		Code:     fmt.Sprintf("5.1.%03d", n),
		Name:     fmt.Sprintf("Beban Operasional %d", n),
		Type:     models.AccountTypeDebit,
		IsActive: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestBudgetItem creates a budget item with the given balance (in rupiah).
func CreateTestBudgetItem(t *testing.T, db *gorm.DB, unitID, accountID string, balance int64) *models.BudgetItem {
	t.Helper()

	n := nextID()
	item := &models.BudgetItem{
		UnitID:    unitID,
		AccountID: accountID,
		Code:      fmt.Sprintf("MA-%03d", n),
		Name:      fmt.Sprintf("Mata Anggaran %d", n),
		Balance:   balance,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test budget item: %v", err)
	}
	return item
}

// CreateTestUser creates a super admin with a unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, lifecycle.RoleSuperAdmin, nil, nil)
}

// CreateTestUserWithEmail creates a super admin with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	return createUser(t, db, email, lifecycle.RoleSuperAdmin, nil, nil)
}

// CreateTestUserWithRole creates a user with the given role and scope.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, role lifecycle.Role, branchID, unitID *string) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return createUser(t, db, email, role, branchID, unitID)
}

// CreateTestUnitUser creates a user of role scoped to the org's unit.
func CreateTestUnitUser(t *testing.T, db *gorm.DB, org *Org, role lifecycle.Role) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, role, &org.Branch.ID, &org.Unit.ID)
}

func createUser(t *testing.T, db *gorm.DB, email string, role lifecycle.Role, branchID, unitID *string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Name:     "Test User",
		Role:     role,
		BranchID: branchID,
		UnitID:   unitID,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestTransaction inserts a transaction row directly, without touching
// the budget item balance.
func CreateTestTransaction(t *testing.T, db *gorm.DB, org *Org, createdBy string, category lifecycle.Category, amount int64) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		BranchID:     org.Branch.ID,
		UnitID:       org.Unit.ID,
		BudgetItemID: org.BudgetItem.ID,
		Category:     category,
		Amount:       amount,
		Description:  fmt.Sprintf("Transaksi %d", nextID()),
		Date:         time.Now().UTC(),
		CreatedBy:    createdBy,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestDraft inserts a draft in the given status.
func CreateTestDraft(t *testing.T, db *gorm.DB, org *Org, createdBy string, category lifecycle.Category, amount int64, status lifecycle.Status) *models.Draft {
	t.Helper()

	draft := &models.Draft{
		BranchID:     org.Branch.ID,
		UnitID:       org.Unit.ID,
		BudgetItemID: org.BudgetItem.ID,
		Category:     category,
		Amount:       amount,
		Description:  fmt.Sprintf("Draft %d", nextID()),
		Date:         time.Now().UTC(),
		CreatedBy:    createdBy,
		Status:       status,
	}
	if status != lifecycle.StatusDraft {
		now := time.Now()
		draft.SubmittedAt = &now
	}
	if err := db.Create(draft).Error; err != nil {
		t.Fatalf("failed to create test draft: %v", err)
	}
	return draft
}
