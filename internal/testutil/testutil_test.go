package testutil_test

import (
	"testing"

	"kaskecil/internal/errors"
	"kaskecil/internal/testutil"
	"kaskecil/pkg/lifecycle"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"branches", "units", "accounts", "budget_items", "users", "drafts", "transactions", "attachments", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	a := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, a)
	b := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, b)

	testutil.CreateTestBranch(t, a)

	var count int64
	b.Table("branches").Count(&count)
	if count != 0 {
		t.Errorf("second database should be empty, found %d branches", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	org := testutil.CreateTestOrg(t, db, 500000)
	if org.Unit.BranchID != org.Branch.ID {
		t.Error("unit should belong to the org branch")
	}
	if org.BudgetItem.AccountID != org.Account.ID || org.BudgetItem.UnitID != org.Unit.ID {
		t.Error("budget item should reference the org account and unit")
	}
	testutil.AssertBalance(t, db, org.BudgetItem.ID, 500000)

	officer := testutil.CreateTestUnitUser(t, db, org, lifecycle.RoleOfficer)
	if officer.ID == "" || officer.Role != lifecycle.RoleOfficer {
		t.Fatalf("unexpected officer: %+v", officer)
	}
	if officer.UnitID == nil || *officer.UnitID != org.Unit.ID {
		t.Error("officer should be scoped to the org unit")
	}

	tx := testutil.CreateTestTransaction(t, db, org, officer.ID, lifecycle.CategoryExpense, 1000)
	if tx.Amount != 1000 {
		t.Errorf("expected amount 1000, got %d", tx.Amount)
	}

	draft := testutil.CreateTestDraft(t, db, org, officer.ID, lifecycle.CategoryTopUp, 2000, lifecycle.StatusPending)
	if draft.Status != lifecycle.StatusPending || draft.SubmittedAt == nil {
		t.Errorf("pending draft should be submitted: %+v", draft)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrAccountNotFound, "custom message")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
