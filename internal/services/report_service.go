package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "kaskecil/internal/errors"
	"kaskecil/internal/models"
	"kaskecil/pkg/lifecycle"
)

// signedAmount is the balance effect of a transaction row.
const signedAmount = "CASE WHEN category = 'pengeluaran' THEN -amount ELSE amount END"

// reportService computes dashboard figures and transaction reports.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

type categoryTotal struct {
	Category lifecycle.Category
	Total    int64
}

// Dashboard summarizes balances, period totals per category and the
// drafts waiting for a decision or for cairkan. A zero start or end falls
// back to the current month.
func (s *reportService) Dashboard(actor Actor, start, end time.Time) (*Dashboard, error) {
	start, end = periodOrCurrentMonth(start, end)
	if end.Before(start) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Tanggal akhir tidak boleh sebelum tanggal awal")
	}

	d := &Dashboard{PeriodStart: start, PeriodEnd: end, BudgetItems: []BudgetItemBalance{}}

	if err := s.db.Model(&models.BudgetItem{}).Scopes(scopeUnitOwned(actor)).
		Select("id, unit_id, code, name, balance").
		Order("code ASC").
		Scan(&d.BudgetItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, item := range d.BudgetItems {
		d.TotalBalance += item.Balance
	}

	var totals []categoryTotal
	if err := s.db.Model(&models.Transaction{}).Scopes(scopeBranchUnit(actor)).
		Select("category, COALESCE(SUM(amount), 0) AS total").
		Where("date >= ? AND date < ?", start, nextDay(end)).
		Group("category").
		Scan(&totals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, t := range totals {
		switch t.Category {
		case lifecycle.CategoryExpense:
			d.TotalExpense = t.Total
		case lifecycle.CategoryTopUp:
			d.TotalTopUp = t.Total
		case lifecycle.CategoryInitial:
			d.TotalInitial = t.Total
		}
	}

	if err := s.db.Model(&models.Draft{}).Scopes(scopeBranchUnit(actor)).
		Where("status = ?", lifecycle.StatusPending).
		Count(&d.PendingDrafts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&models.Draft{}).Scopes(scopeBranchUnit(actor), undisbursedTopUps).
		Count(&d.UndisbursedTopUps).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return d, nil
}

// TransactionReport lists the transactions between filter.Start and
// filter.End in booking order with the running balance after each one.
// The opening balance is the net of everything booked before Start.
func (s *reportService) TransactionReport(actor Actor, filter ReportFilter) (*TransactionReport, error) {
	if filter.Start.IsZero() || filter.End.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Periode laporan wajib diisi")
	}
	start, end := startOfDay(filter.Start), startOfDay(filter.End)
	if end.Before(start) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Tanggal akhir tidak boleh sebelum tanggal awal")
	}

	scoped := func() *gorm.DB {
		return s.db.Model(&models.Transaction{}).Scopes(scopeBranchUnit(actor), entryFilters(TransactionFilter{
			BranchID:     filter.BranchID,
			UnitID:       filter.UnitID,
			BudgetItemID: filter.BudgetItemID,
		}))
	}

	report := &TransactionReport{Start: start, End: end, Rows: []ReportRow{}}

	if err := scoped().
		Select("COALESCE(SUM("+signedAmount+"), 0)").
		Where("date < ?", start).
		Scan(&report.OpeningBalance).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := scoped().
		Preload("BudgetItem").
		Where("date >= ? AND date < ?", start, nextDay(end)).
		Order("date ASC").Order("created_at ASC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	balance := report.OpeningBalance
	for _, t := range transactions {
		row := ReportRow{
			Date:          t.Date,
			TransactionID: t.ID,
			Category:      t.Category,
			Description:   t.Description,
		}
		if t.BudgetItem != nil {
			row.BudgetItemCode = t.BudgetItem.Code
			row.BudgetItemName = t.BudgetItem.Name
		}
		if t.Category.IsInflow() {
			row.In = t.Amount
			report.TotalIn += t.Amount
			balance += t.Amount
		} else {
			row.Out = t.Amount
			report.TotalOut += t.Amount
			balance -= t.Amount
		}
		row.Balance = balance
		report.Rows = append(report.Rows, row)
	}
	report.ClosingBalance = balance

	return report, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nextDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1)
}

// periodOrCurrentMonth fills a missing bound from the current month.
func periodOrCurrentMonth(start, end time.Time) (time.Time, time.Time) {
	now := time.Now().UTC()
	if start.IsZero() {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if end.IsZero() {
		end = time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return startOfDay(start), startOfDay(end)
}
