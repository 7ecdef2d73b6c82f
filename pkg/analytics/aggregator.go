package analytics

import (
	"errors"
	"sort"
	"time"

	"spendtrack/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BreakdownEntry is one category's share of a month, grouped by category name.
type BreakdownEntry struct {
	CategoryName string          `json:"category_name"`
	Total        decimal.Decimal `json:"total"`
}

// DailyPoint is the summed spending of one calendar day.
type DailyPoint struct {
	Date  time.Time       `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// ExpenseInfo is a read-only snapshot of a single expense record.
type ExpenseInfo struct {
	ID           uint            `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Date         time.Time       `json:"date"`
	CategoryName string          `json:"category_name"` // empty when uncategorized
}

// Aggregator answers the read-only aggregation queries over expense records.
// Every query is owner-scoped and excludes soft-deleted rows.
type Aggregator struct {
	db *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// monthWindow returns the half-open [start, end) range covering one calendar month.
func monthWindow(month time.Month, year int) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// MonthlyTotal sums the owner's expenses in the given month. A month with no
// matching rows yields (0, 0), never an error.
func (a *Aggregator) MonthlyTotal(ownerID uint, month time.Month, year int) (decimal.Decimal, int64, error) {
	start, end := monthWindow(month, year)
	var row struct {
		Total decimal.Decimal
		N     int64
	}
	err := a.db.Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS n").
		Where("user_id = ? AND deleted = false AND date >= ? AND date < ?", ownerID, start, end).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	return row.Total, row.N, nil
}

// CategoryMonthlyTotal sums one category's expenses in the given month.
// Used by the budget alert evaluator.
func (a *Aggregator) CategoryMonthlyTotal(ownerID, categoryID uint, month time.Month, year int) (decimal.Decimal, error) {
	start, end := monthWindow(month, year)
	var row struct {
		Total decimal.Decimal
	}
	err := a.db.Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND category_id = ? AND deleted = false AND date >= ? AND date < ?",
			ownerID, categoryID, start, end).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

// CategoryBreakdown groups the month's expenses by category name, descending
// by sum with ties broken by name. The inner join drops uncategorized rows:
// expenses without a category never appear in the breakdown.
func (a *Aggregator) CategoryBreakdown(ownerID uint, month time.Month, year int) ([]BreakdownEntry, error) {
	start, end := monthWindow(month, year)
	rows, err := a.db.Model(&models.Expense{}).
		Select("categories.name AS name, SUM(expenses.amount) AS total").
		Joins("JOIN categories ON categories.id = expenses.category_id").
		Where("expenses.user_id = ? AND expenses.deleted = false AND expenses.date >= ? AND expenses.date < ?",
			ownerID, start, end).
		Group("categories.name").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []BreakdownEntry{}
	for rows.Next() {
		var e BreakdownEntry
		if err := rows.Scan(&e.CategoryName, &e.Total); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	SortBreakdown(entries)
	return entries, nil
}

// SortBreakdown orders entries descending by total, ties broken by category
// name ascending, so repeated calls always produce the same output.
func SortBreakdown(entries []BreakdownEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Total.Equal(entries[j].Total) {
			return entries[i].Total.GreaterThan(entries[j].Total)
		}
		return entries[i].CategoryName < entries[j].CategoryName
	})
}

// DailyTrend groups the month's expenses by calendar date, ascending. Days
// with no expenses are omitted; callers needing a full calendar fill gaps.
func (a *Aggregator) DailyTrend(ownerID uint, month time.Month, year int) ([]DailyPoint, error) {
	start, end := monthWindow(month, year)
	rows, err := a.db.Model(&models.Expense{}).
		Select("date, SUM(amount) AS total").
		Where("user_id = ? AND deleted = false AND date >= ? AND date < ?", ownerID, start, end).
		Group("date").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []DailyPoint{}
	for rows.Next() {
		var p DailyPoint
		if err := rows.Scan(&p.Date, &p.Total); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// HighestExpense returns the owner's single largest expense across all time,
// or nil when the owner has no expenses. Ties are broken deterministically:
// most recent date first, then smallest id.
func (a *Aggregator) HighestExpense(ownerID uint) (*ExpenseInfo, error) {
	var e models.Expense
	err := a.db.Preload("Category").
		Where("user_id = ? AND deleted = false", ownerID).
		Order("amount DESC").Order("date DESC").Order("id ASC").
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	info := &ExpenseInfo{
		ID:          e.ID,
		Amount:      e.Amount,
		Description: e.Description,
		Date:        e.Date,
	}
	if e.Category != nil {
		info.CategoryName = e.Category.Name
	}
	return info, nil
}
