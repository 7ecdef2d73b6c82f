package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Trend classifies the month-over-month spending change.
type Trend string

const (
	TrendIncreased Trend = "INCREASED"
	TrendDecreased Trend = "DECREASED"
	TrendStable    Trend = "STABLE"
)

// Status classifies a category's deviation from the monthly average.
type Status string

const (
	StatusHigh   Status = "HIGH"   // more than 25% above average
	StatusLow    Status = "LOW"    // more than 25% below average
	StatusNormal Status = "NORMAL"
)

// UncategorizedName is the display name used when an expense has no category.
const UncategorizedName = "Uncategorized"

// MonthlyComparison compares the current calendar month against the previous one.
type MonthlyComparison struct {
	CurrentMonthTotal  decimal.Decimal `json:"current_month_total"`
	PreviousMonthTotal decimal.Decimal `json:"previous_month_total"`
	Difference         decimal.Decimal `json:"difference"`
	PercentageChange   decimal.Decimal `json:"percentage_change"`
	Trend              Trend           `json:"trend"`
}

// CategoryInsight classifies one category against the per-category average.
type CategoryInsight struct {
	CategoryName           string          `json:"category_name"`
	CurrentAmount          decimal.Decimal `json:"current_amount"`
	AverageAmount          decimal.Decimal `json:"average_amount"`
	PercentageAboveAverage decimal.Decimal `json:"percentage_above_average"`
	Status                 Status          `json:"status"`
}

// HighestExpenseInfo describes the single largest expense on record.
type HighestExpenseInfo struct {
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Date         string          `json:"date"`
	CategoryName string          `json:"category_name"`
}

// Insights is the full analytics result for one owner.
type Insights struct {
	MonthlyComparison MonthlyComparison   `json:"monthly_comparison"`
	CategoryInsights  []CategoryInsight   `json:"category_insights"`
	HighestExpense    *HighestExpenseInfo `json:"highest_expense"`
	Summary           string              `json:"summary"`
}

// Source supplies the aggregates the engine consumes. *Aggregator implements
// it; tests substitute fakes.
type Source interface {
	MonthlyTotal(ownerID uint, month time.Month, year int) (decimal.Decimal, int64, error)
	CategoryBreakdown(ownerID uint, month time.Month, year int) ([]BreakdownEntry, error)
	HighestExpense(ownerID uint) (*ExpenseInfo, error)
}

// Engine turns raw aggregates into trend and deviation classifications.
// Now is injectable so month-boundary behavior is testable.
type Engine struct {
	src Source
	Now func() time.Time
}

func NewEngine(src Source) *Engine {
	return &Engine{src: src, Now: time.Now}
}

var hundred = decimal.NewFromInt(100)

// previousMonth resolves the calendar month preceding (month, year).
func previousMonth(month time.Month, year int) (time.Month, int) {
	if month == time.January {
		return time.December, year - 1
	}
	return month - 1, year
}

// ComputeInsights builds the insights result for ownerID relative to the
// engine's current date. It never fails for lack of data: empty months and
// empty breakdowns resolve to zero values, not errors.
func (e *Engine) ComputeInsights(ownerID uint) (*Insights, error) {
	now := e.Now()
	curMonth, curYear := now.Month(), now.Year()
	prevMonth, prevYear := previousMonth(curMonth, curYear)

	current, _, err := e.src.MonthlyTotal(ownerID, curMonth, curYear)
	if err != nil {
		return nil, fmt.Errorf("current month total: %w", err)
	}
	previous, _, err := e.src.MonthlyTotal(ownerID, prevMonth, prevYear)
	if err != nil {
		return nil, fmt.Errorf("previous month total: %w", err)
	}

	comparison := compareMonths(current, previous)

	breakdown, err := e.src.CategoryBreakdown(ownerID, curMonth, curYear)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	categoryInsights := classifyCategories(breakdown)

	highest, err := e.src.HighestExpense(ownerID)
	if err != nil {
		return nil, fmt.Errorf("highest expense: %w", err)
	}

	return &Insights{
		MonthlyComparison: comparison,
		CategoryInsights:  categoryInsights,
		HighestExpense:    highestInfo(highest),
		Summary:           buildSummary(comparison, categoryInsights),
	}, nil
}

// compareMonths computes difference and percentage change, half-up to two
// decimals. A zero previous month yields 0% rather than a division error.
func compareMonths(current, previous decimal.Decimal) MonthlyComparison {
	difference := current.Sub(previous)
	change := decimal.Zero
	if previous.IsPositive() {
		change = difference.Div(previous).Mul(hundred).Round(2)
	}
	trend := TrendStable
	switch {
	case change.IsPositive():
		trend = TrendIncreased
	case change.IsNegative():
		trend = TrendDecreased
	}
	return MonthlyComparison{
		CurrentMonthTotal:  current,
		PreviousMonthTotal: previous,
		Difference:         difference,
		PercentageChange:   change,
		Trend:              trend,
	}
}

// classifyCategories marks each category HIGH/LOW/NORMAL against the average
// spend per category. No categories yields an empty slice.
func classifyCategories(breakdown []BreakdownEntry) []CategoryInsight {
	insights := []CategoryInsight{}
	if len(breakdown) == 0 {
		return insights
	}
	total := decimal.Zero
	for _, entry := range breakdown {
		total = total.Add(entry.Total)
	}
	average := total.DivRound(decimal.NewFromInt(int64(len(breakdown))), 2)

	bound := decimal.NewFromInt(25)
	for _, entry := range breakdown {
		above := decimal.Zero
		if average.IsPositive() {
			above = entry.Total.Sub(average).Div(average).Mul(hundred).Round(2)
		}
		status := StatusNormal
		switch {
		case above.GreaterThan(bound):
			status = StatusHigh
		case above.LessThan(bound.Neg()):
			status = StatusLow
		}
		insights = append(insights, CategoryInsight{
			CategoryName:           entry.CategoryName,
			CurrentAmount:          entry.Total,
			AverageAmount:          average,
			PercentageAboveAverage: above,
			Status:                 status,
		})
	}
	return insights
}

func highestInfo(e *ExpenseInfo) *HighestExpenseInfo {
	if e == nil {
		return nil
	}
	name := e.CategoryName
	if name == "" {
		name = UncategorizedName
	}
	return &HighestExpenseInfo{
		Amount:       e.Amount,
		Description:  e.Description,
		Date:         e.Date.Format("2006-01-02"),
		CategoryName: name,
	}
}

// buildSummary concatenates the triggered clauses; no trigger yields an empty
// string, which is a valid result rather than an error.
func buildSummary(comparison MonthlyComparison, insights []CategoryInsight) string {
	var b strings.Builder
	ten := decimal.NewFromInt(10)
	if comparison.PercentageChange.GreaterThan(ten) {
		fmt.Fprintf(&b, "Your spending increased by %s%% compared to last month. ",
			comparison.PercentageChange.Abs().StringFixed(1))
	} else if comparison.PercentageChange.LessThan(ten.Neg()) {
		fmt.Fprintf(&b, "Great job! Your spending decreased by %s%% compared to last month. ",
			comparison.PercentageChange.Abs().StringFixed(1))
	}
	high := 0
	for _, in := range insights {
		if in.Status == StatusHigh {
			high++
		}
	}
	if high > 0 {
		fmt.Fprintf(&b, "%d category(ies) exceeded average spending by more than 25%%. ", high)
	}
	return strings.TrimSpace(b.String())
}
