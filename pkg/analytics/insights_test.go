package analytics

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type fakeSource struct {
	totals    map[string]decimal.Decimal
	breakdown []BreakdownEntry
	highest   *ExpenseInfo
}

func monthKey(month time.Month, year int) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

func (f *fakeSource) MonthlyTotal(ownerID uint, month time.Month, year int) (decimal.Decimal, int64, error) {
	total, ok := f.totals[monthKey(month, year)]
	if !ok {
		return decimal.Zero, 0, nil
	}
	return total, 1, nil
}

func (f *fakeSource) CategoryBreakdown(ownerID uint, month time.Month, year int) ([]BreakdownEntry, error) {
	return f.breakdown, nil
}

func (f *fakeSource) HighestExpense(ownerID uint) (*ExpenseInfo, error) {
	return f.highest, nil
}

func engineAt(src Source, year int, month time.Month) *Engine {
	e := NewEngine(src)
	e.Now = func() time.Time { return time.Date(year, month, 15, 12, 0, 0, 0, time.UTC) }
	return e
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPercentageChangeRounding(t *testing.T) {
	src := &fakeSource{totals: map[string]decimal.Decimal{
		monthKey(time.July, 2025): dec("150.00"),
		monthKey(time.June, 2025): dec("100.00"),
	}}
	res, err := engineAt(src, 2025, time.July).ComputeInsights(1)
	if err != nil {
		t.Fatalf("ComputeInsights: %v", err)
	}
	cmp := res.MonthlyComparison
	if !cmp.Difference.Equal(dec("50.00")) {
		t.Fatalf("difference = %s, want 50.00", cmp.Difference)
	}
	if !cmp.PercentageChange.Equal(dec("50.00")) {
		t.Fatalf("percentageChange = %s, want 50.00", cmp.PercentageChange)
	}
	if cmp.Trend != TrendIncreased {
		t.Fatalf("trend = %s, want INCREASED", cmp.Trend)
	}
}

func TestZeroPreviousMonthIsStable(t *testing.T) {
	src := &fakeSource{totals: map[string]decimal.Decimal{
		monthKey(time.July, 2025): dec("42.00"),
	}}
	res, err := engineAt(src, 2025, time.July).ComputeInsights(1)
	if err != nil {
		t.Fatalf("ComputeInsights: %v", err)
	}
	cmp := res.MonthlyComparison
	if !cmp.PercentageChange.IsZero() {
		t.Fatalf("percentageChange = %s, want 0 for empty previous month", cmp.PercentageChange)
	}
	if cmp.Trend != TrendStable {
		t.Fatalf("trend = %s, want STABLE", cmp.Trend)
	}
	if !cmp.Difference.Equal(dec("42.00")) {
		t.Fatalf("difference = %s, want 42.00", cmp.Difference)
	}
}

func TestJanuaryComparesAgainstPriorDecember(t *testing.T) {
	src := &fakeSource{totals: map[string]decimal.Decimal{
		monthKey(time.January, 2025):  dec("100.00"),
		monthKey(time.December, 2024): dec("200.00"),
	}}
	res, err := engineAt(src, 2025, time.January).ComputeInsights(1)
	if err != nil {
		t.Fatalf("ComputeInsights: %v", err)
	}
	cmp := res.MonthlyComparison
	if !cmp.PreviousMonthTotal.Equal(dec("200.00")) {
		t.Fatalf("previous total = %s, want December 2024's 200.00", cmp.PreviousMonthTotal)
	}
	if !cmp.PercentageChange.Equal(dec("-50.00")) {
		t.Fatalf("percentageChange = %s, want -50.00", cmp.PercentageChange)
	}
	if cmp.Trend != TrendDecreased {
		t.Fatalf("trend = %s, want DECREASED", cmp.Trend)
	}
}

func TestNoCategoriesYieldsEmptyInsights(t *testing.T) {
	src := &fakeSource{}
	res, err := engineAt(src, 2025, time.July).ComputeInsights(1)
	if err != nil {
		t.Fatalf("ComputeInsights: %v", err)
	}
	if res.CategoryInsights == nil || len(res.CategoryInsights) != 0 {
		t.Fatalf("categoryInsights = %v, want empty slice", res.CategoryInsights)
	}
	if res.Summary != "" {
		t.Fatalf("summary = %q, want empty", res.Summary)
	}
}

func TestCategoryClassification(t *testing.T) {
	src := &fakeSource{breakdown: []BreakdownEntry{
		{CategoryName: "Food", Total: dec("200.00")},
		{CategoryName: "Transport", Total: dec("100.00")},
	}}
	res, err := engineAt(src, 2025, time.July).ComputeInsights(1)
	if err != nil {
		t.Fatalf("ComputeInsights: %v", err)
	}
	if len(res.CategoryInsights) != 2 {
		t.Fatalf("got %d insights, want 2", len(res.CategoryInsights))
	}
	food := res.CategoryInsights[0]
	if !food.AverageAmount.Equal(dec("150.00")) {
		t.Fatalf("average = %s, want 150.00", food.AverageAmount)
	}
	if !food.PercentageAboveAverage.Equal(dec("33.33")) {
		t.Fatalf("food above average = %s, want 33.33", food.PercentageAboveAverage)
	}
	if food.Status != StatusHigh {
		t.Fatalf("food status = %s, want HIGH", food.Status)
	}
	transport := res.CategoryInsights[1]
	if !transport.PercentageAboveAverage.Equal(dec("-33.33")) {
		t.Fatalf("transport above average = %s, want -33.33", transport.PercentageAboveAverage)
	}
	if transport.Status != StatusLow {
		t.Fatalf("transport status = %s, want LOW", transport.Status)
	}
}

func TestCategoryWithinBoundIsNormal(t *testing.T) {
	src := &fakeSource{breakdown: []BreakdownEntry{
		{CategoryName: "Food", Total: dec("110.00")},
		{CategoryName: "Transport", Total: dec("90.00")},
	}}
	res, err := engineAt(src, 2025, time.July).ComputeInsights(1)
	if err != nil {
		t.Fatalf("ComputeInsights: %v", err)
	}
	for _, in := range res.CategoryInsights {
		if in.Status != StatusNormal {
			t.Fatalf("%s status = %s, want NORMAL", in.CategoryName, in.Status)
		}
	}
}

func TestComputeInsightsIsIdempotent(t *testing.T) {
	src := &fakeSource{
		totals: map[string]decimal.Decimal{
			monthKey(time.July, 2025): dec("300.00"),
			monthKey(time.June, 2025): dec("100.00"),
		},
		breakdown: []BreakdownEntry{
			{CategoryName: "Food", Total: dec("250.00")},
			{CategoryName: "Transport", Total: dec("50.00")},
		},
		highest: &ExpenseInfo{ID: 7, Amount: dec("99.99"), Date: time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)},
	}
	eng := engineAt(src, 2025, time.July)
	first, err := eng.ComputeInsights(1)
	if err != nil {
		t.Fatalf("first ComputeInsights: %v", err)
	}
	second, err := eng.ComputeInsights(1)
	if err != nil {
		t.Fatalf("second ComputeInsights: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated calls disagree:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestSummaryClauses(t *testing.T) {
	src := &fakeSource{
		totals: map[string]decimal.Decimal{
			monthKey(time.July, 2025): dec("230.00"),
			monthKey(time.June, 2025): dec("200.00"),
		},
		breakdown: []BreakdownEntry{
			{CategoryName: "Food", Total: dec("200.00")},
			{CategoryName: "Transport", Total: dec("30.00")},
		},
	}
	res, err := engineAt(src, 2025, time.July).ComputeInsights(1)
	if err != nil {
		t.Fatalf("ComputeInsights: %v", err)
	}
	want := "Your spending increased by 15.0% compared to last month. " +
		"1 category(ies) exceeded average spending by more than 25%."
	if res.Summary != want {
		t.Fatalf("summary = %q, want %q", res.Summary, want)
	}
}

func TestSummaryEmptyWhenNothingTriggers(t *testing.T) {
	src := &fakeSource{totals: map[string]decimal.Decimal{
		monthKey(time.July, 2025): dec("105.00"),
		monthKey(time.June, 2025): dec("100.00"),
	}}
	res, err := engineAt(src, 2025, time.July).ComputeInsights(1)
	if err != nil {
		t.Fatalf("ComputeInsights: %v", err)
	}
	if res.Summary != "" {
		t.Fatalf("summary = %q, want empty string", res.Summary)
	}
}

func TestHighestExpenseDefaultsToUncategorized(t *testing.T) {
	src := &fakeSource{highest: &ExpenseInfo{
		ID:     3,
		Amount: dec("80.00"),
		Date:   time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}}
	res, err := engineAt(src, 2025, time.July).ComputeInsights(1)
	if err != nil {
		t.Fatalf("ComputeInsights: %v", err)
	}
	if res.HighestExpense == nil {
		t.Fatalf("highest expense missing")
	}
	if res.HighestExpense.CategoryName != UncategorizedName {
		t.Fatalf("category name = %q, want %q", res.HighestExpense.CategoryName, UncategorizedName)
	}
	if res.HighestExpense.Date != "2025-06-02" {
		t.Fatalf("date = %q, want 2025-06-02", res.HighestExpense.Date)
	}
}

func TestNoExpensesAtAll(t *testing.T) {
	res, err := engineAt(&fakeSource{}, 2025, time.July).ComputeInsights(1)
	if err != nil {
		t.Fatalf("ComputeInsights: %v", err)
	}
	if res.HighestExpense != nil {
		t.Fatalf("highest = %+v, want nil", res.HighestExpense)
	}
	if !res.MonthlyComparison.CurrentMonthTotal.IsZero() {
		t.Fatalf("current total = %s, want 0", res.MonthlyComparison.CurrentMonthTotal)
	}
}
