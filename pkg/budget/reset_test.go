package budget

import (
	"errors"
	"testing"

	"spendtrack/models"

	"github.com/shopspring/decimal"
)

func budgetFor(id, categoryID uint, limit string, percent int) *models.CategoryBudget {
	l, _ := decimal.NewFromString(limit)
	return &models.CategoryBudget{ID: id, CategoryID: categoryID, MonthlyLimit: l, AlertThreshold: percent}
}

func TestResetIsolatesPerBudgetFailures(t *testing.T) {
	store := &fakeStore{
		budgets: map[uint]*models.CategoryBudget{
			10: budgetFor(1, 10, "100.00", 80),
			20: budgetFor(2, 20, "200.00", 80),
			30: budgetFor(3, 30, "300.00", 80),
		},
		clearErr: map[uint]error{2: errors.New("deadlock detected")},
	}
	for _, b := range store.budgets {
		b.AlertSent = true
	}

	if err := ResetAlerts(store); err != nil {
		t.Fatalf("ResetAlerts should not fail the batch: %v", err)
	}
	if store.alertSent(10) || store.alertSent(30) {
		t.Fatalf("healthy budgets not reset")
	}
	if !store.alertSent(20) {
		t.Fatalf("failed budget unexpectedly mutated")
	}
}

func TestResetIsIdempotent(t *testing.T) {
	store := &fakeStore{budgets: map[uint]*models.CategoryBudget{
		10: budgetFor(1, 10, "100.00", 80),
	}}
	store.budgets[10].AlertSent = true

	for i := 0; i < 2; i++ {
		if err := ResetAlerts(store); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if store.alertSent(10) {
		t.Fatalf("flag still set after reset")
	}
}
