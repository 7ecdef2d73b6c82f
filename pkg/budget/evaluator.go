// Package budget implements the budget threshold alerting: evaluation after
// each expense write, fire-and-forget dispatch, and the per-period reset.
package budget

import (
	"fmt"
	"log"
	"time"

	"spendtrack/models"

	"github.com/shopspring/decimal"
)

// CategoryInfo is what the evaluator needs to know about a category and the
// user who owns it. Identity is passed explicitly; there is no ambient
// current-user lookup in this package.
type CategoryInfo struct {
	ID         uint
	Name       string
	OwnerID    uint
	OwnerName  string
	OwnerEmail string
}

// Directory resolves categories and their owners. A missing category is
// (nil, nil), not an error: budgets are optional and so are their categories.
type Directory interface {
	CategoryByID(id uint) (*CategoryInfo, error)
}

// Store persists category budgets. MarkAlertSent is a compare-and-set: it
// flips the alert flag only if it is still clear and reports whether this
// call won, so the read-check-write cycle stays atomic across processes.
type Store interface {
	ByCategory(categoryID uint) (*models.CategoryBudget, error)
	MarkAlertSent(budgetID uint) (bool, error)
	ClearAlert(budgetID uint) error
	All() ([]models.CategoryBudget, error)
}

// Spending supplies the current-month category total. Implemented by
// analytics.Aggregator.
type Spending interface {
	CategoryMonthlyTotal(ownerID, categoryID uint, month time.Month, year int) (decimal.Decimal, error)
}

// Notifier delivers one message to one address.
type Notifier interface {
	Send(to, subject, body string) error
}

// Evaluator decides whether a category's budget threshold has been breached
// and fires at most one notification per billing period.
type Evaluator struct {
	dir      Directory
	budgets  Store
	spending Spending
	notifier Notifier
	Now      func() time.Time
}

func NewEvaluator(dir Directory, budgets Store, spending Spending, notifier Notifier) *Evaluator {
	return &Evaluator{dir: dir, budgets: budgets, spending: spending, notifier: notifier, Now: time.Now}
}

var hundred = decimal.NewFromInt(100)

// Threshold is the spending level at which a budget alerts: the monthly
// limit scaled by the alert percentage, rounded half-up to cents.
func Threshold(limit decimal.Decimal, percent int) decimal.Decimal {
	return limit.Mul(decimal.NewFromInt(int64(percent))).Div(hundred).Round(2)
}

// Check evaluates the budget attached to categoryID. Absent category or
// budget is a silent no-op. The alert flag is set only after the notifier
// reports success, so a failed delivery is retried by the next expense
// write in the same period.
func (e *Evaluator) Check(categoryID uint) error {
	cat, err := e.dir.CategoryByID(categoryID)
	if err != nil {
		return fmt.Errorf("resolve category %d: %w", categoryID, err)
	}
	if cat == nil {
		return nil
	}
	b, err := e.budgets.ByCategory(categoryID)
	if err != nil {
		return fmt.Errorf("load budget for category %d: %w", categoryID, err)
	}
	if b == nil {
		return nil
	}
	if b.AlertSent {
		return nil
	}

	now := e.Now()
	spending, err := e.spending.CategoryMonthlyTotal(cat.OwnerID, categoryID, now.Month(), now.Year())
	if err != nil {
		return fmt.Errorf("monthly spending for category %d: %w", categoryID, err)
	}
	if spending.LessThan(Threshold(b.MonthlyLimit, b.AlertThreshold)) {
		return nil
	}

	subject := "Budget Alert: " + cat.Name
	if err := e.notifier.Send(cat.OwnerEmail, subject, alertBody(cat, spending, b.MonthlyLimit)); err != nil {
		return fmt.Errorf("send budget alert for category %q: %w", cat.Name, err)
	}
	won, err := e.budgets.MarkAlertSent(b.ID)
	if err != nil {
		return fmt.Errorf("mark alert sent for budget %d: %w", b.ID, err)
	}
	if !won {
		log.Printf("budget %d: alert flag already set by a concurrent evaluation", b.ID)
		return nil
	}
	log.Printf("budget alert sent to %s for category %q", cat.OwnerEmail, cat.Name)
	return nil
}

func alertBody(cat *CategoryInfo, spending, limit decimal.Decimal) string {
	name := cat.OwnerName
	if name == "" {
		name = cat.OwnerEmail
	}
	pctOfLimit := spending.DivRound(limit, 2).Mul(hundred)
	return fmt.Sprintf(
		"Hello %s,\n\n"+
			"Your spending in the '%s' category has reached $%s, which is %s%% of your monthly budget of $%s.\n\n"+
			"Consider reviewing your expenses to stay within budget.\n\n"+
			"Best regards,\nSpendtrack Team",
		name, cat.Name, spending.StringFixed(2), pctOfLimit.StringFixed(0), limit.StringFixed(2))
}
