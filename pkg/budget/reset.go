package budget

import (
	"fmt"
	"log"
)

// ResetAlerts clears the alert-sent flag on every budget at the start of a
// billing period so each can alert again. Budgets are reset independently:
// a failure on one is logged and the loop continues. Running twice in the
// same period is harmless; clearing an already-clear flag changes nothing.
func ResetAlerts(store Store) error {
	budgets, err := store.All()
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}
	cleared := 0
	for i := range budgets {
		if err := store.ClearAlert(budgets[i].ID); err != nil {
			log.Printf("budget reset: budget %d: %v", budgets[i].ID, err)
			continue
		}
		cleared++
	}
	log.Printf("budget reset: cleared alert flags on %d/%d budgets", cleared, len(budgets))
	return nil
}
