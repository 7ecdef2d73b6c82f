package budget

import (
	"testing"
)

func TestConcurrentWritesSendOneAlert(t *testing.T) {
	_, store, spending, notifier, eval := newFixture()
	spending.set(10, dec("500.00")) // over the 400.00 threshold

	d := NewDispatcher(eval, 4)
	for i := 0; i < 16; i++ {
		d.Dispatch(10)
	}
	d.Wait()

	if notifier.count() != 1 {
		t.Fatalf("%d notifications sent for 16 concurrent writes, want exactly 1", notifier.count())
	}
	if !store.alertSent(10) {
		t.Fatalf("alert flag not set")
	}
}

func TestDifferentCategoriesEvaluateIndependently(t *testing.T) {
	dir, store, spending, notifier, eval := newFixture()
	dir.categories[20] = &CategoryInfo{ID: 20, Name: "Travel", OwnerID: 1, OwnerName: "Ada", OwnerEmail: "ada@example.com"}
	store.budgets[20] = budgetFor(2, 20, "200.00", 50)
	spending.set(10, dec("500.00"))
	spending.set(20, dec("150.00")) // over 100.00

	d := NewDispatcher(eval, 4)
	for i := 0; i < 8; i++ {
		d.Dispatch(10)
		d.Dispatch(20)
	}
	d.Wait()

	if notifier.count() != 2 {
		t.Fatalf("%d notifications sent, want one per category", notifier.count())
	}
}

func TestDispatchUnknownCategoryDoesNotPanic(t *testing.T) {
	_, _, _, notifier, eval := newFixture()
	d := NewDispatcher(eval, 2)
	d.Dispatch(12345)
	d.Wait()
	if notifier.count() != 0 {
		t.Fatalf("notification sent for unknown category")
	}
}
