package analytics

import "testing"

func TestSortBreakdownDescendingBySum(t *testing.T) {
	entries := []BreakdownEntry{
		{CategoryName: "Transport", Total: dec("50.00")},
		{CategoryName: "Food", Total: dec("300.00")},
		{CategoryName: "Rent", Total: dec("120.00")},
	}
	SortBreakdown(entries)
	want := []string{"Food", "Rent", "Transport"}
	for i, name := range want {
		if entries[i].CategoryName != name {
			t.Fatalf("position %d = %s, want %s", i, entries[i].CategoryName, name)
		}
	}
}

func TestSortBreakdownTiesBrokenByName(t *testing.T) {
	entries := []BreakdownEntry{
		{CategoryName: "Zoo", Total: dec("100.00")},
		{CategoryName: "Apples", Total: dec("100.00")},
		{CategoryName: "Mid", Total: dec("100.00")},
	}
	SortBreakdown(entries)
	want := []string{"Apples", "Mid", "Zoo"}
	for i, name := range want {
		if entries[i].CategoryName != name {
			t.Fatalf("position %d = %s, want %s (ties must sort by name ascending)", i, entries[i].CategoryName, name)
		}
	}
}
