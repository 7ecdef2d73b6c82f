package scan

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"$12.34", "12.34", true},
		{"$ 7.00", "7.00", true},
		{"1,234.56", "1234.56", true},
		{"$0.00", "", false},
		{"$999999999.00", "", false},
		{"garbage", "", false},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		if c.ok {
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", c.in, err)
			}
			if got.StringFixed(2) != c.want {
				t.Fatalf("ParseAmount(%q) = %s, want %s", c.in, got, c.want)
			}
		} else if err == nil {
			t.Fatalf("ParseAmount(%q) = %s, want error", c.in, got)
		}
	}
}

func TestFindAmountsKeepsLineContext(t *testing.T) {
	text := "COFFEE  $4.50\nMUFFIN  $3.25\n\nTOTAL   $7.75\n"
	cands := FindAmounts(text)
	if len(cands) != 3 {
		t.Fatalf("found %d candidates, want 3", len(cands))
	}
	last := cands[2]
	if last.Match != "$7.75" || last.Line != "TOTAL   $7.75" {
		t.Fatalf("unexpected candidate %+v", last)
	}
}

func TestBestAmountPrefersTotalLine(t *testing.T) {
	// the bare 1,299.99 is larger but the TOTAL context must win
	cands := FindAmounts("REF 1,299.99\nTOTAL $45.67\n")
	amount, raw, ok := BestAmount(cands)
	if !ok {
		t.Fatalf("no amount chosen")
	}
	if amount.StringFixed(2) != "45.67" {
		t.Fatalf("amount = %s raw=%s, want 45.67 from the TOTAL line", amount, raw)
	}
}

func TestBestAmountSkipsSubtotal(t *testing.T) {
	cands := FindAmounts("SUBTOTAL $50.00\nTAX $5.00\nTOTAL $55.00\n")
	amount, _, ok := BestAmount(cands)
	if !ok {
		t.Fatalf("no amount chosen")
	}
	if amount.StringFixed(2) != "55.00" {
		t.Fatalf("amount = %s, want 55.00", amount)
	}
}

func TestBestAmountEmptyInput(t *testing.T) {
	if _, _, ok := BestAmount(nil); ok {
		t.Fatalf("BestAmount(nil) reported a pick")
	}
}
