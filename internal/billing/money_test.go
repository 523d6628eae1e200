package billing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestItemTotal(t *testing.T) {
	cases := []struct {
		qty   int
		price string
		want  string
		ok    bool
	}{
		{2, "100.00", "200.00", true},
		{1, "50", "50.00", true},
		{3, "19.99", "59.97", true},
		{1, "0", "0.00", true},
		{7, "0.333", "2.33", true},
		{0, "10", "", false},
		{-1, "10", "", false},
		{1, "-0.01", "", false},
	}
	for _, tc := range cases {
		got, err := ItemTotal(tc.qty, d(tc.price))
		if !tc.ok {
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("ItemTotal(%d, %s) expected ErrInvalidInput, got %v", tc.qty, tc.price, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ItemTotal(%d, %s) unexpected error: %v", tc.qty, tc.price, err)
		}
		if got.StringFixed(2) != tc.want {
			t.Fatalf("ItemTotal(%d, %s) = %s, want %s", tc.qty, tc.price, got.StringFixed(2), tc.want)
		}
	}
}

func TestItemTotalIsExactProduct(t *testing.T) {
	for q := 1; q <= 25; q++ {
		for _, p := range []string{"0.01", "1.10", "12.34", "999.99"} {
			got, err := ItemTotal(q, d(p))
			if err != nil {
				t.Fatal(err)
			}
			want := d(p).Mul(decimal.NewFromInt(int64(q)))
			if !got.Equal(want) {
				t.Fatalf("ItemTotal(%d, %s) = %s, want %s", q, p, got, want)
			}
		}
	}
}

func TestSubtotalTaxTotal(t *testing.T) {
	if !Subtotal(nil).IsZero() {
		t.Fatalf("empty subtotal should be zero")
	}
	s := Subtotal([]decimal.Decimal{d("200.00"), d("50.00")})
	if !s.Equal(d("250")) {
		t.Fatalf("subtotal = %s", s)
	}
	tax := Tax(s, DefaultTaxRate)
	if !tax.Equal(d("25")) {
		t.Fatalf("tax = %s", tax)
	}
	if got := Total(s, tax); !got.Equal(d("275")) {
		t.Fatalf("total = %s", got)
	}
	if got := Tax(d("33.33"), d("0.07")); !got.Equal(d("2.3331")) {
		t.Fatalf("tax should be the exact product, got %s", got)
	}
}

func TestComputeScenario(t *testing.T) {
	lines := []Line{
		{Quantity: 2, UnitPrice: d("100.00")},
		{Quantity: 1, UnitPrice: d("50.00")},
	}
	got, err := Compute(lines, DefaultTaxRate)
	if err != nil {
		t.Fatal(err)
	}
	if got.Subtotal.StringFixed(2) != "250.00" || got.Tax.StringFixed(2) != "25.00" || got.Total.StringFixed(2) != "275.00" {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if len(got.ItemTotals) != 2 || !got.ItemTotals[0].Equal(d("200")) {
		t.Fatalf("unexpected item totals: %v", got.ItemTotals)
	}

	again, _ := Compute(lines, DefaultTaxRate)
	if !again.Total.Equal(got.Total) || !again.Tax.Equal(got.Tax) {
		t.Fatalf("Compute is not idempotent")
	}
}

func TestComputeRoundsTax(t *testing.T) {
	got, err := Compute([]Line{{Quantity: 1, UnitPrice: d("10.05")}}, DefaultTaxRate)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tax.String() != "1.01" || got.Total.String() != "11.06" {
		t.Fatalf("tax=%s total=%s", got.Tax, got.Total)
	}
}

func TestComputeRejectsBadLine(t *testing.T) {
	_, err := Compute([]Line{{Quantity: 1, UnitPrice: d("5")}, {Quantity: 0, UnitPrice: d("5")}}, DefaultTaxRate)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
