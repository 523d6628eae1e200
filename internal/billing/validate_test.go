package billing

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateDraft(t *testing.T) {
	good := Draft{
		Client: ClientDraft{Name: "John Smith", Email: "john@example.com"},
		Items:  []ItemDraft{{Description: "Flight Booking", Quantity: 2, UnitPrice: d("100")}},
	}
	if err := ValidateDraft(good); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Draft)
		field  string
	}{
		{"missing name", func(d *Draft) { d.Client.Name = "  " }, "client.name"},
		{"missing email", func(d *Draft) { d.Client.Email = "" }, "client.email"},
		{"bad email", func(d *Draft) { d.Client.Email = "john@" }, "client.email"},
		{"no items", func(d *Draft) { d.Items = nil }, "items"},
		{"empty description", func(d *Draft) { d.Items[0].Description = "" }, "items[0].description"},
		{"unknown service", func(d *Draft) { d.Items[0].Description = "Spa Day" }, "items[0].description"},
		{"zero quantity", func(d *Draft) { d.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"negative price", func(d *Draft) { d.Items[0].UnitPrice = decimal.NewFromInt(-1) }, "items[0].unit_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := good
			draft.Items = append([]ItemDraft(nil), good.Items...)
			tt.mutate(&draft)
			err := ValidateDraft(draft)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("error %q does not mention %s", err, tt.field)
			}
		})
	}
}

func TestValidateDraftJoinsProblems(t *testing.T) {
	err := ValidateDraft(Draft{Items: []ItemDraft{{Quantity: -1}}})
	var ie *InputError
	if !errors.As(err, &ie) {
		t.Fatalf("expected *InputError in %v", err)
	}
	for _, f := range []string{"client.name", "client.email", "items[0].description", "items[0].quantity"} {
		if !strings.Contains(err.Error(), f) {
			t.Fatalf("joined error missing %s: %v", f, err)
		}
	}
}

func TestZeroPriceIsAllowed(t *testing.T) {
	err := ValidateItems([]ItemDraft{{Description: "Travel Consultation", Quantity: 1, UnitPrice: decimal.Zero}})
	if err != nil {
		t.Fatalf("zero price should be accepted: %v", err)
	}
}
