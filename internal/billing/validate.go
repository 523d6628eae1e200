package billing

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var emailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// ClientDraft is the client part of an invoice submission.
type ClientDraft struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// ItemDraft is one submitted line before pricing.
type ItemDraft struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Draft is an invoice submission as entered by an agent.
type Draft struct {
	Client ClientDraft
	Items  []ItemDraft
}

// ValidateClient checks the required client fields.
func ValidateClient(c ClientDraft) error {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, invalid("client.name", "is required"))
	}
	email := strings.TrimSpace(c.Email)
	switch {
	case email == "":
		errs = append(errs, invalid("client.email", "is required"))
	case !emailRegex.MatchString(email):
		errs = append(errs, invalid("client.email", "is not a valid address"))
	}
	return errors.Join(errs...)
}

// ValidateItems checks that there is at least one line and every line is
// priceable and drawn from the catalog.
func ValidateItems(items []ItemDraft) error {
	if len(items) == 0 {
		return invalid("items", "at least one item is required")
	}
	var errs []error
	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)
		desc := strings.TrimSpace(it.Description)
		switch {
		case desc == "":
			errs = append(errs, invalid(field+".description", "is required"))
		case !InCatalog(desc):
			errs = append(errs, invalid(field+".description", fmt.Sprintf("%q is not a catalog service", desc)))
		}
		if it.Quantity <= 0 {
			errs = append(errs, invalid(field+".quantity", "must be greater than zero"))
		}
		if it.UnitPrice.IsNegative() {
			errs = append(errs, invalid(field+".unit_price", "must not be negative"))
		}
	}
	return errors.Join(errs...)
}

// ValidateDraft reports every problem with d in one joined error.
func ValidateDraft(d Draft) error {
	return errors.Join(ValidateClient(d.Client), ValidateItems(d.Items))
}

// Lines converts validated drafts to priceable lines.
func Lines(items []ItemDraft) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return lines
}
