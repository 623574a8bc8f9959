package domain

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestNewTransaction(t *testing.T) {
	purchase := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	invoice := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	tx, err := NewTransaction("id-1", purchase, invoice, "  UBER   VIAGEM ", 45.00, "Transporte")
	if err != nil {
		t.Fatalf("NewTransaction() error = %v", err)
	}
	if tx.BillingPeriod != "2026-02" {
		t.Errorf("BillingPeriod = %s; want 2026-02", tx.BillingPeriod)
	}
	if tx.Description != "UBER VIAGEM" {
		t.Errorf("Description = %q; want collapsed whitespace", tx.Description)
	}
	if tx.Method != MethodCredit || tx.Source != SourceImported {
		t.Error("defaults must be credit/imported")
	}
}

func TestNewTransactionDefaults(t *testing.T) {
	purchase := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	tx, err := NewTransaction("id-1", purchase, time.Time{}, "X Y", 1, "")
	if err != nil {
		t.Fatalf("NewTransaction() error = %v", err)
	}
	if !tx.InvoiceDate.Equal(purchase) {
		t.Error("zero invoice date falls back to purchase date")
	}
	if tx.Category != CategoryOther {
		t.Errorf("Category = %q; want sentinel", tx.Category)
	}
}

func TestNewTransactionValidation(t *testing.T) {
	purchase := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	invoice := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		fn   func() error
	}{
		{"empty ID", func() error {
			_, err := NewTransaction("", purchase, invoice, "A B", 1, "")
			return err
		}},
		{"zero purchase date", func() error {
			_, err := NewTransaction("id", time.Time{}, invoice, "A B", 1, "")
			return err
		}},
		{"blank description", func() error {
			_, err := NewTransaction("id", purchase, invoice, "   ", 1, "")
			return err
		}},
		{"NaN amount", func() error {
			_, err := NewTransaction("id", purchase, invoice, "A B", math.NaN(), "")
			return err
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.fn() == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestManualID(t *testing.T) {
	id := NewManualID()
	if !strings.HasPrefix(id, "MAN_") {
		t.Errorf("NewManualID() = %q; want MAN_ prefix", id)
	}
	if NewID() == NewID() {
		t.Error("IDs must be unique")
	}
}

func TestPeriodArithmetic(t *testing.T) {
	p, err := ParsePeriod("2026-11")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.AddMonths(2); got != "2027-01" {
		t.Errorf("AddMonths(2) = %s; want 2027-01", got)
	}
	if got := p.AddMonths(-11); got != "2025-12" {
		t.Errorf("AddMonths(-11) = %s; want 2025-12", got)
	}
	if !p.Before("2026-12") || !p.After("2026-10") {
		t.Error("lexical ordering must be chronological")
	}
}

func TestParsePeriodRejectsGarbage(t *testing.T) {
	for _, in := range []string{"2026", "2026-13", "jan-2026", ""} {
		if _, err := ParsePeriod(in); err == nil {
			t.Errorf("ParsePeriod(%q) expected error", in)
		}
	}
}

func TestInvoiceDatePinned(t *testing.T) {
	p, err := ParsePeriod("2026-01")
	if err != nil {
		t.Fatal(err)
	}
	d := p.InvoiceDate()
	if d.Day() != InvoiceDay || d.Month() != time.January || d.Year() != 2026 {
		t.Errorf("InvoiceDate() = %v; want 2026-01-%02d", d, InvoiceDay)
	}
	// Pinning means repeated month addition never overflows into the month
	// after next.
	if PeriodOf(d.AddDate(0, 1, 0)) != "2026-02" {
		t.Error("pinned invoice date must advance exactly one month")
	}
}
