package installment

import (
	"testing"
	"time"

	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
)

func TestFind(t *testing.T) {
	tests := []struct {
		name        string
		description string
		wantOK      bool
		wantCurrent int
		wantTotal   int
	}{
		{"plain counter", "MAGAZINE 03/10", true, 3, 10},
		{"parc prefix", "LOJA PARC 02/05", true, 2, 5},
		{"parc glued", "LOJA PARC02/05", true, 2, 5},
		{"no counter", "UBER VIAGEM", false, 0, 0},
		{"current exceeds total", "LOJA 12/03", false, 0, 0},
		{"zero current", "LOJA 00/05", false, 0, 0},
		{"single installment", "LOJA 01/01", true, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Find(tt.description)
			if ok != tt.wantOK {
				t.Fatalf("Find(%q) ok = %v; want %v", tt.description, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if m.Current != tt.wantCurrent || m.Total != tt.wantTotal {
				t.Errorf("Find(%q) = %d/%d; want %d/%d", tt.description, m.Current, m.Total, tt.wantCurrent, tt.wantTotal)
			}
		})
	}
}

func TestRemaining(t *testing.T) {
	m, ok := Find("LOJA 03/10")
	if !ok {
		t.Fatal("expected marker")
	}
	if got := m.Remaining(); got != 8 {
		t.Errorf("Remaining() = %d; want 8", got)
	}
}

func TestRewrite(t *testing.T) {
	m, ok := Find("MAGAZINE 3/10 COMPRA")
	if !ok {
		t.Fatal("expected marker")
	}
	got := m.Rewrite("MAGAZINE 3/10 COMPRA", 2)
	want := "MAGAZINE 05/10 COMPRA"
	if got != want {
		t.Errorf("Rewrite = %q; want %q", got, want)
	}
}

func makeTx(t *testing.T, desc string) domain.Transaction {
	t.Helper()
	period, err := domain.ParsePeriod("2026-02")
	if err != nil {
		t.Fatal(err)
	}
	tx, err := domain.NewTransaction(domain.NewID(),
		time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), period.InvoiceDate(),
		desc, 120.00, "Outros")
	if err != nil {
		t.Fatal(err)
	}
	return tx
}

func TestExpandNoMarker(t *testing.T) {
	base := makeTx(t, "UBER VIAGEM")
	out := Expand(base)
	if len(out) != 1 {
		t.Fatalf("Expand() produced %d records; want 1", len(out))
	}
	if out[0].ID != base.ID || out[0].FutureProjection {
		t.Error("record without marker must pass through unmodified")
	}
}

func TestExpandMidStream(t *testing.T) {
	base := makeTx(t, "MAGAZINE 03/10")
	out := Expand(base)

	if len(out) != 8 {
		t.Fatalf("Expand() produced %d records; want 8", len(out))
	}

	first := out[0]
	if first.ID != base.ID || first.FutureProjection {
		t.Error("first record keeps base identity and is not a projection")
	}
	if first.BillingPeriod != "2026-02" {
		t.Errorf("first billing period = %s; want 2026-02", first.BillingPeriod)
	}

	last := out[7]
	if !last.FutureProjection {
		t.Error("later installments must be projections")
	}
	if last.BillingPeriod != "2026-09" {
		t.Errorf("last billing period = %s; want 2026-09", last.BillingPeriod)
	}
	if last.Description != "MAGAZINE 10/10" {
		t.Errorf("last description = %q; want MAGAZINE 10/10", last.Description)
	}
	if last.InvoiceDate.Day() != domain.InvoiceDay {
		t.Errorf("invoice day = %d; want %d", last.InvoiceDate.Day(), domain.InvoiceDay)
	}
	if last.ID == base.ID {
		t.Error("projections need fresh IDs")
	}
	if last.Amount != base.Amount || last.PurchaseDate != base.PurchaseDate {
		t.Error("projections share amount and purchase date with the base")
	}

	seen := map[string]bool{}
	for _, tx := range out {
		if seen[tx.ID] {
			t.Fatalf("duplicate ID %s", tx.ID)
		}
		seen[tx.ID] = true
	}
}

func TestExpandYearRollover(t *testing.T) {
	period, err := domain.ParsePeriod("2026-11")
	if err != nil {
		t.Fatal(err)
	}
	base, err := domain.NewTransaction(domain.NewID(),
		time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), period.InvoiceDate(),
		"LOJA 01/03", 90.00, "Outros")
	if err != nil {
		t.Fatal(err)
	}

	out := Expand(base)
	if len(out) != 3 {
		t.Fatalf("Expand() produced %d records; want 3", len(out))
	}
	if out[2].BillingPeriod != "2027-01" {
		t.Errorf("third billing period = %s; want 2027-01", out[2].BillingPeriod)
	}
}
