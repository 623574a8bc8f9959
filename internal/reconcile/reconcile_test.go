package reconcile

import (
	"testing"
	"time"

	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func makeTx(t *testing.T, desc string, amount float64, period domain.Period) domain.Transaction {
	t.Helper()
	p, err := domain.ParsePeriod(string(period))
	require.NoError(t, err)
	tx, err := domain.NewTransaction(domain.NewID(), time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), p.InvoiceDate(), desc, amount, "Transporte")
	require.NoError(t, err)
	return tx
}

func TestFinalizeWithinTolerance(t *testing.T) {
	tests := []struct {
		name     string
		declared float64
		want     bool
	}{
		{"exact", 100.00, true},
		{"nine cents under", 99.91, true},
		{"nine cents over", 100.09, true},
		{"eleven cents under", 99.89, false},
		{"eleven cents over", 100.11, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine("2026-02", ptr(tt.declared))
			e.Add(makeTx(t, "UBER VIAGEM", 60.00, "2026-02"))
			e.Add(makeTx(t, "POSTO SHELL", 40.00, "2026-02"))

			rep := e.Finalize()
			assert.InDelta(t, 100.00, rep.ComputedTotal, 1e-9)
			assert.Equal(t, tt.want, rep.Valid)
		})
	}
}

func TestFinalizeNoDeclaredTotal(t *testing.T) {
	e := NewEngine("2026-02", nil)
	e.Add(makeTx(t, "UBER VIAGEM", 45.00, "2026-02"))

	rep := e.Finalize()
	assert.False(t, rep.Valid)
	assert.Nil(t, rep.DeclaredTotal)
	assert.Zero(t, rep.Difference())
}

func TestFutureInstallmentsExcluded(t *testing.T) {
	e := NewEngine("2026-02", ptr(50.00))
	e.Add(makeTx(t, "MAGAZINE 01/03", 50.00, "2026-02"))

	future := makeTx(t, "MAGAZINE 02/03", 50.00, "2026-03")
	future.FutureProjection = true
	e.Add(future)

	rep := e.Finalize()
	assert.InDelta(t, 50.00, rep.ComputedTotal, 1e-9)
	assert.True(t, rep.Valid)
	assert.Equal(t, 1, rep.ItemCount)
	require.Contains(t, rep.Groups, "Transporte")
	assert.Len(t, rep.Groups["Transporte"].Items, 1)
}

func TestDebitExcludedFromComputedTotal(t *testing.T) {
	e := NewEngine("2026-02", ptr(30.00))
	credit := makeTx(t, "UBER VIAGEM", 30.00, "2026-02")
	debit := makeTx(t, "MERCADO DEBITO", 20.00, "2026-02")
	debit.Method = domain.MethodDebit

	e.Add(credit)
	e.Add(debit)

	rep := e.Finalize()
	assert.InDelta(t, 30.00, rep.ComputedTotal, 1e-9)
	assert.True(t, rep.Valid)
}

func TestRefundsReduceComputedTotal(t *testing.T) {
	e := NewEngine("2026-02", ptr(80.00))
	e.Add(makeTx(t, "LOJA COMPRA", 100.00, "2026-02"))
	e.Add(makeTx(t, "LOJA ESTORNO", -20.00, "2026-02"))

	rep := e.Finalize()
	assert.InDelta(t, 80.00, rep.ComputedTotal, 1e-9)
	assert.True(t, rep.Valid)
}
