// Package reconcile checks a parsed statement against the total the issuer
// printed on it.
package reconcile

import (
	"math"

	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
)

// Tolerance is the maximum accepted distance between the declared and the
// computed total. Statements round per line, so the sums rarely match to the
// cent.
const Tolerance = 0.10

// CategoryGroup aggregates the transactions of one category within the
// reconciled period.
type CategoryGroup struct {
	Total float64
	Items []domain.Transaction
}

// Report is the outcome of reconciling one import batch.
type Report struct {
	Period        domain.Period
	DeclaredTotal *float64
	ComputedTotal float64
	Valid         bool
	ItemCount     int
	Groups        map[string]CategoryGroup
}

// Difference returns |declared - computed|, or 0 when no total was declared.
func (r *Report) Difference() float64 {
	if r.DeclaredTotal == nil {
		return 0
	}
	return math.Abs(*r.DeclaredTotal - r.ComputedTotal)
}

// Engine accumulates transactions for one billing period and produces a
// Report. The computed total only counts credit transactions billed in the
// target period; installments projected into later months belong to those
// months' statements.
type Engine struct {
	period   domain.Period
	declared *float64
	computed float64
	items    []domain.Transaction
}

// NewEngine creates an engine for one billing period. declared may be nil
// when the statement carried no recognizable total line.
func NewEngine(period domain.Period, declared *float64) *Engine {
	return &Engine{period: period, declared: declared}
}

// Add records a transaction. Only credit transactions of the target period
// count toward the computed total; everything added is kept for grouping.
func (e *Engine) Add(tx domain.Transaction) {
	if tx.BillingPeriod == e.period && tx.Method == domain.MethodCredit {
		e.computed += tx.Amount
	}
	e.items = append(e.items, tx)
}

// Finalize builds the report. A missing declared total makes the batch
// invalid: the caller must either fix the statement or override explicitly.
func (e *Engine) Finalize() *Report {
	groups := make(map[string]CategoryGroup)
	count := 0
	for _, tx := range e.items {
		if tx.FutureProjection {
			continue
		}
		count++
		g := groups[tx.Category]
		g.Total += tx.Amount
		g.Items = append(g.Items, tx)
		groups[tx.Category] = g
	}

	valid := false
	if e.declared != nil {
		valid = math.Abs(*e.declared-e.computed) < Tolerance
	}
	return &Report{
		Period:        e.period,
		DeclaredTotal: e.declared,
		ComputedTotal: e.computed,
		Valid:         valid,
		ItemCount:     count,
		Groups:        groups,
	}
}
