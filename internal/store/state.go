// Package store defines the persisted user state and the backends that hold
// it.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rumor-ml/commons.systems/fatura/internal/classify"
	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
)

// State is everything persisted for one user: the transaction history and
// the category ruleset, which grows as imports teach it new keywords.
type State struct {
	Transactions []domain.Transaction
	Rules        *classify.Ruleset
}

// Store loads and saves user state. Save replaces the whole state; the
// transaction history is small enough that partial updates are not worth
// the consistency risk.
type Store interface {
	Load(ctx context.Context, userID string) (*State, error)
	Save(ctx context.Context, userID string, state *State) error
	Close() error
}

// NewState creates a state seeded with the default ruleset.
func NewState() (*State, error) {
	rules, err := classify.DefaultRuleset()
	if err != nil {
		return nil, err
	}
	return &State{Rules: rules}, nil
}

// SetTransactionCategory reassigns one transaction and teaches the ruleset
// the correction, so the next import classifies the merchant right away.
// A category the ruleset has not seen yet is created on the spot.
func (s *State) SetTransactionCategory(id, category string) error {
	if category == "" {
		return fmt.Errorf("category cannot be empty")
	}
	for i := range s.Transactions {
		if s.Transactions[i].ID != id {
			continue
		}
		if s.Transactions[i].Category == category {
			return nil
		}
		s.Transactions[i].Category = category
		s.Rules.Learn(s.Transactions[i].Description, category)
		return nil
	}
	return fmt.Errorf("transaction %q not found", id)
}

// AddManual records a cash or out-of-band expense in the given period.
func (s *State) AddManual(description string, amount float64, date time.Time, category string, method domain.PaymentMethod) (domain.Transaction, error) {
	if !s.Rules.Has(category) && category != domain.CategoryOther {
		return domain.Transaction{}, fmt.Errorf("category %q not found", category)
	}
	period := domain.PeriodOf(date)
	tx, err := domain.NewTransaction(domain.NewManualID(), date, period.InvoiceDate(), description, amount, category)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx.Source = domain.SourceManual
	tx.Method = method
	s.Transactions = append(s.Transactions, tx)
	return tx, nil
}

// DeleteTransaction removes one transaction by ID.
func (s *State) DeleteTransaction(id string) error {
	for i := range s.Transactions {
		if s.Transactions[i].ID == id {
			s.Transactions = append(s.Transactions[:i], s.Transactions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %q not found", id)
}

// DeleteMonth drops every transaction billed in the period and returns how
// many were removed.
func (s *State) DeleteMonth(period domain.Period) int {
	kept := s.Transactions[:0]
	removed := 0
	for _, tx := range s.Transactions {
		if tx.BillingPeriod == period {
			removed++
			continue
		}
		kept = append(kept, tx)
	}
	s.Transactions = kept
	return removed
}

// RenameCategory renames a ruleset category and rewrites the stored
// transactions that point at the old name.
func (s *State) RenameCategory(oldName, newName string) error {
	if err := s.Rules.RenameCategory(oldName, newName); err != nil {
		return err
	}
	for i := range s.Transactions {
		if s.Transactions[i].Category == oldName {
			s.Transactions[i].Category = newName
		}
	}
	return nil
}

// DeleteCategory removes a category; its transactions fall back to the
// sentinel so history is never lost with the rule.
func (s *State) DeleteCategory(name string) {
	s.Rules.DeleteCategory(name)
	for i := range s.Transactions {
		if s.Transactions[i].Category == name {
			s.Transactions[i].Category = domain.CategoryOther
		}
	}
}

// MonthTransactions returns the period's transactions (defensive copy).
func (s *State) MonthTransactions(period domain.Period) []domain.Transaction {
	var out []domain.Transaction
	for _, tx := range s.Transactions {
		if tx.BillingPeriod == period {
			out = append(out, tx)
		}
	}
	return out
}

// Periods returns the distinct billing periods present, oldest first.
func (s *State) Periods() []domain.Period {
	seen := make(map[domain.Period]bool)
	var out []domain.Period
	for _, tx := range s.Transactions {
		if !seen[tx.BillingPeriod] {
			seen[tx.BillingPeriod] = true
			out = append(out, tx.BillingPeriod)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Before(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Summary aggregates one period's spending.
type Summary struct {
	Period     domain.Period
	Gross      float64
	Refunds    float64
	Net        float64
	Count      int
	ByCategory map[string]float64
}

// Summarize computes the period's totals. Future projections are included;
// a summary of a future month is exactly the point of projecting.
func (s *State) Summarize(period domain.Period) Summary {
	sum := Summary{Period: period, ByCategory: make(map[string]float64)}
	for _, tx := range s.Transactions {
		if tx.BillingPeriod != period {
			continue
		}
		sum.Count++
		sum.Net += tx.Amount
		if tx.IsRefund() {
			sum.Refunds += tx.Amount
		} else {
			sum.Gross += tx.Amount
		}
		sum.ByCategory[tx.Category] += tx.Amount
	}
	return sum
}

// Validate checks state invariants before a save: unique IDs and billing
// periods consistent with invoice dates.
func (s *State) Validate() error {
	seen := make(map[string]bool, len(s.Transactions))
	for _, tx := range s.Transactions {
		if seen[tx.ID] {
			return fmt.Errorf("duplicate transaction ID %q", tx.ID)
		}
		seen[tx.ID] = true
		if tx.BillingPeriod != domain.PeriodOf(tx.InvoiceDate) {
			return fmt.Errorf("transaction %q: billing period %s does not match invoice date %s",
				tx.ID, tx.BillingPeriod, tx.InvoiceDate.Format("2006-01-02"))
		}
	}
	return nil
}
