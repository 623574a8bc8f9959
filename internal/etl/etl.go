// Package etl runs the statement import pipeline: extract lines, classify
// them, expand installments, reconcile against the declared total, and merge
// the batch into the stored history.
package etl

import (
	"context"
	"fmt"
	"strings"

	"github.com/rumor-ml/commons.systems/fatura/internal/classify"
	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
	"github.com/rumor-ml/commons.systems/fatura/internal/installment"
	"github.com/rumor-ml/commons.systems/fatura/internal/merge"
	"github.com/rumor-ml/commons.systems/fatura/internal/reconcile"
	"github.com/rumor-ml/commons.systems/fatura/internal/statement"
)

// paymentThreshold separates invoice payments from refunds. Payments arrive
// as large negative lines; small negative lines are merchant refunds and
// must be kept.
const paymentThreshold = -50.0

// Preview is the outcome of a dry run: everything needed to show the user
// what a commit would store.
type Preview struct {
	Period       domain.Period
	Transactions []domain.Transaction
	Report       *reconcile.Report
	Learned      map[string][]string
	Rules        *classify.Ruleset
	LinesRead    int
	LinesSkipped int
	Suggested    int
	// SuggestErr records an oracle failure. Suggestions are best effort:
	// the lines stay in the sentinel category and the import proceeds.
	SuggestErr error
}

// Importer converts raw statement text into transactions. The ruleset given
// at construction is never mutated; Run works on a clone so a discarded
// preview leaves no trace.
type Importer struct {
	rules     *classify.Ruleset
	suggester classify.Suggester
}

// NewImporter creates an importer. suggester may be nil, in which case
// unmatched lines simply stay in the sentinel category.
func NewImporter(rules *classify.Ruleset, suggester classify.Suggester) (*Importer, error) {
	if rules == nil {
		return nil, fmt.Errorf("ruleset cannot be nil")
	}
	return &Importer{rules: rules, suggester: suggester}, nil
}

// Run parses the statement text and produces a Preview for the target
// billing period. Nothing is persisted.
func (i *Importer) Run(ctx context.Context, text string, target domain.Period) (*Preview, error) {
	extraction := statement.Extract(text)
	if len(extraction.Records) == 0 {
		return nil, fmt.Errorf("no transactions found in statement for period %s", target)
	}

	rules := i.rules.Clone()
	learned := make(map[string][]string)

	type staged struct {
		rec      statement.Record
		desc     string
		category string
		guessed  bool
	}

	var stage []staged
	for _, rec := range extraction.Records {
		desc := statement.NormalizeDescription(rec.Description)
		if skipLine(desc, rec.Amount, rec.Section) {
			continue
		}
		stage = append(stage, staged{
			rec:      rec,
			desc:     desc,
			category: rec.Section,
			guessed:  statement.NeedsClassification(rec.Section),
		})
	}

	// The issuer's section headers are categories in their own right. Learn
	// from those lines first so a merchant seen under a real header resolves
	// to the same category when it shows up again under the installments
	// section below.
	for _, s := range stage {
		if s.guessed {
			continue
		}
		if kw, added := rules.Learn(s.desc, s.category); added {
			learned[s.category] = append(learned[s.category], kw)
		}
	}
	for idx := range stage {
		if stage[idx].guessed {
			stage[idx].category = rules.Classify(stage[idx].desc)
		}
	}

	suggested := 0
	var suggestErr error
	if i.suggester != nil {
		var unresolved []string
		for _, s := range stage {
			if s.category == domain.CategoryOther {
				unresolved = append(unresolved, s.desc)
			}
		}
		if len(unresolved) > 0 {
			// Suggestions outside the known categories are accepted too; the
			// learning pass below seeds the new category into the ruleset.
			suggestions, err := i.suggester.Suggest(ctx, unresolved, rules.Categories())
			if err != nil {
				suggestErr = fmt.Errorf("failed to get category suggestions: %w", err)
			}
			for idx := range stage {
				if stage[idx].category != domain.CategoryOther {
					continue
				}
				if cat, ok := suggestions[stage[idx].desc]; ok {
					stage[idx].category = cat
					suggested++
				}
			}
		}
	}

	engine := reconcile.NewEngine(target, extraction.DeclaredTotal)
	var all []domain.Transaction
	for _, s := range stage {
		if s.guessed {
			if kw, added := rules.Learn(s.desc, s.category); added {
				learned[s.category] = append(learned[s.category], kw)
			}
		}

		base, err := domain.NewTransaction(domain.NewID(), s.rec.Date, target.InvoiceDate(), s.desc, s.rec.Amount, s.category)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", s.rec.Description, err)
		}
		for _, tx := range installment.Expand(base) {
			engine.Add(tx)
			all = append(all, tx)
		}
	}

	return &Preview{
		Period:       target,
		Transactions: all,
		Report:       engine.Finalize(),
		Learned:      learned,
		Rules:        rules,
		LinesRead:    extraction.LinesRead,
		LinesSkipped: extraction.LinesSkipped,
		Suggested:    suggested,
		SuggestErr:   suggestErr,
	}, nil
}

// Commit folds a preview into the stored history and returns the merge
// outcome. Callers persist the returned transactions and the preview's
// updated ruleset together.
func (i *Importer) Commit(existing []domain.Transaction, preview *Preview) merge.Result {
	return merge.Merge(existing, preview.Transactions, preview.Period)
}

// skipLine drops statement noise that is not a purchase: running balances,
// subtotal lines, and the payment of the previous invoice. The payment check
// only fires inside the payments section or on an explicit PGTO marker, so a
// large bank-debit refund in a purchase block is kept.
func skipLine(desc string, amount float64, section string) bool {
	upper := strings.ToUpper(desc)
	if strings.Contains(upper, "SALDO FATURA") || strings.Contains(upper, "SUBTOTAL") {
		return true
	}
	if strings.HasPrefix(upper, "TOTAL ") {
		return true
	}
	if section == statement.SectionPayments || strings.Contains(upper, "PGTO") {
		if amount < paymentThreshold &&
			(strings.HasPrefix(upper, "PGTO") ||
				strings.Contains(upper, "DEBITO CONTA") ||
				strings.Contains(upper, "CASH AG")) {
			return true
		}
	}
	return false
}
