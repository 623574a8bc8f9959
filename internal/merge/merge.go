// Package merge folds an import batch into the stored transaction history
// without duplicating rows that earlier imports already projected.
package merge

import (
	"math"
	"strings"

	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
)

// AmountTolerance absorbs rounding drift between an installment projected
// from an old statement and the same installment printed on a new one.
const AmountTolerance = 0.05

// Result reports what a merge did.
type Result struct {
	Transactions []domain.Transaction
	Replaced     int
	FutureAdded  int
}

// normalizeKey reduces a description to a comparison key: uppercase, the
// installment noise words removed, and everything but letters and digits
// stripped. "MAGAZINE PARC 03/10" and "Magazine 04/10" normalize to
// different keys only by their digits, which is why the amount and period
// checks exist alongside it.
func normalizeKey(description string) string {
	upper := strings.ToUpper(description)
	upper = strings.ReplaceAll(upper, "PARCELA", "")
	upper = strings.ReplaceAll(upper, "PARC", "")

	var b strings.Builder
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Duplicate reports whether two transactions describe the same charge:
// equal normalized descriptions, amounts within AmountTolerance, and the
// same billing period. For plain purchases the purchase date must also
// match; installment rows skip that check because a projection carries the
// statement date of the original purchase while the reprinted row may not.
func Duplicate(a, b domain.Transaction) bool {
	if a.BillingPeriod != b.BillingPeriod {
		return false
	}
	if math.Abs(a.Amount-b.Amount) >= AmountTolerance {
		return false
	}
	if normalizeKey(a.Description) != normalizeKey(b.Description) {
		return false
	}
	if hasInstallmentCounter(a.Description) || hasInstallmentCounter(b.Description) {
		return true
	}
	return a.PurchaseDate.Equal(b.PurchaseDate)
}

func hasInstallmentCounter(description string) bool {
	return strings.ContainsRune(description, '/')
}

// Merge replaces the target period's imported rows with the batch and folds
// the batch's future projections into later periods, skipping any that an
// earlier import, or an earlier line of the same batch, already created.
// Manual entries in the target period
// always survive.
func Merge(existing, batch []domain.Transaction, target domain.Period) Result {
	kept := make([]domain.Transaction, 0, len(existing))
	replaced := 0
	for _, tx := range existing {
		if tx.BillingPeriod == target && !tx.IsManual() {
			replaced++
			continue
		}
		kept = append(kept, tx)
	}

	merged := kept
	futureAdded := 0
	for _, tx := range batch {
		if tx.BillingPeriod == target {
			merged = append(merged, tx)
			continue
		}
		dup := false
		for _, prev := range merged {
			if Duplicate(tx, prev) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		merged = append(merged, tx)
		futureAdded++
	}

	return Result{Transactions: merged, Replaced: replaced, FutureAdded: futureAdded}
}
