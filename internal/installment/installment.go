// Package installment detects "current/total" installment counters in
// transaction descriptions and expands a purchase into one row per remaining
// monthly installment.
package installment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
)

// markerRx matches an installment counter, e.g. "03/10", optionally preceded
// by the issuer's "PARC" literal.
var markerRx = regexp.MustCompile(`(?:PARC\s*)?(\d{1,2})/(\d{1,2})`)

// Marker is a parsed installment counter.
type Marker struct {
	Current int
	Total   int
	text    string // the matched substring, for rewriting
}

// Find locates an installment marker in a description. A counter whose
// current number exceeds its total is malformed (usually a date fragment)
// and is treated as no marker at all.
func Find(description string) (Marker, bool) {
	m := markerRx.FindStringSubmatch(description)
	if m == nil {
		return Marker{}, false
	}
	current, _ := strconv.Atoi(m[1])
	total, _ := strconv.Atoi(m[2])
	if current < 1 || total < 1 || current > total {
		return Marker{}, false
	}
	return Marker{Current: current, Total: total, text: m[0]}, true
}

// Remaining is the number of installments from the current one through the
// last, inclusive.
func (m Marker) Remaining() int {
	return m.Total - m.Current + 1
}

// Rewrite replaces the counter substring to reflect the installment `step`
// months ahead, zero-padded, leaving the rest of the description untouched.
func (m Marker) Rewrite(description string, step int) string {
	counter := fmt.Sprintf("%02d/%02d", m.Current+step, m.Total)
	return strings.Replace(description, m.text, counter, 1)
}

// Expand produces one transaction per remaining installment of base. The
// first occurrence keeps base's description and is not a projection; later
// siblings get a fresh ID, a rewritten counter, an invoice date advanced by
// whole calendar months (pinned to the invoice day), and the future flag.
// All siblings share the original amount and category. Without a marker in
// the description, base is returned alone, unmodified.
func Expand(base domain.Transaction) []domain.Transaction {
	marker, ok := Find(base.Description)
	if !ok {
		return []domain.Transaction{base}
	}

	out := make([]domain.Transaction, 0, marker.Remaining())
	for i := 0; i < marker.Remaining(); i++ {
		tx := base
		if i > 0 {
			tx.ID = domain.NewID()
			tx.Description = marker.Rewrite(base.Description, i)
			tx.FutureProjection = true
		}
		period := base.BillingPeriod.AddMonths(i)
		tx.InvoiceDate = period.InvoiceDate()
		tx.BillingPeriod = period
		out = append(out, tx)
	}
	return out
}
