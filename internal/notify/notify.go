// Package notify sends import summaries to an external channel.
package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rumor-ml/commons.systems/fatura/internal/reconcile"
)

// Notifier delivers a message to wherever the user watches.
type Notifier interface {
	Send(message string) error
	Close() error
}

// FormatImportReport renders an import's reconciliation report as a short
// Discord-flavored markdown message.
func FormatImportReport(rep *reconcile.Report, futureAdded int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📄 **Fatura %s importada**\n\n", rep.Period)

	cats := make([]string, 0, len(rep.Groups))
	for cat := range rep.Groups {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		return rep.Groups[cats[i]].Total > rep.Groups[cats[j]].Total
	})
	for _, cat := range cats {
		fmt.Fprintf(&b, "**%s**: R$ %.2f (%d)\n", cat, rep.Groups[cat].Total, len(rep.Groups[cat].Items))
	}

	fmt.Fprintf(&b, "\n**Total**: R$ %.2f", rep.ComputedTotal)
	if rep.DeclaredTotal != nil {
		if rep.Valid {
			b.WriteString(" ✅ confere com a fatura")
		} else {
			fmt.Fprintf(&b, " ⚠️ difere da fatura (R$ %.2f, diferença R$ %.2f)",
				*rep.DeclaredTotal, rep.Difference())
		}
	} else {
		b.WriteString(" ⚠️ fatura sem total declarado")
	}
	if futureAdded > 0 {
		fmt.Fprintf(&b, "\n%d parcelas projetadas para os próximos meses", futureAdded)
	}
	return b.String()
}
