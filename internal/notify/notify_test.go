package notify

import (
	"strings"
	"testing"

	"github.com/rumor-ml/commons.systems/fatura/internal/reconcile"
	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestFormatImportReport(t *testing.T) {
	rep := &reconcile.Report{
		Period:        "2026-02",
		DeclaredTotal: ptr(165.00),
		ComputedTotal: 165.00,
		Valid:         true,
		ItemCount:     2,
		Groups: map[string]reconcile.CategoryGroup{
			"Transporte": {Total: 45.00},
			"Outros":     {Total: 120.00},
		},
	}

	msg := FormatImportReport(rep, 2)

	assert.Contains(t, msg, "Fatura 2026-02")
	assert.Contains(t, msg, "confere com a fatura")
	assert.Contains(t, msg, "2 parcelas projetadas")
	// Categories sorted by descending total.
	assert.Less(t, strings.Index(msg, "Outros"), strings.Index(msg, "Transporte"))
}

func TestFormatImportReportMismatch(t *testing.T) {
	rep := &reconcile.Report{
		Period:        "2026-02",
		DeclaredTotal: ptr(200.00),
		ComputedTotal: 165.00,
		Valid:         false,
		Groups:        map[string]reconcile.CategoryGroup{},
	}

	msg := FormatImportReport(rep, 0)
	assert.Contains(t, msg, "difere da fatura")
	assert.Contains(t, msg, "35.00")
	assert.NotContains(t, msg, "parcelas projetadas")
}

func TestFormatImportReportNoDeclaredTotal(t *testing.T) {
	rep := &reconcile.Report{
		Period: "2026-02",
		Groups: map[string]reconcile.CategoryGroup{},
	}

	msg := FormatImportReport(rep, 0)
	assert.Contains(t, msg, "sem total declarado")
}
