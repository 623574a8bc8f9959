package ui

import (
	"strings"
	"testing"
)

func TestCenterPadding(t *testing.T) {
	got := center("Fatura", 20)
	if got != "       Fatura" {
		t.Errorf("center(%q, 20) = %q", "Fatura", got)
	}
	if !strings.HasSuffix(got, "Fatura") {
		t.Errorf("center must not pad on the right: %q", got)
	}
}

func TestCenterWideTextPassesThrough(t *testing.T) {
	wide := "Importando fatura 2026-02 do arquivo exportado"
	if got := center(wide, 10); got != wide {
		t.Errorf("text wider than the field must be unchanged, got %q", got)
	}
	if got := center("exato", 5); got != "exato" {
		t.Errorf("text filling the field exactly must be unchanged, got %q", got)
	}
}

func TestCenterFitsHeaderWidth(t *testing.T) {
	got := center("Resumo", headerWidth)
	if len(got) > headerWidth {
		t.Errorf("centered text overflows the header box: %d > %d", len(got), headerWidth)
	}
	if !strings.Contains(got, "Resumo") {
		t.Errorf("centered text lost its content: %q", got)
	}
}

// The print helpers write straight to the terminal; exercising them with the
// messages the import flow actually emits guards against panics in the
// underlying color formatting.
func TestPrintHelpers(t *testing.T) {
	Header("Importando fatura 2026-02")
	Step(1, 4, "Carregando estado")
	Step(4, 4, "Notificando")
	Success("42 transações gravadas (3 substituídas, 2 parcelas futuras)")
	Info("120 linhas lidas, 37 ignoradas, 0 sugeridas pela IA")
	Warning("Fatura sem total declarado")
	Error("arquivo de regras inválido")
	BlueText("Transporte — R$ 845.00")
	YellowText("2026-02")
}
