package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rumor-ml/commons.systems/fatura/internal/classify"
	"github.com/rumor-ml/commons.systems/fatura/internal/classify/gemini"
	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
	"github.com/rumor-ml/commons.systems/fatura/internal/etl"
	"github.com/rumor-ml/commons.systems/fatura/internal/notify"
	"github.com/rumor-ml/commons.systems/fatura/internal/ui"
)

type importCmd struct {
	File   string `arg:"" help:"Plain-text statement export." type:"existingfile"`
	Month  string `required:"" help:"Billing period to import into (YYYY-MM)."`
	Yes    bool   `help:"Commit without asking for confirmation."`
	AI     bool   `help:"Ask Gemini to categorize lines the rules miss."`
	Notify bool   `help:"Send the import summary to Discord."`
	Rules  string `help:"YAML rules file used instead of the stored ruleset." type:"existingfile"`
}

func (c *importCmd) Run(g *globals) error {
	ctx := context.Background()

	period, err := domain.ParsePeriod(c.Month)
	if err != nil {
		return err
	}

	text, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read statement file: %w", err)
	}

	st, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	ui.Header(fmt.Sprintf("Importando fatura %s", period))

	ui.Step(1, 4, "Carregando estado")
	state, err := st.Load(ctx, g.userID())
	if err != nil {
		return err
	}

	rules := state.Rules
	if c.Rules != "" {
		if rules, err = classify.LoadRulesFile(c.Rules); err != nil {
			return err
		}
	}

	var suggester classify.Suggester
	if c.AI {
		if g.cfg.GeminiAPIKey == "" {
			return fmt.Errorf("--ai needs GEMINI_API_KEY set")
		}
		gs, err := gemini.New(ctx, g.cfg.GeminiAPIKey, g.cfg.GeminiModel)
		if err != nil {
			return err
		}
		suggester = gs
	}

	ui.Step(2, 4, "Extraindo e classificando transações")
	importer, err := etl.NewImporter(rules, suggester)
	if err != nil {
		return err
	}
	preview, err := importer.Run(ctx, string(text), period)
	if err != nil {
		return err
	}

	printPreview(preview, g.Verbose)

	if preview.SuggestErr != nil {
		ui.Warning(fmt.Sprintf("Sugestões indisponíveis: %v", preview.SuggestErr))
	}
	if !preview.Report.Valid && !c.Yes {
		ui.Warning("Total não confere com a fatura; confirme antes de gravar.")
	}
	if !c.Yes && !confirm("Gravar essas transações?") {
		ui.Info("Importação cancelada.")
		return nil
	}

	ui.Step(3, 4, "Gravando")
	result := importer.Commit(state.Transactions, preview)
	state.Transactions = result.Transactions
	state.Rules = preview.Rules
	if err := st.Save(ctx, g.userID(), state); err != nil {
		return err
	}
	ui.Success(fmt.Sprintf("%d transações gravadas (%d substituídas, %d parcelas futuras)",
		len(preview.Transactions), result.Replaced, result.FutureAdded))

	ui.Step(4, 4, "Notificando")
	if c.Notify {
		n, err := notify.NewDiscord(g.cfg.DiscordToken, g.cfg.DiscordChannelID)
		if err != nil {
			return err
		}
		defer n.Close()
		if err := n.Send(notify.FormatImportReport(preview.Report, result.FutureAdded)); err != nil {
			return err
		}
		ui.Success("Resumo enviado ao Discord")
	} else {
		ui.Info("Notificação desativada")
	}
	return nil
}

func printPreview(p *etl.Preview, verbose bool) {
	cats := make([]string, 0, len(p.Report.Groups))
	for cat := range p.Report.Groups {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		return p.Report.Groups[cats[i]].Total > p.Report.Groups[cats[j]].Total
	})

	fmt.Println()
	for _, cat := range cats {
		g := p.Report.Groups[cat]
		ui.BlueText(fmt.Sprintf("%s — R$ %.2f", cat, g.Total))
		for _, tx := range g.Items {
			fmt.Printf("  %s  %-40s R$ %9.2f\n", tx.PurchaseDate.Format("02/01"), tx.Description, tx.Amount)
		}
	}
	fmt.Println()

	ui.Info(fmt.Sprintf("%d linhas lidas, %d ignoradas, %d sugeridas pela IA",
		p.LinesRead, p.LinesSkipped, p.Suggested))
	if verbose {
		for _, tx := range p.Transactions {
			if tx.FutureProjection {
				ui.Info(fmt.Sprintf("Parcela futura %s: %s R$ %.2f", tx.BillingPeriod, tx.Description, tx.Amount))
			}
		}
	}
	for cat, kws := range p.Learned {
		ui.Info(fmt.Sprintf("Aprendido em %s: %s", cat, strings.Join(kws, ", ")))
	}

	if p.Report.DeclaredTotal == nil {
		ui.Warning("Fatura sem total declarado")
	} else if p.Report.Valid {
		ui.Success(fmt.Sprintf("Total confere: R$ %.2f", p.Report.ComputedTotal))
	} else {
		ui.Warning(fmt.Sprintf("Total calculado R$ %.2f difere do declarado R$ %.2f",
			p.Report.ComputedTotal, *p.Report.DeclaredTotal))
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [s/N] ", prompt)
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(sc.Text()))
	return answer == "s" || answer == "sim" || answer == "y" || answer == "yes"
}
