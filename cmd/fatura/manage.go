package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
	"github.com/rumor-ml/commons.systems/fatura/internal/store"
	"github.com/rumor-ml/commons.systems/fatura/internal/ui"
)

// withState loads the state, runs fn, and saves when fn reports a change.
func withState(g *globals, fn func(ctx context.Context, state *store.State) (bool, error)) error {
	ctx := context.Background()
	st, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	state, err := st.Load(ctx, g.userID())
	if err != nil {
		return err
	}
	changed, err := fn(ctx, state)
	if err != nil {
		return err
	}
	if changed {
		return st.Save(ctx, g.userID(), state)
	}
	return nil
}

type monthsCmd struct {
	List    monthsListCmd    `cmd:"" default:"1" help:"List months with totals."`
	Summary monthsSummaryCmd `cmd:"" help:"Show one month broken down by category."`
	Delete  monthsDeleteCmd  `cmd:"" help:"Delete every transaction of a month."`
}

type monthsListCmd struct{}

func (c *monthsListCmd) Run(g *globals) error {
	return withState(g, func(ctx context.Context, state *store.State) (bool, error) {
		periods := state.Periods()
		if len(periods) == 0 {
			ui.Info("Nenhuma transação gravada.")
			return false, nil
		}
		for _, p := range periods {
			sum := state.Summarize(p)
			fmt.Printf("%s  R$ %10.2f  (%d transações)\n", p, sum.Net, sum.Count)
		}
		return false, nil
	})
}

type monthsSummaryCmd struct {
	Month string `arg:"" help:"Billing period (YYYY-MM)."`
}

func (c *monthsSummaryCmd) Run(g *globals) error {
	period, err := domain.ParsePeriod(c.Month)
	if err != nil {
		return err
	}
	return withState(g, func(ctx context.Context, state *store.State) (bool, error) {
		sum := state.Summarize(period)
		if sum.Count == 0 {
			ui.Info(fmt.Sprintf("Nenhuma transação em %s.", period))
			return false, nil
		}
		ui.Header(fmt.Sprintf("Resumo %s", period))

		cats := make([]string, 0, len(sum.ByCategory))
		for cat := range sum.ByCategory {
			cats = append(cats, cat)
		}
		sort.Slice(cats, func(i, j int) bool {
			return sum.ByCategory[cats[i]] > sum.ByCategory[cats[j]]
		})
		for _, cat := range cats {
			fmt.Printf("%-20s R$ %10.2f\n", cat, sum.ByCategory[cat])
		}
		fmt.Printf("\n%-20s R$ %10.2f\n", "Compras", sum.Gross)
		fmt.Printf("%-20s R$ %10.2f\n", "Estornos", sum.Refunds)
		fmt.Printf("%-20s R$ %10.2f\n", "Líquido", sum.Net)
		return false, nil
	})
}

type monthsDeleteCmd struct {
	Month string `arg:"" help:"Billing period (YYYY-MM)."`
	Yes   bool   `help:"Delete without asking for confirmation."`
}

func (c *monthsDeleteCmd) Run(g *globals) error {
	period, err := domain.ParsePeriod(c.Month)
	if err != nil {
		return err
	}
	return withState(g, func(ctx context.Context, state *store.State) (bool, error) {
		count := len(state.MonthTransactions(period))
		if count == 0 {
			ui.Info(fmt.Sprintf("Nenhuma transação em %s.", period))
			return false, nil
		}
		if !c.Yes && !confirm(fmt.Sprintf("Apagar %d transações de %s?", count, period)) {
			return false, nil
		}
		removed := state.DeleteMonth(period)
		ui.Success(fmt.Sprintf("%d transações apagadas de %s", removed, period))
		return true, nil
	})
}

type categoriesCmd struct {
	List   catListCmd   `cmd:"" default:"1" help:"List categories and keywords."`
	Add    catAddCmd    `cmd:"" help:"Add a category."`
	Remove catRemoveCmd `cmd:"" help:"Remove a category; its transactions move to Outros."`
	Rename catRenameCmd `cmd:"" help:"Rename a category and rewrite its transactions."`
	Learn  catLearnCmd  `cmd:"" help:"Add a keyword to a category."`
	Forget catForgetCmd `cmd:"" help:"Remove a keyword from a category."`
	Export catExportCmd `cmd:"" help:"Print the ruleset as YAML, usable with import --rules."`
}

type catExportCmd struct{}

func (c *catExportCmd) Run(g *globals) error {
	return withState(g, func(ctx context.Context, state *store.State) (bool, error) {
		data, err := yaml.Marshal(state.Rules)
		if err != nil {
			return false, err
		}
		fmt.Print(string(data))
		return false, nil
	})
}

type catListCmd struct{}

func (c *catListCmd) Run(g *globals) error {
	return withState(g, func(ctx context.Context, state *store.State) (bool, error) {
		for _, cat := range state.Rules.Categories() {
			ui.BlueText(cat)
			if kws := state.Rules.Keywords(cat); len(kws) > 0 {
				fmt.Printf("  %s\n", strings.Join(kws, ", "))
			}
		}
		return false, nil
	})
}

type catAddCmd struct {
	Name string `arg:"" help:"New category name."`
}

func (c *catAddCmd) Run(g *globals) error {
	return withState(g, func(ctx context.Context, state *store.State) (bool, error) {
		if err := state.Rules.AddCategory(c.Name); err != nil {
			return false, err
		}
		ui.Success(fmt.Sprintf("Categoria %s criada", c.Name))
		return true, nil
	})
}

type catRemoveCmd struct {
	Name string `arg:"" help:"Category to remove."`
}

func (c *catRemoveCmd) Run(g *globals) error {
	return withState(g, func(ctx context.Context, state *store.State) (bool, error) {
		if !state.Rules.Has(c.Name) {
			return false, fmt.Errorf("category %q not found", c.Name)
		}
		state.DeleteCategory(c.Name)
		ui.Success(fmt.Sprintf("Categoria %s removida", c.Name))
		return true, nil
	})
}

type catRenameCmd struct {
	Old string `arg:"" help:"Current name."`
	New string `arg:"" help:"New name."`
}

func (c *catRenameCmd) Run(g *globals) error {
	return withState(g, func(ctx context.Context, state *store.State) (bool, error) {
		if err := state.RenameCategory(c.Old, c.New); err != nil {
			return false, err
		}
		ui.Success(fmt.Sprintf("Categoria %s renomeada para %s", c.Old, c.New))
		return true, nil
	})
}

type catLearnCmd struct {
	Category string `arg:"" help:"Category name."`
	Keyword  string `arg:"" help:"Keyword to add."`
}

func (c *catLearnCmd) Run(g *globals) error {
	return withState(g, func(ctx context.Context, state *store.State) (bool, error) {
		if !state.Rules.Has(c.Category) {
			return false, fmt.Errorf("category %q not found", c.Category)
		}
		state.Rules.AddKeyword(c.Category, c.Keyword)
		ui.Success(fmt.Sprintf("%s aprendido em %s", strings.ToUpper(c.Keyword), c.Category))
		return true, nil
	})
}

type catForgetCmd struct {
	Category string `arg:"" help:"Category name."`
	Keyword  string `arg:"" help:"Keyword to remove."`
}

func (c *catForgetCmd) Run(g *globals) error {
	return withState(g, func(ctx context.Context, state *store.State) (bool, error) {
		state.Rules.RemoveKeyword(c.Category, strings.ToUpper(c.Keyword))
		return true, nil
	})
}

type txCmd struct {
	SetCategory txSetCategoryCmd `cmd:"" name:"set-category" help:"Move a transaction to another category and learn from it."`
	Add         txAddCmd         `cmd:"" help:"Record a manual expense."`
	Delete      txDeleteCmd      `cmd:"" help:"Delete a transaction."`
}

type txSetCategoryCmd struct {
	ID       string `arg:"" help:"Transaction ID."`
	Category string `arg:"" help:"Target category."`
}

func (c *txSetCategoryCmd) Run(g *globals) error {
	return withState(g, func(ctx context.Context, state *store.State) (bool, error) {
		if err := state.SetTransactionCategory(c.ID, c.Category); err != nil {
			return false, err
		}
		ui.Success(fmt.Sprintf("Transação movida para %s", c.Category))
		return true, nil
	})
}

type txAddCmd struct {
	Description string  `arg:"" help:"What was bought."`
	Amount      float64 `arg:"" help:"Value in reais."`
	Date        string  `help:"Purchase date (YYYY-MM-DD). Defaults to today." default:""`
	Category    string  `help:"Category name." default:"Outros"`
	Debit       bool    `help:"Record as a debit instead of credit."`
}

func (c *txAddCmd) Run(g *globals) error {
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if c.Date != "" {
		var err error
		if date, err = time.Parse("2006-01-02", c.Date); err != nil {
			return fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", c.Date, err)
		}
	}
	method := domain.MethodCredit
	if c.Debit {
		method = domain.MethodDebit
	}
	return withState(g, func(ctx context.Context, state *store.State) (bool, error) {
		tx, err := state.AddManual(c.Description, c.Amount, date, c.Category, method)
		if err != nil {
			return false, err
		}
		ui.Success(fmt.Sprintf("Registrado %s em %s (%s)", tx.Description, tx.BillingPeriod, tx.ID))
		return true, nil
	})
}

type txDeleteCmd struct {
	ID string `arg:"" help:"Transaction ID."`
}

func (c *txDeleteCmd) Run(g *globals) error {
	return withState(g, func(ctx context.Context, state *store.State) (bool, error) {
		if err := state.DeleteTransaction(c.ID); err != nil {
			return false, err
		}
		ui.Success("Transação apagada")
		return true, nil
	})
}
