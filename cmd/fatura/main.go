// Command fatura imports credit-card statements into a categorized spending
// history.
package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/rumor-ml/commons.systems/fatura/internal/config"
	"github.com/rumor-ml/commons.systems/fatura/internal/store"
	"github.com/rumor-ml/commons.systems/fatura/internal/store/firestore"
	"github.com/rumor-ml/commons.systems/fatura/internal/store/sqlite"
)

// globals holds options shared by every command.
type globals struct {
	Store   string `help:"Storage backend." enum:"sqlite,firestore" default:"sqlite"`
	User    string `help:"User whose data to operate on. Defaults to FATURA_USER_ID."`
	Verbose bool   `short:"v" help:"Print extra diagnostic output."`

	cfg *config.Config
}

// openStore picks the backend from flags and environment.
func (g *globals) openStore(ctx context.Context) (store.Store, error) {
	switch g.Store {
	case "firestore":
		if g.cfg.FirestoreProject == "" {
			return nil, fmt.Errorf("firestore backend needs FATURA_FIRESTORE_PROJECT set")
		}
		return firestore.New(ctx, g.cfg.FirestoreProject, g.cfg.FirestoreCredentials)
	default:
		return sqlite.Open(ctx, g.cfg.SQLitePath)
	}
}

func (g *globals) userID() string {
	if g.User != "" {
		return g.User
	}
	return g.cfg.UserID
}

var cli struct {
	globals

	Import     importCmd     `cmd:"" help:"Parse a statement text file and merge it into the history."`
	Months     monthsCmd     `cmd:"" help:"List, summarize, or delete billing months."`
	Categories categoriesCmd `cmd:"" help:"Manage categories and their keywords."`
	Tx         txCmd         `cmd:"" help:"Manage individual transactions."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("fatura"),
		kong.Description("Credit-card statement importer and spending tracker."),
		kong.UsageOnError(),
	)
	cli.globals.cfg = config.Load()
	err := ctx.Run(&cli.globals)
	ctx.FatalIfErrorf(err)
}
