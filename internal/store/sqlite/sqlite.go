// Package sqlite persists user state in a local SQLite database, for use
// without any cloud project configured.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rumor-ml/commons.systems/fatura/internal/classify"
	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
	"github.com/rumor-ml/commons.systems/fatura/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	user_id           TEXT NOT NULL,
	id                TEXT NOT NULL,
	purchase_date     TEXT NOT NULL,
	invoice_date      TEXT NOT NULL,
	billing_period    TEXT NOT NULL,
	description       TEXT NOT NULL,
	amount            REAL NOT NULL,
	category          TEXT NOT NULL,
	method            TEXT NOT NULL,
	source            TEXT NOT NULL,
	future_projection INTEGER NOT NULL,
	PRIMARY KEY (user_id, id)
);
CREATE INDEX IF NOT EXISTS idx_transactions_period ON transactions (user_id, billing_period);

CREATE TABLE IF NOT EXISTS category_keywords (
	user_id  TEXT NOT NULL,
	position INTEGER NOT NULL,
	category TEXT NOT NULL,
	keyword  TEXT NOT NULL,
	PRIMARY KEY (user_id, position, keyword)
);
`

const dateLayout = "2006-01-02"

// Store implements store.Store on a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads a user's full state. An unknown user yields a fresh state with
// the default ruleset.
func (s *Store) Load(ctx context.Context, userID string) (*store.State, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}

	rules := classify.NewRuleset()
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, keyword FROM category_keywords WHERE user_id = ? ORDER BY position, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules for user %s: %w", userID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var cat, kw string
		if err := rows.Scan(&cat, &kw); err != nil {
			return nil, fmt.Errorf("failed to scan keyword row: %w", err)
		}
		if kw == "" {
			if !rules.Has(cat) {
				if err := rules.AddCategory(cat); err != nil {
					return nil, err
				}
			}
			continue
		}
		rules.AddKeyword(cat, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rules for user %s: %w", userID, err)
	}

	if rules.Len() == 0 {
		return store.NewState()
	}

	state := &store.State{Rules: rules}
	txRows, err := s.db.QueryContext(ctx,
		`SELECT id, purchase_date, invoice_date, description, amount, category, method, source, future_projection
		 FROM transactions WHERE user_id = ? ORDER BY invoice_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for user %s: %w", userID, err)
	}
	defer txRows.Close()
	for txRows.Next() {
		var (
			id, purchaseStr, invoiceStr, desc, category, method, source string
			amount                                                      float64
			future                                                      bool
		)
		if err := txRows.Scan(&id, &purchaseStr, &invoiceStr, &desc, &amount, &category, &method, &source, &future); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		purchase, err := time.Parse(dateLayout, purchaseStr)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: invalid purchase date: %w", id, err)
		}
		invoice, err := time.Parse(dateLayout, invoiceStr)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: invalid invoice date: %w", id, err)
		}
		tx, err := domain.NewTransaction(id, purchase, invoice, desc, amount, category)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", id, err)
		}
		tx.Method = domain.PaymentMethod(method)
		tx.Source = domain.SourceKind(source)
		if !domain.ValidateMethod(tx.Method) || !domain.ValidateSource(tx.Source) {
			return nil, fmt.Errorf("transaction %s: unknown method %q or source %q", id, method, source)
		}
		tx.FutureProjection = future
		state.Transactions = append(state.Transactions, tx)
	}
	if err := txRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions for user %s: %w", userID, err)
	}
	return state, nil
}

// Save replaces the user's stored state in one transaction.
func (s *Store) Save(ctx context.Context, userID string, state *store.State) error {
	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if err := state.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid state for user %s: %w", userID, err)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save for user %s: %w", userID, err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	if _, err := dbTx.ExecContext(ctx, `DELETE FROM category_keywords WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear rules: %w", err)
	}

	for _, tx := range state.Transactions {
		_, err := dbTx.ExecContext(ctx,
			`INSERT INTO transactions
			 (user_id, id, purchase_date, invoice_date, billing_period, description, amount, category, method, source, future_projection)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, tx.ID, tx.PurchaseDate.Format(dateLayout), tx.InvoiceDate.Format(dateLayout),
			string(tx.BillingPeriod), tx.Description, tx.Amount, tx.Category,
			string(tx.Method), string(tx.Source), tx.FutureProjection)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", tx.ID, err)
		}
	}

	for pos, cat := range state.Rules.Categories() {
		kws := state.Rules.Keywords(cat)
		if len(kws) == 0 {
			// Empty keyword row keeps the category and its position.
			if _, err := dbTx.ExecContext(ctx,
				`INSERT INTO category_keywords (user_id, position, category, keyword) VALUES (?, ?, ?, '')`,
				userID, pos, cat); err != nil {
				return fmt.Errorf("failed to insert category %s: %w", cat, err)
			}
			continue
		}
		for _, kw := range kws {
			if _, err := dbTx.ExecContext(ctx,
				`INSERT INTO category_keywords (user_id, position, category, keyword) VALUES (?, ?, ?, ?)`,
				userID, pos, cat, kw); err != nil {
				return fmt.Errorf("failed to insert keyword %s/%s: %w", cat, kw, err)
			}
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save for user %s: %w", userID, err)
	}
	return nil
}
