// Package firestore persists user state in Cloud Firestore. Transactions
// live in a per-user collection so imports of large histories stay under the
// 1 MiB document limit; the ruleset lives in the user document itself.
package firestore

import (
	"context"
	"fmt"
	"time"

	cfirestore "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rumor-ml/commons.systems/fatura/internal/classify"
	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
	"github.com/rumor-ml/commons.systems/fatura/internal/store"
)

const (
	usersCollection        = "fatura-users"
	transactionsCollection = "transactions"
)

// Store implements store.Store on Firestore.
type Store struct {
	client    *cfirestore.Client
	projectID string
}

// New creates a Firestore-backed store. credentialsFile may be empty, in
// which case Application Default Credentials are used.
func New(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project ID cannot be empty")
	}
	conf := &firebase.Config{ProjectID: projectID}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return &Store{client: client, projectID: projectID}, nil
}

// Close closes the underlying Firestore client.
func (s *Store) Close() error {
	return s.client.Close()
}

// userDoc is the per-user document: the category ruleset plus bookkeeping.
// Keyword lists are a map keyed by category; the separate order array keeps
// first-match classification stable across round trips.
type userDoc struct {
	CategoryOrder    []string            `firestore:"categoryOrder"`
	CategoryKeywords map[string][]string `firestore:"categoryKeywords"`
	UpdatedAt        time.Time           `firestore:"updatedAt"`
}

// txDoc is one transaction document. Dates are ISO strings so the Firestore
// console stays readable and queries can prefix-match on period.
type txDoc struct {
	ID               string  `firestore:"id"`
	PurchaseDate     string  `firestore:"purchaseDate"`
	InvoiceDate      string  `firestore:"invoiceDate"`
	BillingPeriod    string  `firestore:"billingPeriod"`
	Description      string  `firestore:"description"`
	Amount           float64 `firestore:"amount"`
	Category         string  `firestore:"category"`
	Method           string  `firestore:"method"`
	Source           string  `firestore:"source"`
	FutureProjection bool    `firestore:"futureProjection"`
}

const dateLayout = "2006-01-02"

func toDoc(tx domain.Transaction) txDoc {
	return txDoc{
		ID:               tx.ID,
		PurchaseDate:     tx.PurchaseDate.Format(dateLayout),
		InvoiceDate:      tx.InvoiceDate.Format(dateLayout),
		BillingPeriod:    string(tx.BillingPeriod),
		Description:      tx.Description,
		Amount:           tx.Amount,
		Category:         tx.Category,
		Method:           string(tx.Method),
		Source:           string(tx.Source),
		FutureProjection: tx.FutureProjection,
	}
}

func fromDoc(d txDoc) (domain.Transaction, error) {
	purchase, err := time.Parse(dateLayout, d.PurchaseDate)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: invalid purchase date: %w", d.ID, err)
	}
	invoice, err := time.Parse(dateLayout, d.InvoiceDate)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: invalid invoice date: %w", d.ID, err)
	}
	tx, err := domain.NewTransaction(d.ID, purchase, invoice, d.Description, d.Amount, d.Category)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", d.ID, err)
	}
	tx.Method = domain.PaymentMethod(d.Method)
	tx.Source = domain.SourceKind(d.Source)
	if !domain.ValidateMethod(tx.Method) || !domain.ValidateSource(tx.Source) {
		return domain.Transaction{}, fmt.Errorf("transaction %s: unknown method %q or source %q", d.ID, d.Method, d.Source)
	}
	tx.FutureProjection = d.FutureProjection
	return tx, nil
}

// Load fetches the user document and transaction subcollection. A missing
// user yields a fresh state with the default ruleset.
func (s *Store) Load(ctx context.Context, userID string) (*store.State, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}
	ref := s.client.Collection(usersCollection).Doc(userID)

	snap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return store.NewState()
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse user %s: %w", userID, err)
	}

	rules := classify.NewRuleset()
	for _, cat := range doc.CategoryOrder {
		for _, kw := range doc.CategoryKeywords[cat] {
			rules.AddKeyword(cat, kw)
		}
		if !rules.Has(cat) {
			if err := rules.AddCategory(cat); err != nil {
				return nil, fmt.Errorf("user %s: %w", userID, err)
			}
		}
	}

	state := &store.State{Rules: rules}
	iter := ref.Collection(transactionsCollection).OrderBy("invoiceDate", cfirestore.Asc).Documents(ctx)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate transactions for user %s: %w", userID, err)
		}
		var d txDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse transaction: %w", err)
		}
		tx, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		state.Transactions = append(state.Transactions, tx)
	}
	return state, nil
}

// Save replaces the user's stored state. The transaction subcollection is
// rewritten in batches; rows whose IDs disappeared from the state are
// deleted.
func (s *Store) Save(ctx context.Context, userID string, state *store.State) error {
	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if err := state.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid state for user %s: %w", userID, err)
	}

	ref := s.client.Collection(usersCollection).Doc(userID)

	keywords := make(map[string][]string)
	for _, cat := range state.Rules.Categories() {
		keywords[cat] = state.Rules.Keywords(cat)
	}
	doc := userDoc{
		CategoryOrder:    state.Rules.Categories(),
		CategoryKeywords: keywords,
		UpdatedAt:        time.Now().UTC(),
	}
	if _, err := ref.Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to save user %s: %w", userID, err)
	}

	keep := make(map[string]bool, len(state.Transactions))
	bw := s.client.BulkWriter(ctx)
	for _, tx := range state.Transactions {
		keep[tx.ID] = true
		if _, err := bw.Set(ref.Collection(transactionsCollection).Doc(tx.ID), toDoc(tx)); err != nil {
			return fmt.Errorf("failed to queue transaction %s: %w", tx.ID, err)
		}
	}

	iter := ref.Collection(transactionsCollection).Select().Documents(ctx)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to list stored transactions for user %s: %w", userID, err)
		}
		if !keep[snap.Ref.ID] {
			if _, err := bw.Delete(snap.Ref); err != nil {
				return fmt.Errorf("failed to queue delete for %s: %w", snap.Ref.ID, err)
			}
		}
	}
	bw.End()
	return nil
}
