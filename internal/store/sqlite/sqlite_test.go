package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
	"github.com/rumor-ml/commons.systems/fatura/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "fatura.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadUnknownUser(t *testing.T) {
	s := openTestStore(t)

	state, err := s.Load(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, state.Transactions)
	assert.True(t, state.Rules.Has("Transporte"), "fresh state carries default rules")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	state, err := store.NewState()
	require.NoError(t, err)
	state.Rules.AddKeyword("Transporte", "CONECTCAR")
	require.NoError(t, state.Rules.AddCategory("Assinaturas"))

	period, err := domain.ParsePeriod("2026-02")
	require.NoError(t, err)
	tx, err := domain.NewTransaction(domain.NewID(),
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), period.InvoiceDate(),
		"UBER VIAGEM", 45.00, "Transporte")
	require.NoError(t, err)
	tx.FutureProjection = true
	state.Transactions = append(state.Transactions, tx)

	require.NoError(t, s.Save(ctx, "alice", state))

	loaded, err := s.Load(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, state.Rules.Categories(), loaded.Rules.Categories())
	assert.Contains(t, loaded.Rules.Keywords("Transporte"), "CONECTCAR")
	assert.True(t, loaded.Rules.Has("Assinaturas"))
	assert.Empty(t, loaded.Rules.Keywords("Assinaturas"))

	require.Len(t, loaded.Transactions, 1)
	got := loaded.Transactions[0]
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, domain.Period("2026-02"), got.BillingPeriod)
	assert.True(t, got.FutureProjection)
	assert.InDelta(t, 45.00, got.Amount, 1e-9)
}

func TestSaveReplacesPreviousState(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	state, err := store.NewState()
	require.NoError(t, err)
	period, err := domain.ParsePeriod("2026-02")
	require.NoError(t, err)
	old, err := domain.NewTransaction(domain.NewID(),
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), period.InvoiceDate(),
		"ANTIGA", 10.00, "Outros")
	require.NoError(t, err)
	state.Transactions = []domain.Transaction{old}
	require.NoError(t, s.Save(ctx, "alice", state))

	state.Transactions = nil
	require.NoError(t, s.Save(ctx, "alice", state))

	loaded, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, loaded.Transactions)
}

func TestSaveIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	state, err := store.NewState()
	require.NoError(t, err)
	state.Rules.AddKeyword("Lazer", "STEAM JOGOS")
	require.NoError(t, s.Save(ctx, "alice", state))

	bob, err := s.Load(ctx, "bob")
	require.NoError(t, err)
	assert.NotContains(t, bob.Rules.Keywords("Lazer"), "STEAM JOGOS")
}

func TestSaveRejectsInvalidState(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	state, err := store.NewState()
	require.NoError(t, err)
	period, err := domain.ParsePeriod("2026-02")
	require.NoError(t, err)
	tx, err := domain.NewTransaction("dup",
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), period.InvoiceDate(),
		"A", 10.00, "Outros")
	require.NoError(t, err)
	state.Transactions = []domain.Transaction{tx, tx}

	assert.Error(t, s.Save(ctx, "alice", state))
}
