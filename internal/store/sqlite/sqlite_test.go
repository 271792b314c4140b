package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/store"
	"fjacquet/recurring-ledger/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "recurring.db"), logging.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openTemp(t) })
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "recurring.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	cat, _ := storetest.Seed(t, s, "alice")
	rule := storetest.NewRule("alice", cat.ID, "2024-02-29")
	require.NoError(t, s.CreateRule(ctx, &rule))
	_, err = s.UpsertSkip(ctx, rule.ID, dateutils.MustParse("2024-03-29"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetRule(ctx, "alice", rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got.StartDate.String())
	assert.Equal(t, "Housing", got.CategoryName)

	skips, err := reopened.ListSkipsByRuleIDs(ctx, []string{rule.ID})
	require.NoError(t, err)
	require.Len(t, skips, 1)
	assert.Equal(t, "2024-03-29", skips[0].Date.String())
}

func TestWithTx_NestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	cat, _ := storetest.Seed(t, s, "alice")

	err := s.WithTx(ctx, func(outer store.Store) error {
		return outer.WithTx(ctx, func(inner store.Store) error {
			rule := storetest.NewRule("alice", cat.ID, "2024-01-01")
			return inner.CreateRule(ctx, &rule)
		})
	})
	require.NoError(t, err)

	rules, err := s.ListRules(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}

func TestCreateRule_UnknownCategoryRejected(t *testing.T) {
	s := openTemp(t)
	rule := storetest.NewRule("alice", "no-such-category", "2024-01-01")
	assert.Error(t, s.CreateRule(context.Background(), &rule), "foreign key enforced")
}
