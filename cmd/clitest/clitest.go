// Package clitest runs commands through the root command in tests with an
// in-memory store and a fixed clock.
package clitest

import (
	"bytes"
	"context"
	"testing"

	"fjacquet/recurring-ledger/cmd/root"
	"fjacquet/recurring-ledger/internal/clock"
	"fjacquet/recurring-ledger/internal/container"
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// Today is the date the fixed clock reports.
const Today = "2024-03-15"

// Env is the state shared by the commands of one test.
type Env struct {
	Store  *memory.Store
	Clock  *clock.Fixed
	Logger *logging.MockLogger
}

// Setup isolates the test from config files and RECUR_* variables and points
// every container the commands open at a fresh in-memory store. The given
// commands are attached to the root command once.
func Setup(t *testing.T, cmds ...*cobra.Command) *Env {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"RECUR_LOG_LEVEL", "RECUR_LOG_FORMAT", "RECUR_DATABASE_PATH",
		"RECUR_RECURRING_DISCARD_MODE", "RECUR_RECURRING_REQUIRE_MERCHANT",
		"RECUR_RECURRING_REJECT_DUPLICATE_APPROVAL", "RECUR_OUTPUT_CSV_DELIMITER",
	} {
		t.Setenv(key, "")
	}

	root.Init()
	for _, c := range cmds {
		if !attached(c) {
			root.Cmd.AddCommand(c)
		}
	}

	env := &Env{
		Store:  memory.NewStore(),
		Clock:  clock.NewFixedDate(Today),
		Logger: logging.NewMockLogger(),
	}
	previous := root.ContainerOptions
	root.ContainerOptions = []container.Option{
		container.WithStore(env.Store),
		container.WithClock(env.Clock),
		container.WithLogger(env.Logger),
	}
	t.Cleanup(func() { root.ContainerOptions = previous })
	return env
}

// Run executes the root command with args and returns what it wrote.
// Flag values from earlier runs are reset first.
func (e *Env) Run(args ...string) (string, error) {
	resetFlags(root.Cmd)

	var out bytes.Buffer
	root.Cmd.SetOut(&out)
	root.Cmd.SetErr(&out)
	root.Cmd.SetArgs(args)
	err := root.Cmd.Execute()
	return out.String(), err
}

// Category stores an expense category owned by user and returns its ID.
func (e *Env) Category(t *testing.T, user string) string {
	t.Helper()
	c := &models.Category{UserID: user, Name: "Housing", Type: models.TypeExpense}
	require.NoError(t, e.Store.CreateCategory(context.Background(), c))
	return c.ID
}

// MonthlyRule stores an active monthly expense of amount starting on start.
func (e *Env) MonthlyRule(t *testing.T, user, categoryID, amount, start string) models.RecurringRule {
	t.Helper()
	r := &models.RecurringRule{
		UserID:      user,
		Frequency:   models.FrequencyMonthly,
		Interval:    1,
		Amount:      decimal.RequireFromString(amount),
		Currency:    "USD",
		Type:        models.TypeExpense,
		StartDate:   dateutils.MustParse(start),
		CategoryID:  categoryID,
		Description: "Rent",
		IsActive:    true,
	}
	require.NoError(t, e.Store.CreateRule(context.Background(), r))
	return *r
}

func attached(c *cobra.Command) bool {
	for _, existing := range root.Cmd.Commands() {
		if existing == c {
			return true
		}
	}
	return false
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}
