// Package skip discards occurrences and restores discarded ones
package skip

import (
	"context"
	"fmt"

	"fjacquet/recurring-ledger/cmd/common"
	"fjacquet/recurring-ledger/cmd/root"
	"fjacquet/recurring-ledger/internal/container"
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/service"

	"github.com/spf13/cobra"
)

var description string

// Cmd represents the skip command
var Cmd = &cobra.Command{
	Use:   "skip RULE_ID DATE",
	Short: "Mark an occurrence as not happening",
	Long: `Mark the occurrence of RULE_ID on DATE as skipped. Depending on
recurring.discard_mode this records a skip marker or a zero-amount
transaction. Skipping twice has no further effect.`,
	Args: cobra.ExactArgs(2),
	RunE: runSkip,
}

// UnskipCmd represents the unskip command
var UnskipCmd = &cobra.Command{
	Use:   "unskip RULE_ID DATE",
	Short: "Remove the skip marker of an occurrence",
	Args:  cobra.ExactArgs(2),
	RunE:  runUnskip,
}

func init() {
	Cmd.Flags().StringVar(&description, "description", "", "Description of the zero-amount transaction in zero_transaction mode")
}

func runSkip(cmd *cobra.Command, args []string) error {
	return withOccurrence(cmd, args, func(ctx context.Context, svc *service.Service, user, ruleID string, date dateutils.Date) error {
		if err := svc.Discard(ctx, user, ruleID, date, description); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Skipped %s on %s\n", ruleID, date)
		return nil
	})
}

func runUnskip(cmd *cobra.Command, args []string) error {
	return withOccurrence(cmd, args, func(ctx context.Context, svc *service.Service, user, ruleID string, date dateutils.Date) error {
		if err := svc.Unskip(ctx, user, ruleID, date); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %s on %s\n", ruleID, date)
		return nil
	})
}

type occurrenceFunc func(ctx context.Context, svc *service.Service, user, ruleID string, date dateutils.Date) error

// withOccurrence checks the user and the RULE_ID DATE arguments before
// opening the container.
func withOccurrence(cmd *cobra.Command, args []string, fn occurrenceFunc) error {
	user, err := root.User()
	if err != nil {
		return err
	}
	date, err := common.ParseDate("date", args[1])
	if err != nil {
		return err
	}
	return root.WithContainer(func(c *container.Container) error {
		ctx, cancel := common.Context(cmd)
		defer cancel()
		return fn(ctx, c.GetService(), user, args[0], date)
	})
}
