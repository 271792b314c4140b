// Package approve turns pending occurrences into transactions
package approve

import (
	"fmt"

	"fjacquet/recurring-ledger/cmd/common"
	"fjacquet/recurring-ledger/cmd/root"
	"fjacquet/recurring-ledger/internal/container"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/service"

	"github.com/spf13/cobra"
)

var (
	all         bool
	amount      string
	description string
)

// Cmd represents the approve command
var Cmd = &cobra.Command{
	Use:   "approve [RULE_ID DATE]",
	Short: "Record an occurrence as a real transaction",
	Long: `Record the occurrence of RULE_ID on DATE as a transaction linked to the rule.
With --all every overdue and due occurrence of the default window is recorded
at once, or none of them if one fails.`,
	Example: `  recurring-ledger approve -u alice RULE_ID 2024-03-01 --amount 1250.40
  recurring-ledger approve -u alice --all`,
	Args: func(cmd *cobra.Command, args []string) error {
		if all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: run,
}

func init() {
	Cmd.Flags().BoolVar(&all, "all", false, "Approve every overdue and due occurrence")
	Cmd.Flags().StringVar(&amount, "amount", "", "Actual amount (default: the rule amount)")
	Cmd.Flags().StringVar(&description, "description", "", "Transaction description (default: the rule description)")
	Cmd.MarkFlagsMutuallyExclusive("all", "amount")
	Cmd.MarkFlagsMutuallyExclusive("all", "description")
}

func run(cmd *cobra.Command, args []string) error {
	user, err := root.User()
	if err != nil {
		return err
	}

	var req service.ApproveRequest
	if !all {
		req.RuleID = args[0]
		if req.Date, err = common.ParseDate("date", args[1]); err != nil {
			return err
		}
		if common.Changed(cmd, "amount") {
			a, err := common.ParseAmount("amount", amount)
			if err != nil {
				return err
			}
			req.Amount = &a
		}
		if common.Changed(cmd, "description") {
			d := description
			req.Description = &d
		}
	}

	return root.WithContainer(func(c *container.Container) error {
		ctx, cancel := common.Context(cmd)
		defer cancel()

		svc := c.GetService()
		var txs []models.Transaction
		if all {
			if txs, err = svc.ApproveAll(ctx, user); err != nil {
				return err
			}
			if len(txs) == 0 && root.SharedFlags.Format == "table" {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to approve")
				return nil
			}
		} else {
			tx, err := svc.Approve(ctx, user, req)
			if err != nil {
				return err
			}
			txs = []models.Transaction{*tx}
		}
		return c.GetReportGenerator().RenderTransactions(cmd.OutOrStdout(), txs, root.SharedFlags.Format)
	})
}
