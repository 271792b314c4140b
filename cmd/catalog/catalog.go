// Package catalog creates the categories and merchants rules refer to
package catalog

import (
	"fmt"

	"fjacquet/recurring-ledger/cmd/common"
	"fjacquet/recurring-ledger/cmd/root"
	"fjacquet/recurring-ledger/internal/container"
	"fjacquet/recurring-ledger/internal/validation"

	"github.com/spf13/cobra"
)

var categoryType string

// Cmd groups the catalog subcommands
var Cmd = &cobra.Command{
	Use:   "catalog",
	Short: "Create categories and merchants",
}

var categoryCmd = &cobra.Command{
	Use:   "category NAME",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategory,
}

var merchantCmd = &cobra.Command{
	Use:   "merchant NAME",
	Short: "Create a merchant",
	Args:  cobra.ExactArgs(1),
	RunE:  runMerchant,
}

func init() {
	categoryCmd.Flags().StringVarP(&categoryType, "type", "t", "EXPENSE", "EXPENSE or INCOME")
	Cmd.AddCommand(categoryCmd, merchantCmd)
}

func runCategory(cmd *cobra.Command, args []string) error {
	user, err := root.User()
	if err != nil {
		return err
	}
	txType, err := validation.ParseTransactionType(categoryType)
	if err != nil {
		return err
	}
	return root.WithContainer(func(c *container.Container) error {
		ctx, cancel := common.Context(cmd)
		defer cancel()

		cat, err := c.GetService().CreateCategory(ctx, user, args[0], txType)
		if err != nil {
			return err
		}
		printCreated(cmd, "category", cat.Name, cat.ID)
		return nil
	})
}

func runMerchant(cmd *cobra.Command, args []string) error {
	user, err := root.User()
	if err != nil {
		return err
	}
	return root.WithContainer(func(c *container.Container) error {
		ctx, cancel := common.Context(cmd)
		defer cancel()

		m, err := c.GetService().CreateMerchant(ctx, user, args[0])
		if err != nil {
			return err
		}
		printCreated(cmd, "merchant", m.Name, m.ID)
		return nil
	})
}

// printCreated prints a sentence for table output and the bare ID otherwise,
// so scripts can capture it.
func printCreated(cmd *cobra.Command, kind, name, id string) {
	if root.SharedFlags.Format == "table" {
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q with ID %s\n", kind, name, id)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
}
