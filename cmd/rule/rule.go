// Package rule manages recurring rules from the command line
package rule

import (
	"fmt"
	"strings"

	"fjacquet/recurring-ledger/cmd/common"
	"fjacquet/recurring-ledger/cmd/root"
	"fjacquet/recurring-ledger/internal/container"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/service"
	"fjacquet/recurring-ledger/internal/validation"

	"github.com/spf13/cobra"
)

// Cmd groups the rule subcommands
var Cmd = &cobra.Command{
	Use:   "rule",
	Short: "Create, list, update and delete recurring rules",
	Long:  `Manage the recurring rules that occurrences are expanded from.`,
}

var (
	addCmd = &cobra.Command{
		Use:   "add",
		Short: "Create a recurring rule",
		Example: `  recurring-ledger rule add -u alice --frequency monthly --amount 1200 --currency USD \
    --start 2024-01-01 --category CAT_ID --description Rent`,
		Args: cobra.NoArgs,
		RunE: runAdd,
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List rules with their next occurrence",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	updateCmd = &cobra.Command{
		Use:   "update RULE_ID",
		Short: "Update a recurring rule",
		Long: `Update a recurring rule. Only the flags given are changed.

--mode all rewrites the rule in place, so past occurrences change too.
--mode future freezes the rule at today and continues with a new rule from today.
--mode auto picks future when the amount, currency, frequency, interval or start date change.`,
		Args: cobra.ExactArgs(1),
		RunE: runUpdate,
	}

	deleteCmd = &cobra.Command{
		Use:   "delete RULE_ID",
		Short: "Delete a recurring rule, keeping its transactions",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}

	addFlags    ruleFlags
	updateFlags ruleFlags
	updateMode  string
)

func init() {
	addFlags.register(addCmd)
	_ = addCmd.MarkFlagRequired("frequency")
	_ = addCmd.MarkFlagRequired("amount")
	_ = addCmd.MarkFlagRequired("start")
	_ = addCmd.MarkFlagRequired("category")

	updateFlags.register(updateCmd)
	updateCmd.Flags().StringVar(&updateMode, "mode", "all", "Update mode: all, future or auto")

	Cmd.AddCommand(addCmd, listCmd, updateCmd, deleteCmd)
}

// ruleFlags holds the editable rule fields as typed on the command line.
type ruleFlags struct {
	frequency   string
	interval    int
	amount      string
	currency    string
	spread      string
	txType      string
	start       string
	end         string
	occurrences int
	category    string
	merchant    string
	description string
	notes       string
	inactive    bool
}

func (f *ruleFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.frequency, "frequency", "", "DAILY, WEEKLY, MONTHLY, YEARLY or ONE_TIME")
	flags.IntVar(&f.interval, "interval", 1, "Number of frequency units between occurrences")
	flags.StringVar(&f.amount, "amount", "", "Amount per occurrence, always positive")
	flags.StringVar(&f.currency, "currency", "USD", "ISO 4217 currency code")
	flags.StringVar(&f.spread, "spread", "0", "Conversion margin in percent")
	flags.StringVar(&f.txType, "type", "EXPENSE", "EXPENSE or INCOME")
	flags.StringVar(&f.start, "start", "", "First occurrence (YYYY-MM-DD or DD.MM.YYYY)")
	flags.StringVar(&f.end, "end", "", "Last possible occurrence, inclusive")
	flags.IntVar(&f.occurrences, "occurrences", 0, "Stop after this many occurrences (0 means no cap)")
	flags.StringVar(&f.category, "category", "", "Category ID")
	flags.StringVar(&f.merchant, "merchant", "", "Merchant ID")
	flags.StringVar(&f.description, "description", "", "Description copied onto occurrences")
	flags.StringVar(&f.notes, "notes", "", "Free-form notes")
	flags.BoolVar(&f.inactive, "inactive", false, "Store the rule as inactive")
}

// apply copies every flag the user set onto fields. With all set, flags
// are applied whether they were given or not.
func (f *ruleFlags) apply(cmd *cobra.Command, fields *models.RuleFields, all bool) error {
	set := func(name string) bool { return all || common.Changed(cmd, name) }

	if set("frequency") {
		freq, err := validation.ParseFrequency(f.frequency)
		if err != nil {
			return err
		}
		fields.Frequency = freq
	}
	if set("interval") {
		fields.Interval = f.interval
	}
	if set("amount") {
		amount, err := common.ParseAmount("amount", f.amount)
		if err != nil {
			return err
		}
		fields.Amount = amount
	}
	if set("currency") {
		fields.Currency = f.currency
	}
	if set("spread") {
		spread, err := common.ParseAmount("spread", f.spread)
		if err != nil {
			return err
		}
		fields.Spread = spread
	}
	if set("type") {
		t, err := validation.ParseTransactionType(f.txType)
		if err != nil {
			return err
		}
		fields.Type = t
	}
	if set("start") {
		start, err := common.ParseDate("startDate", f.start)
		if err != nil {
			return err
		}
		fields.StartDate = start
	}
	if set("end") {
		end, err := common.OptionalDate("endDate", f.end)
		if err != nil {
			return err
		}
		fields.EndDate = end
	}
	if set("occurrences") {
		fields.MaxOccurrences = nil
		if f.occurrences != 0 {
			n := f.occurrences
			fields.MaxOccurrences = &n
		}
	}
	if set("category") {
		fields.CategoryID = strings.TrimSpace(f.category)
	}
	if set("merchant") {
		fields.MerchantID = strings.TrimSpace(f.merchant)
	}
	if set("description") {
		fields.Description = f.description
	}
	if set("notes") {
		fields.Notes = f.notes
	}
	if set("inactive") {
		active := !f.inactive
		fields.IsActive = &active
	}
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	user, err := root.User()
	if err != nil {
		return err
	}
	var fields models.RuleFields
	if err := addFlags.apply(cmd, &fields, true); err != nil {
		return err
	}

	return root.WithContainer(func(c *container.Container) error {
		ctx, cancel := common.Context(cmd)
		defer cancel()

		rule, err := c.GetService().CreateRule(ctx, user, fields)
		if err != nil {
			return err
		}
		return c.GetReportGenerator().RenderRules(cmd.OutOrStdout(),
			[]service.RuleView{{RecurringRule: *rule}}, root.SharedFlags.Format)
	})
}

func runList(cmd *cobra.Command, args []string) error {
	user, err := root.User()
	if err != nil {
		return err
	}
	return root.WithContainer(func(c *container.Container) error {
		ctx, cancel := common.Context(cmd)
		defer cancel()

		rules, err := c.GetService().ListRules(ctx, user)
		if err != nil {
			return err
		}
		c.GetLogger().Debug("Listed rules", logging.Field{Key: logging.FieldCount, Value: len(rules)})
		return c.GetReportGenerator().RenderRules(cmd.OutOrStdout(), rules, root.SharedFlags.Format)
	})
}

func runUpdate(cmd *cobra.Command, args []string) error {
	user, err := root.User()
	if err != nil {
		return err
	}
	mode, ok := models.ParseUpdateMode(updateMode)
	if !ok {
		return fmt.Errorf("invalid --mode %q: expected all, future or auto", updateMode)
	}

	return root.WithContainer(func(c *container.Container) error {
		ctx, cancel := common.Context(cmd)
		defer cancel()

		svc := c.GetService()
		existing, err := c.GetStore().GetRule(ctx, user, args[0])
		if err != nil {
			return err
		}
		fields := existing.Fields()
		if err := updateFlags.apply(cmd, &fields, false); err != nil {
			return err
		}

		result, err := svc.ApplyUpdate(ctx, user, existing.ID, fields, mode)
		if err != nil {
			return err
		}

		views := []service.RuleView{{RecurringRule: result.Rule}}
		if result.Previous != nil {
			views = append(views, service.RuleView{RecurringRule: *result.Previous})
		}
		if root.SharedFlags.Format == "table" {
			fmt.Fprintf(cmd.OutOrStdout(), "Applied update mode %s\n", result.Mode)
		}
		return c.GetReportGenerator().RenderRules(cmd.OutOrStdout(), views, root.SharedFlags.Format)
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	user, err := root.User()
	if err != nil {
		return err
	}
	return root.WithContainer(func(c *container.Container) error {
		ctx, cancel := common.Context(cmd)
		defer cancel()

		if err := c.GetService().DeleteRule(ctx, user, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted rule %s\n", args[0])
		return nil
	})
}
