// Package occurrences lists the occurrences expanded from the active rules
package occurrences

import (
	"slices"
	"strings"

	"fjacquet/recurring-ledger/cmd/common"
	"fjacquet/recurring-ledger/cmd/root"
	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/container"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/report"

	"github.com/spf13/cobra"
)

var (
	from    string
	to      string
	summary bool
	status  string
)

// Cmd represents the occurrences command
var Cmd = &cobra.Command{
	Use:     "occurrences",
	Aliases: []string{"occ"},
	Short:   "Show expected occurrences and their status",
	Long: `Expand the active rules into occurrences and classify each one as PAID,
SKIPPED, OVERDUE, DUE or UPCOMING. Without --from and --to the configured
look-back and look-ahead window around today is used.`,
	Args: cobra.NoArgs,
	RunE: run,
}

func init() {
	Cmd.Flags().StringVar(&from, "from", "", "First day of the range (default: today minus lookback)")
	Cmd.Flags().StringVar(&to, "to", "", "Last day of the range (default: today plus lookahead)")
	Cmd.Flags().BoolVarP(&summary, "summary", "s", false, "Print counts and totals per status instead of the list")
	Cmd.Flags().StringVar(&status, "status", "", "Only show occurrences with this status")
}

func run(cmd *cobra.Command, args []string) error {
	user, err := root.User()
	if err != nil {
		return err
	}
	fromDate, err := common.OptionalDate("from", from)
	if err != nil {
		return err
	}
	toDate, err := common.OptionalDate("to", to)
	if err != nil {
		return err
	}

	return root.WithContainer(func(c *container.Container) error {
		ctx, cancel := common.Context(cmd)
		defer cancel()

		svc := c.GetService()
		var occs []models.RecurringOccurrence
		if fromDate == nil && toDate == nil {
			occs, err = svc.Occurrences(ctx, user)
		} else {
			start, end := svc.Window()
			if fromDate != nil {
				start = *fromDate
			}
			if toDate != nil {
				end = *toDate
			}
			occs, err = svc.OccurrencesBetween(ctx, user, start, end)
		}
		if err != nil {
			return err
		}
		occs, err = filter(occs, status)
		if err != nil {
			return err
		}

		c.GetLogger().Debug("Expanded occurrences",
			logging.Field{Key: logging.FieldCount, Value: len(occs)},
			logging.Field{Key: logging.FieldFormat, Value: root.SharedFlags.Format})

		gen := c.GetReportGenerator()
		if summary {
			return gen.RenderSummary(cmd.OutOrStdout(), report.Summarize(occs), root.SharedFlags.Format)
		}
		return gen.Render(cmd.OutOrStdout(), occs, root.SharedFlags.Format)
	})
}

func filter(occs []models.RecurringOccurrence, st string) ([]models.RecurringOccurrence, error) {
	if st == "" {
		return occs, nil
	}
	want := models.OccurrenceStatus(strings.ToUpper(strings.TrimSpace(st)))
	if !slices.Contains(models.AllStatuses, want) {
		return nil, &apperrors.ValidationError{Field: "status", Value: st, Reason: "must be PAID, SKIPPED, OVERDUE, DUE or UPCOMING"}
	}
	out := make([]models.RecurringOccurrence, 0, len(occs))
	for _, o := range occs {
		if o.Status == want {
			out = append(out, o)
		}
	}
	return out, nil
}
