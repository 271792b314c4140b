// Package report renders occurrence listings and their summaries for the CLI
// and for export.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fjacquet/recurring-ledger/internal/currencyutils"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/service"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

// Supported output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatCSV   = "csv"
)

// Generator writes reports in one of the supported formats.
type Generator struct {
	delimiter rune
}

// NewGenerator creates a Generator. delimiter separates CSV cells; an empty
// value means a comma.
func NewGenerator(delimiter string) *Generator {
	d := ','
	if delimiter != "" {
		d = []rune(delimiter)[0]
	}
	return &Generator{delimiter: d}
}

// Render writes occurrences in format.
func (g *Generator) Render(w io.Writer, occs []models.RecurringOccurrence, format string) error {
	if occs == nil {
		occs = []models.RecurringOccurrence{}
	}
	switch format {
	case FormatJSON:
		return writeJSON(w, occs)
	case FormatYAML:
		return writeYAML(w, occs)
	case FormatCSV:
		return g.writeCSV(w, &occs)
	case FormatTable:
		return writeTable(w, []string{"DATE", "STATUS", "DESCRIPTION", "AMOUNT", "CATEGORY", "MERCHANT", "RULE"}, len(occs), func(i int) []string {
			o := occs[i]
			return []string{o.Date.String(), string(o.Status), o.Description, money(o.Amount.StringFixed(2), o.Currency, o.Type), o.CategoryName, dash(o.MerchantName), o.RuleID}
		})
	}
	return unsupported(format)
}

// ruleRow is the flat CSV shape of a rule listing.
type ruleRow struct {
	ID             string `csv:"ID"`
	Description    string `csv:"Description"`
	Frequency      string `csv:"Frequency"`
	Interval       int    `csv:"Interval"`
	Amount         string `csv:"Amount"`
	Currency       string `csv:"Currency"`
	Type           string `csv:"Type"`
	StartDate      string `csv:"StartDate"`
	EndDate        string `csv:"EndDate"`
	Category       string `csv:"Category"`
	Merchant       string `csv:"Merchant"`
	Active         bool   `csv:"Active"`
	NextOccurrence string `csv:"NextOccurrence"`
	Supersedes     string `csv:"Supersedes"`
}

// RenderRules writes a rule listing in format.
func (g *Generator) RenderRules(w io.Writer, rules []service.RuleView, format string) error {
	if rules == nil {
		rules = []service.RuleView{}
	}
	switch format {
	case FormatJSON:
		return writeJSON(w, rules)
	case FormatYAML:
		return writeYAML(w, rules)
	case FormatCSV:
		rows := make([]ruleRow, len(rules))
		for i, r := range rules {
			rows[i] = ruleRow{
				ID:          r.ID,
				Description: r.Description,
				Frequency:   string(r.Frequency),
				Interval:    r.Interval,
				Amount:      r.Amount.StringFixed(2),
				Currency:    r.Currency,
				Type:        string(r.Type),
				StartDate:   r.StartDate.String(),
				Category:    r.CategoryName,
				Merchant:    r.MerchantName,
				Active:      r.IsActive,
				Supersedes:  r.SupersedesRuleID,
			}
			if r.EndDate != nil {
				rows[i].EndDate = r.EndDate.String()
			}
			if r.NextOccurrence != nil {
				rows[i].NextOccurrence = r.NextOccurrence.String()
			}
		}
		return g.writeCSV(w, &rows)
	case FormatTable:
		return writeTable(w, []string{"ID", "DESCRIPTION", "EVERY", "AMOUNT", "START", "END", "NEXT", "ACTIVE"}, len(rules), func(i int) []string {
			r := rules[i]
			end, next := "-", "-"
			if r.EndDate != nil {
				end = r.EndDate.String()
			}
			if r.NextOccurrence != nil {
				next = r.NextOccurrence.String()
			}
			return []string{r.ID, dash(r.Description), every(r.Interval, r.Frequency), money(r.Amount.StringFixed(2), r.Currency, r.Type), r.StartDate.String(), end, next, fmt.Sprint(r.IsActive)}
		})
	}
	return unsupported(format)
}

// RenderTransactions writes transactions in format.
func (g *Generator) RenderTransactions(w io.Writer, txs []models.Transaction, format string) error {
	if txs == nil {
		txs = []models.Transaction{}
	}
	switch format {
	case FormatJSON:
		return writeJSON(w, txs)
	case FormatYAML:
		return writeYAML(w, txs)
	case FormatCSV:
		return g.writeCSV(w, &txs)
	case FormatTable:
		return writeTable(w, []string{"DATE", "DESCRIPTION", "AMOUNT", "ID"}, len(txs), func(i int) []string {
			t := txs[i]
			return []string{t.Date.String(), t.Description, money(t.Amount.StringFixed(2), t.Currency, t.Type), t.ID}
		})
	}
	return unsupported(format)
}

// RenderSummary writes s in format. CSV emits one row per status and currency.
func (g *Generator) RenderSummary(w io.Writer, s Summary, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatYAML:
		return writeYAML(w, s)
	case FormatCSV:
		type row struct {
			Status   string `csv:"Status"`
			Count    int    `csv:"Count"`
			Currency string `csv:"Currency"`
			Amount   string `csv:"Amount"`
		}
		rows := []row{}
		for _, st := range s.Statuses {
			if len(st.Totals) == 0 {
				rows = append(rows, row{Status: string(st.Status), Count: st.Count})
				continue
			}
			for _, m := range st.Totals {
				rows = append(rows, row{Status: string(st.Status), Count: st.Count, Currency: m.Currency, Amount: m.Amount.StringFixed(2)})
			}
		}
		return g.writeCSV(w, &rows)
	case FormatTable:
		err := writeTable(w, []string{"STATUS", "COUNT", "TOTALS"}, len(s.Statuses), func(i int) []string {
			st := s.Statuses[i]
			totals := make([]string, len(st.Totals))
			for j, m := range st.Totals {
				totals[j] = currencyutils.FormatAmount(m.Amount, m.Currency)
			}
			return []string{string(st.Status), fmt.Sprint(st.Count), dash(strings.Join(totals, ", "))}
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "\n%d occurrences\n", s.Total)
		return err
	}
	return unsupported(format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal YAML report: %w", err)
	}
	return enc.Close()
}

func (g *Generator) writeCSV(w io.Writer, rows any) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = g.delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

func writeTable(w io.Writer, header []string, n int, row func(int) []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for i := 0; i < n; i++ {
		fmt.Fprintln(tw, strings.Join(row(i), "\t"))
	}
	return tw.Flush()
}

func unsupported(format string) error {
	return fmt.Errorf("unsupported report format: %s", format)
}

// money prefixes expenses with a minus sign for display only.
func money(amount, currency string, t models.TransactionType) string {
	if t == models.TypeExpense && amount != "0.00" {
		amount = "-" + amount
	}
	return amount + " " + currency
}

func every(interval int, f models.Frequency) string {
	if interval == 1 || f == models.FrequencyOneTime {
		return string(f)
	}
	return fmt.Sprintf("%d x %s", interval, f)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
