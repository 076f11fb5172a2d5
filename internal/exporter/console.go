package exporter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"sheetetl/pkg/contracts/domain"
)

// PrintTable prints the whole clean table under a DATAFRAME: heading.
func PrintTable(w io.Writer, t *domain.CleanTable) error {
	rows := make([][]string, 0, t.Len())
	for _, rec := range t.Records {
		rows = append(rows, cleanRow(t.Metrics, rec))
	}
	return printBlock(w, "DATAFRAME:", t.Columns(), rows)
}

// PrintTotals prints the per-date totals under a TOTAL: heading.
func PrintTotals(w io.Writer, totals []domain.DailyTotal) error {
	rows := make([][]string, 0, len(totals))
	for _, tot := range totals {
		rows = append(rows, totalsRow(tot))
	}
	return printBlock(w, "TOTAL:", TotalsColumns, rows)
}

func printBlock(w io.Writer, title string, header []string, rows [][]string) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "[%d rows x %d columns]\n\n", len(rows), len(header))
	return err
}
