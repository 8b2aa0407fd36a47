package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ratechart/ratechart/internal/format"
	"github.com/ratechart/ratechart/internal/selection"
	"github.com/ratechart/ratechart/internal/series"
)

func newSeriesCmd() *cobra.Command {
	var (
		view        viewFlags
		outFormat   string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Print conversion rates per date",
		Long: `Print the conversion-rate series for the selected variations.

Rates are percentages (conversions / visits * 100). A variation with no
visits on a date shows 0.

Examples:
  ratechart series
  ratechart series --range week --all
  ratechart series -v Original,"Variation A" --format csv > rates.csv
  ratechart series --interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch outFormat {
			case "table", "csv", "json":
			default:
				return fmt.Errorf("invalid format: must be 'table', 'csv' or 'json'")
			}

			ds, err := loadDataset(commandContext(cmd))
			if err != nil {
				return err
			}

			names := ds.VariationNames()
			g, sel, err := view.resolve(names)
			if err != nil {
				return err
			}

			if interactive {
				if g, err = promptRange(g); err != nil {
					return err
				}
				if err := promptVariations(sel, names); err != nil {
					return err
				}
			}

			selected := sel.Names()
			records, err := series.Build(ds, g, selected)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch outFormat {
			case "csv":
				return writeCSV(out, records, selected)
			case "json":
				return writeJSON(out, records)
			default:
				return writeTable(out, records, selected)
			}
		},
	}

	view.register(cmd)
	cmd.Flags().StringVarP(&outFormat, "format", "f", "table", "output format (table, csv or json)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick range and variations interactively")
	return cmd
}

func init() {
	rootCmd.AddCommand(newSeriesCmd())
}

func writeTable(out io.Writer, records []series.Record, selected []string) error {
	if len(records) == 0 {
		fmt.Fprintln(out, "No data.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "DATE")
	for _, name := range selected {
		fmt.Fprintf(w, "\t%s", name)
	}
	fmt.Fprintln(w)

	for _, rec := range records {
		fmt.Fprint(w, rec.Date)
		for _, name := range selected {
			fmt.Fprintf(w, "\t%s", format.Percent(rec.Rate(name)))
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func writeCSV(out io.Writer, records []series.Record, selected []string) error {
	w := csv.NewWriter(out)

	header := append([]string{"date"}, selected...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		row := []string{rec.Date}
		for _, name := range selected {
			row = append(row, strconv.FormatFloat(rec.Rate(name), 'f', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func writeJSON(out io.Writer, records []series.Record) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

func promptRange(current series.Granularity) (series.Granularity, error) {
	ranges := []series.Granularity{series.Day, series.Week}
	cursor := 0
	if current == series.Week {
		cursor = 1
	}

	prompt := promptui.Select{
		Label:     "Time range",
		Items:     []string{"Day", "Week"},
		CursorPos: cursor,
		Size:      2,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return "", err
	}
	return ranges[idx], nil
}

// promptVariations edits sel in a loop until the user picks Done.
func promptVariations(sel *selection.Selection, names []string) error {
	if len(names) == 0 {
		return nil
	}

	for {
		items := make([]string, 0, len(names)+3)
		for _, name := range names {
			mark := "[ ]"
			if sel.Contains(name) {
				mark = "[x]"
			}
			items = append(items, mark+" "+name)
		}
		items = append(items, "Select all", "Select one", "Done")

		prompt := promptui.Select{
			Label: "Variations (" + sel.Label(names) + ")",
			Items: items,
			Size:  len(items),
		}

		idx, _, err := prompt.Run()
		if err != nil {
			if err == promptui.ErrInterrupt {
				os.Exit(0)
			}
			return err
		}

		switch {
		case idx < len(names):
			sel.Toggle(names[idx])
		case idx == len(names):
			sel.SelectAll(names)
		case idx == len(names)+1:
			sel.SelectOne(names[0])
		default:
			return nil
		}
	}
}
