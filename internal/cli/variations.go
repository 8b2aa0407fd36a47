package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ratechart/ratechart/internal/dataset"
	"github.com/ratechart/ratechart/internal/format"
	"github.com/ratechart/ratechart/internal/series"
)

var variationsCmd = &cobra.Command{
	Use:   "variations",
	Short: "List variations with their totals",
	Long: `List every variation in the dataset with total visits, total
conversions and the overall conversion rate.

Example:
  ratechart variations --data ./data.json`,
	Args: cobra.NoArgs,
	RunE: runVariations,
}

func init() {
	rootCmd.AddCommand(variationsCmd)
}

type variationTotals struct {
	Visits      int
	Conversions int
}

func runVariations(cmd *cobra.Command, args []string) error {
	ds, err := loadDataset(commandContext(cmd))
	if err != nil {
		return err
	}

	if len(ds.Variations) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No variations found.")
		return nil
	}

	totals := sumByID(ds)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVISITS\tCONVERSIONS\tRATE")

	for _, v := range ds.Variations {
		t := totals[v.Key()]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			v.Key(),
			v.Name,
			format.Number(t.Visits),
			format.Number(t.Conversions),
			format.Percent(series.ConversionRate(t.Visits, t.Conversions)),
		)
	}

	return w.Flush()
}

func sumByID(ds *dataset.Dataset) map[string]variationTotals {
	totals := make(map[string]variationTotals)
	for _, r := range ds.Data {
		for id, n := range r.Visits {
			t := totals[id]
			t.Visits += n
			totals[id] = t
		}
		for id, n := range r.Conversions {
			t := totals[id]
			t.Conversions += n
			totals[id] = t
		}
	}
	return totals
}
