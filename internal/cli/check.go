package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the dataset and report anomalies",
	Long: `Load the dataset, validate its shape and report data anomalies.

Shape problems (bad dates, missing count maps, negative counts) fail the
command. Anomalies such as more conversions than visits or duplicate
variation names are reported but do not fail it.

Example:
  ratechart check --data ./data.json`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ds, err := loadDataset(commandContext(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dataset OK: %d variations, %d days\n", len(ds.Variations), len(ds.Data))

	anomalies := ds.Anomalies()
	if len(anomalies) == 0 {
		return nil
	}

	fmt.Fprintf(out, "\n%d anomalies:\n", len(anomalies))
	for _, a := range anomalies {
		fmt.Fprintf(out, "  - %s\n", a)
	}
	return nil
}
