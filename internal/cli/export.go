package cli

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ratechart/ratechart/internal/chart"
	"github.com/ratechart/ratechart/internal/series"
)

func newExportCmd() *cobra.Command {
	var (
		view      viewFlags
		line      string
		theme     string
		imgFormat string
		outPath   string
		width     int
		height    int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save the conversion-rate chart as an image",
		Long: `Render the conversion-rate chart and save it as PNG or SVG.

PNG exports are rendered at twice the base resolution. Without --out the
file is named ab-test-chart-<date>.<ext> in the current directory.

Examples:
  ratechart export
  ratechart export --range week --all --line smooth --theme dark
  ratechart export --format svg --out rates.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lineType, err := chart.ParseLineType(line)
			if err != nil {
				return err
			}
			th, err := chart.ParseTheme(theme)
			if err != nil {
				return err
			}
			f, err := chart.ParseFormat(imgFormat)
			if err != nil {
				return err
			}

			ds, err := loadDataset(commandContext(cmd))
			if err != nil {
				return err
			}

			g, sel, err := view.resolve(ds.VariationNames())
			if err != nil {
				return err
			}

			selected := sel.Names()
			records, err := series.Build(ds, g, selected)
			if err != nil {
				return err
			}

			opts := chart.Options{
				Line:   lineType,
				Theme:  th,
				Format: f,
				Width:  width,
				Height: height,
			}
			if f == chart.PNG {
				opts.Scale = chart.ExportScale
			}

			// Render fully before touching the output file
			var buf bytes.Buffer
			if err := chart.Render(&buf, records, selected, opts); err != nil {
				return fmt.Errorf("failed to render chart: %w", err)
			}

			if outPath == "" {
				outPath = chart.ExportFilename(time.Now(), f)
			}
			if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved chart to %s\n", outPath)
			return nil
		},
	}

	view.register(cmd)
	cmd.Flags().StringVarP(&line, "line", "l", string(chart.Linear), "line type (linear, smooth or area)")
	cmd.Flags().StringVarP(&theme, "theme", "t", string(chart.Light), "theme (light or dark)")
	cmd.Flags().StringVarP(&imgFormat, "format", "f", string(chart.PNG), "image format (png or svg)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file")
	cmd.Flags().IntVar(&width, "width", chart.DefaultWidth, "chart width in pixels")
	cmd.Flags().IntVar(&height, "height", chart.DefaultHeight, "chart height in pixels")
	return cmd
}

func init() {
	rootCmd.AddCommand(newExportCmd())
}
