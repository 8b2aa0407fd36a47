package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ratechart/ratechart/internal/dataset"
	"github.com/ratechart/ratechart/internal/server"
)

var (
	port  int
	quiet bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the ratechart HTTP server.

The server provides:
  - JSON series API (/api/series, /api/variations)
  - Chart images (/chart.png, /chart.svg)
  - Dashboard for viewing conversion rates
  - Health check endpoint

The dataset is loaded once at startup and never re-read.

Example:
  ratechart serve --data ./data.json --port 8080`,
	RunE: runServe,
}

func init() {
	defaultPort := 8080
	if p := os.Getenv("RC_PORT"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			defaultPort = parsed
		}
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", defaultPort, "port to listen on")
	serveCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "don't print the startup banner")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := loadDataset(ctx)
	if err != nil {
		return err
	}
	logAnomalies(ds)

	srv := server.New(ds, port, getTokenFilePath())
	if quiet {
		return srv.StartWithOptions(ctx, false)
	}
	return srv.Start(ctx)
}

func logAnomalies(ds *dataset.Dataset) {
	for _, a := range ds.Anomalies() {
		log.Printf("warning: %s", a)
	}
}

// cmd.Context is nil when a command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
