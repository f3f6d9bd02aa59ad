package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gmgolfo/sales-analyst/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate summary of the pipeline",
	Long: `Enriches the lead set and prints the aggregate summary: per-state
counts and values, win rate, mean days to close, stalled-lead counts,
and per-executive / per-loss-reason breakdowns.

Examples:
  sales-analyst report
  sales-analyst report --xlsx leads.xlsx`,
	RunE: runReport,
}

func init() {
	addDataFlags(reportCmd)
	reportCmd.Flags().String("xlsx", "", "also export the enriched table to this xlsx file")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	leads, _, err := runEnrichment(ctx, cmd)
	if err != nil {
		return err
	}

	summary := report.Summarize(leads)

	if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
		if err := report.WriteXLSX(leads, path); err != nil {
			return err
		}
		zap.L().Info("report: xlsx written", zap.String("path", path), zap.Int("leads", len(leads)))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(summary), "report: encode output")
}
