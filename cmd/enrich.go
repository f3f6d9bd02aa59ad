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
	"github.com/gmgolfo/sales-analyst/internal/store"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run the enrichment pipeline",
	Long: `Fetches the raw collections (leads, pipelines, users, loss reasons),
joins them into the enriched lead table and prints it as JSON.

Examples:
  # Enrich live API data
  sales-analyst enrich

  # Enrich a saved dump with a pinned reference time
  sales-analyst enrich --input dump.json --now 2026-08-01T00:00:00Z

  # Persist the run as a snapshot
  sales-analyst enrich --save`,
	RunE: runEnrich,
}

func init() {
	addDataFlags(enrichCmd)
	enrichCmd.Flags().String("output", "", "write enriched leads to a file instead of stdout")
	enrichCmd.Flags().Bool("save", false, "persist the run as a snapshot in the store")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	leads, now, err := runEnrichment(ctx, cmd)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		st, err := store.New(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		id, err := st.SaveSnapshot(ctx, &store.Snapshot{
			RunAt:   now,
			Summary: report.Summarize(leads),
			Leads:   leads,
		})
		if err != nil {
			return err
		}
		zap.L().Info("enrich: snapshot saved", zap.String("id", id))
	}

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "enrich: create %s", path)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(leads), "enrich: encode output")
}
