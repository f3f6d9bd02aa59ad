package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gmgolfo/sales-analyst/pkg/kommo"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Dump the raw Kommo collections as JSON",
	Long: `Fetches leads, pipelines, users and loss reasons from the Kommo API
and writes them as one JSON document. The dump can be fed back to any
command via --input for offline or reproducible runs.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("output", "", "write the dump to a file instead of stdout")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Kommo.BaseURL == "" || cfg.Kommo.Token == "" {
		return eris.New("kommo.base_url and kommo.token are required")
	}

	client := kommo.NewClient(cfg.Kommo.BaseURL, cfg.Kommo.Token,
		kommo.WithRateLimit(cfg.Kommo.RateRPS),
		kommo.WithMaxRetries(cfg.Kommo.MaxRetries),
	)
	raw, err := client.FetchAll(ctx)
	if err != nil {
		return err
	}

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "fetch: create %s", path)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(raw), "fetch: encode output")
}
