package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gmgolfo/sales-analyst/internal/enrich"
	"github.com/gmgolfo/sales-analyst/internal/model"
	"github.com/gmgolfo/sales-analyst/pkg/kommo"
)

// loadRawData returns the four raw collections, either from a JSON dump
// (--input) or live from the Kommo API.
func loadRawData(ctx context.Context, inputPath string) (*kommo.RawData, error) {
	if inputPath != "" {
		f, err := os.Open(inputPath)
		if err != nil {
			return nil, eris.Wrapf(err, "open input %s", inputPath)
		}
		defer f.Close()

		var raw kommo.RawData
		if err := json.NewDecoder(f).Decode(&raw); err != nil {
			return nil, eris.Wrapf(err, "decode input %s", inputPath)
		}
		return &raw, nil
	}

	if cfg.Kommo.BaseURL == "" || cfg.Kommo.Token == "" {
		return nil, eris.New("kommo.base_url and kommo.token are required to fetch (or pass --input)")
	}

	client := kommo.NewClient(cfg.Kommo.BaseURL, cfg.Kommo.Token,
		kommo.WithRateLimit(cfg.Kommo.RateRPS),
		kommo.WithMaxRetries(cfg.Kommo.MaxRetries),
	)
	return client.FetchAll(ctx)
}

// resolveNow parses the --now override or defaults to the wall clock.
// Passing the reference time into the pipeline keeps runs reproducible.
func resolveNow(nowFlag string) (time.Time, error) {
	if nowFlag == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, nowFlag)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "parse --now %q", nowFlag)
	}
	return t, nil
}

// runEnrichment is the shared fetch-then-enrich path used by most
// commands.
func runEnrichment(ctx context.Context, cmd *cobra.Command) ([]model.EnrichedLead, time.Time, error) {
	inputPath, _ := cmd.Flags().GetString("input")
	nowFlag, _ := cmd.Flags().GetString("now")

	now, err := resolveNow(nowFlag)
	if err != nil {
		return nil, time.Time{}, err
	}

	raw, err := loadRawData(ctx, inputPath)
	if err != nil {
		return nil, time.Time{}, err
	}

	enricher, err := enrich.New(cfg.Enrich)
	if err != nil {
		return nil, time.Time{}, err
	}

	return enricher.Run(raw, now), now, nil
}

// addDataFlags registers the raw-data source flags shared by enrich,
// score, report and serve.
func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", "", "read raw collections from a JSON dump instead of the API")
	cmd.Flags().String("now", "", "reference time for staleness math, RFC3339 (default: wall clock)")
}
