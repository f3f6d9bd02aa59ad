package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gmgolfo/sales-analyst/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score active leads",
	Long: `Enriches the lead set, builds win-rate histories from closed deals,
and ranks every in-progress lead with a 1-100 priority score.

Examples:
  # Score live data, table output
  sales-analyst score

  # Only leads scoring 60 or higher, as JSON
  sales-analyst score --min-score 60 --format json

  # Score a saved dump reproducibly
  sales-analyst score --input dump.json --now 2026-08-01T00:00:00Z`,
	RunE: runScore,
}

func init() {
	addDataFlags(scoreCmd)
	scoreCmd.Flags().Int("min-score", 0, "only show leads at or above this normalized score")
	scoreCmd.Flags().String("format", "table", "output format: table or json")
	scoreCmd.Flags().Bool("reasons", false, "include the score breakdown in table output")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return eris.Errorf("score: --format must be table or json (got %q)", format)
	}

	leads, _, err := runEnrichment(ctx, cmd)
	if err != nil {
		return err
	}

	engine := scoring.NewEngine(cfg.Scoring)
	scores := engine.Score(leads)

	if minScore, _ := cmd.Flags().GetInt("min-score"); minScore > 0 {
		filtered := scores[:0]
		for _, s := range scores {
			if s.Score >= minScore {
				filtered = append(filtered, s)
			}
		}
		scores = filtered
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(scores), "score: encode output")
	}

	showReasons, _ := cmd.Flags().GetBool("reasons")
	printScoreTable(scores, showReasons)
	return nil
}

func printScoreTable(scores []scoring.LeadScore, showReasons bool) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tRAW\tLEAD\tEJECUTIVO\tPRECIO")
	for _, s := range scores {
		price := "-"
		if s.Price != nil {
			price = fmt.Sprintf("$%d", *s.Price)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", s.Score, s.RawScore, s.Name, s.ResponsibleName, price)
		if showReasons {
			for _, reason := range s.Reasons {
				fmt.Fprintf(w, "\t\t  %s\t\t\n", reason)
			}
		}
	}
	w.Flush()
	fmt.Printf("\n%d active lead(s) scored\n", len(scores))
}
