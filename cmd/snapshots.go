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

	"github.com/gmgolfo/sales-analyst/internal/store"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List saved enrichment runs",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotsList,
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved enrichment runs",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotsList,
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one saved run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotsShow,
}

func init() {
	snapshotsCmd.PersistentFlags().Int("limit", 20, "maximum number of snapshots to list")
	snapshotsCmd.AddCommand(snapshotsListCmd, snapshotsShowCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

func openStore(cmd *cobra.Command) (store.Store, func(), error) {
	ctx := cmd.Context()
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, func() { st.Close() }, nil
}

func runSnapshotsList(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	limit, _ := cmd.Flags().GetInt("limit")
	metas, err := st.ListSnapshots(ctx, store.SnapshotFilter{Limit: limit})
	if err != nil {
		return err
	}

	if len(metas) == 0 {
		fmt.Println("no snapshots saved")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRUN AT\tLEADS\tSAVED AT")
	for _, m := range metas {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			m.ID,
			m.RunAt.Format("2006-01-02 15:04"),
			m.LeadCount,
			m.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func runSnapshotsShow(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	snap, err := st.GetSnapshot(ctx, args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(snap), "snapshots: encode output")
}
