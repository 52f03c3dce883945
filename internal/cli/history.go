package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ycchou/igfetch/internal/adapter/sqlite"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent download runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sqlite.Open(cfg.HistoryDB)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer store.Close()

		records, err := store.History(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-20s %-16s %-7s %6s %7s %7s %6s %6s\n",
			"STARTED", "TARGET", "MODE", "POSTS", "IMAGES", "VIDEOS", "SKIP", "ERRORS")
		for _, rec := range records {
			fmt.Fprintf(w, "%-20s %-16s %-7s %6d %7d %7d %6d %6d\n",
				rec.StartedAt.Format("2006-01-02 15:04:05"),
				rec.Username, rec.Mode, rec.TotalPosts, rec.Images,
				rec.Videos, rec.Skipped, rec.Errors)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
}
