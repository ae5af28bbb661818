package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vivid-lct/ai-trend-monitor/internal/config"
	"github.com/vivid-lct/ai-trend-monitor/internal/store"
	"github.com/vivid-lct/ai-trend-monitor/internal/vector"
)

var flagPruneKeepDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show storage statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		st := store.New(config.DataDir(), log)
		records := st.LoadLatest()

		fmt.Printf("Data dir: %s\n", config.DataDir())
		fmt.Printf("Rolling snapshot: %d record(s)\n", len(records))
		if last, ok := st.LastRunTime(); ok {
			fmt.Printf("Last run: %s\n", last.Format(time.RFC3339))
		} else {
			fmt.Println("Last run: never")
		}

		if info, err := os.Stat(config.VectorDBPath()); err == nil {
			ix, err := vector.Open(config.VectorDBPath(), nil, log)
			if err != nil {
				return fmt.Errorf("opening vector index: %w", err)
			}
			defer ix.Close()
			count, err := ix.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("counting index: %w", err)
			}
			fmt.Printf("Vector index: %d record(s), %s\n", count, formatBytes(info.Size()))
		} else {
			fmt.Println("Vector index: not built")
		}
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention window to the rolling snapshot now",
	Long: `Rewrite the rolling snapshot, dropping records older than the retention
window. Uses keep_days from config unless overridden with --keep-days.
Archive shards are never pruned.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		st := store.New(config.DataDir(), log)
		before := len(st.LoadLatest())

		keepDays := cfg.GetKeepDays()
		if flagPruneKeepDays > 0 {
			keepDays = flagPruneKeepDays
		}

		if err := st.Save(nil, keepDays, time.Now().UTC()); err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		pruned := before - len(st.LoadLatest())
		if pruned <= 0 {
			fmt.Println("Nothing to prune.")
		} else {
			fmt.Printf("Pruned %d record(s) older than %dd.\n", pruned, keepDays)
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&flagPruneKeepDays, "keep-days", 0, "override retention window in days")
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
