package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/capscope/capscope/internal/utils"
	"github.com/capscope/capscope/pkg/merge"
	"github.com/capscope/capscope/pkg/storage"
	"github.com/spf13/cobra"
)

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Add new colleges from CAP round extracts to the canonical stores",
	Long: `Merges each source extract into its canonical store. Colleges already present
in the store are never modified; only new college keys are appended. A store is
rewritten only when at least one college was added.

Pairs come from --pair flags, then from merge.pairs in the config file, then from
the built-in 2025 CAP1..CAP4 mapping. Relative paths are resolved against --data-dir.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, err := settingsFromConfig(Settings.validateMerge)
		if err != nil {
			return err
		}

		flagPairs, _ := cmd.Flags().GetStringArray("pair")
		dataDir := settings.DataDir
		if cmd.Flags().Changed("data-dir") {
			dataDir, _ = cmd.Flags().GetString("data-dir")
			dataDir = utils.ExpandPath(dataDir)
		}
		concurrency := settings.Concurrency
		if cmd.Flags().Changed("concurrency") {
			concurrency, _ = cmd.Flags().GetInt("concurrency")
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		useDB, _ := cmd.Flags().GetBool("db")
		dbPath, _ := cmd.Flags().GetString("dbpath")
		if dbPath == "" {
			dbPath = settings.DBPath
		}

		pairs, err := resolvePairs(flagPairs, settings.Pairs, dataDir)
		if err != nil {
			return err
		}

		opts := merge.Options{
			Concurrency: concurrency,
			Log:         utils.Log,
			DryRun:      dryRun,
			Out:         os.Stdout,
		}

		if useDB && !dryRun {
			db, err := storage.Open(dbPath, storage.DefaultDBTimeout)
			if err != nil {
				return fmt.Errorf("opening audit database: %w", err)
			}
			defer db.Close()
			opts.Recorder = db
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		results := merge.RunBatch(ctx, pairs, opts)
		printMergeResults(os.Stdout, results)

		sum := merge.Summarize(results)
		utils.Log.Infof("Merge finished: %d pair(s), %d added, %d skipped, %d saved, %d failed",
			sum.Pairs, sum.Inserted, sum.Skipped, sum.Saved, sum.Failed)
		if sum.Failed > 0 {
			return fmt.Errorf("%d of %d pair(s) failed", sum.Failed, sum.Pairs)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().StringArray("pair", nil, "Source and target store as source:target (repeatable)")
	mergeCmd.Flags().String("data-dir", "", "Directory relative pair paths are resolved against (default: data.dir from config)")
	mergeCmd.Flags().Int("concurrency", 1, "Number of pairs merged in parallel")
	mergeCmd.Flags().Bool("dry-run", false, "Report what would be added without writing any store")
	mergeCmd.Flags().Bool("db", false, "Record the run in the audit database")
	mergeCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: db.path from config)")
}

// resolvePairs picks the pair list by precedence: flags, config, built-in.
func resolvePairs(flagPairs []string, configured []merge.Pair, dataDir string) ([]merge.Pair, error) {
	var pairs []merge.Pair
	switch {
	case len(flagPairs) > 0:
		for _, raw := range flagPairs {
			p, err := merge.ParsePair(raw)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, p)
		}
	case len(configured) > 0:
		pairs = configured
	default:
		pairs = merge.DefaultPairs()
	}
	return merge.ResolvePairs(dataDir, pairs), nil
}

func printMergeResults(w io.Writer, results []merge.PairResult) {
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "FAIL   %s: %v\n", r.Pair, r.Err)
		case r.Saved:
			fmt.Fprintf(w, "SAVED  %s: %d added, %d skipped\n", r.Pair, len(r.Inserted), len(r.Skipped))
		case r.Changed():
			fmt.Fprintf(w, "DRY    %s: %d would be added, %d skipped\n", r.Pair, len(r.Inserted), len(r.Skipped))
		default:
			fmt.Fprintf(w, "OK     %s: nothing new, %d skipped\n", r.Pair, len(r.Skipped))
		}
	}
}
