package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/capscope/capscope/pkg/storage"
	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints merge statistics per canonical store.",
	Long:  "Prints how many merge runs touched each canonical store, how many colleges they added and skipped, and how many failed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openAuditDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No merge runs in the database to generate stats.")
			return nil
		}

		return printStats(os.Stdout, stats)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: db.path from config)")
}

func printStats(out io.Writer, stats []storage.TargetStats) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "STORE\tRUNS\tADDED\tSKIPPED\tFAILED\t")

	var total storage.TargetStats
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t\n", filepath.Base(s.TargetPath), s.Runs, s.Added, s.Skipped, s.Failed)
		total.Runs += s.Runs
		total.Added += s.Added
		total.Skipped += s.Skipped
		total.Failed += s.Failed
	}

	fmt.Fprintln(w, " \t \t \t \t \t")
	fmt.Fprintf(w, "TOTAL\t%d\t%d\t%d\t%d\t\n", total.Runs, total.Added, total.Skipped, total.Failed)

	return w.Flush()
}
