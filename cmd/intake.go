package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/capscope/capscope/pkg/intake"
	"github.com/spf13/cobra"
)

const noIntakeData = "No intake data available for this combination"

// intakeCmd represents the intake command
var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Show seats per year for a branch, category and gender",
	Long: `Sums the seats of every intake row matching the branch code (exact or as a
suffix of the choice code), the category (case-insensitive) and the gender, and
prints one line per year.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, err := settingsFromConfig(Settings.validateIntake, Settings.validateAnalytics)
		if err != nil {
			return err
		}

		branch, _ := cmd.Flags().GetString("branch")
		category, _ := cmd.Flags().GetString("category")
		gender, _ := cmd.Flags().GetString("gender")
		asJSON, _ := cmd.Flags().GetBool("json")
		source, _ := cmd.Flags().GetString("source")
		if source == "" {
			source = settings.IntakeSource
		}

		ctx := context.Background()
		records, err := intake.Load(ctx, source, nil)
		if err != nil {
			return err
		}

		result := intake.Aggregate(records, intake.Query{
			BranchCode: branch,
			Category:   category,
			Gender:     gender,
		})

		// The CLI exits right after printing, so the beacon is sent inline.
		newTracker(settings).Track(ctx, "/intake", "")

		return printIntake(os.Stdout, result, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(intakeCmd)
	intakeCmd.Flags().StringP("branch", "b", "", "Branch code, matched exactly or as a choice code suffix")
	intakeCmd.Flags().StringP("category", "c", "", "Seat category, e.g. OPEN (default: any)")
	intakeCmd.Flags().StringP("gender", "g", "", "general or ladies (default: any)")
	intakeCmd.Flags().String("source", "", "Intake CSV file or URL (default: intake.source from config)")
	intakeCmd.Flags().Bool("json", false, "Print the result as JSON")
}

func printIntake(w io.Writer, result intake.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if result.Empty() {
		fmt.Fprintln(w, noIntakeData)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "YEAR\tSEATS\t")
	for i, year := range result.Years {
		fmt.Fprintf(tw, "%s\t%d\t\n", year, result.Seats[i])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d matching record(s)\n", result.MatchCount)
	return nil
}
