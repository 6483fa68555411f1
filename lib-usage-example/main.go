package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/capscope/capscope/pkg/intake"
	"github.com/capscope/capscope/pkg/merge"
)

// stdLogger adapts the standard library logger to merge.Logger.
type stdLogger struct{}

func (stdLogger) Infof(format string, args ...interface{})  { log.Printf(format, args...) }
func (stdLogger) Warnf(format string, args ...interface{})  { log.Printf("WARN "+format, args...) }
func (stdLogger) Errorf(format string, args ...interface{}) { log.Printf("ERROR "+format, args...) }
func (stdLogger) Debugf(string, ...interface{})             {}

func main() {
	// Usage: go run *.go -dir ./data -intake ./data/INTAKE_DATASET.csv -branch 10210

	dirFlag := flag.String("dir", ".", "Directory holding the CAP extracts and canonical stores")
	intakeFlag := flag.String("intake", intake.DefaultSource, "Intake CSV file or URL")
	branchFlag := flag.String("branch", "", "Branch code to look up")

	// Parse the command-line flags
	flag.Parse()

	ctx := context.Background()

	// Additive merge of the default 2025 rounds
	results := merge.RunBatch(ctx, merge.ResolvePairs(*dirFlag, merge.DefaultPairs()), merge.Options{Log: stdLogger{}, Out: os.Stdout})
	sum := merge.Summarize(results)
	fmt.Printf("%d pair(s): %d added, %d skipped, %d failed\n", sum.Pairs, sum.Inserted, sum.Skipped, sum.Failed)

	if *branchFlag == "" {
		return
	}

	records, err := intake.Load(ctx, *intakeFlag, nil)
	if err != nil {
		log.Fatal(err)
	}

	res := intake.Aggregate(records, intake.Query{BranchCode: *branchFlag})
	for i, year := range res.Years {
		fmt.Println(year, res.Seats[i])
	}
}
