package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/sarchlab/memspace/datarecording"
	"github.com/sarchlab/memspace/trace"
)

var reportCmd = &cobra.Command{
	Use:   "report [trace-file]",
	Short: "Summarize a recorded allocation trace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SilenceUsage = true

		reader := datarecording.NewReader(args[0])
		defer reader.Close()

		reader.MapTable(trace.TableName, trace.AllocEntry{})

		results, total, err := reader.Query(
			context.Background(), trace.TableName,
			datarecording.QueryParams{OrderBy: "Seq"})
		if err != nil {
			log.Fatalf("Error reading trace: %v", err)
		}

		printSummary(results, total)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func printSummary(results []any, total int) {
	opCounts := map[string]int{}
	wordsAllocated := 0
	peakAllocCount := 0

	for _, result := range results {
		entry := result.(trace.AllocEntry)

		opCounts[entry.Op]++

		if entry.Op == "malloc" {
			wordsAllocated += entry.Length
		}

		if entry.AllocCount > peakAllocCount {
			peakAllocCount = entry.AllocCount
		}
	}

	fmt.Printf("operations:      %d\n", total)
	for _, op := range []string{"malloc", "free", "defrag"} {
		fmt.Printf("  %-14s %d\n", op+":", opCounts[op])
	}
	fmt.Printf("words allocated: %d\n", wordsAllocated)
	fmt.Printf("peak blocks:     %d\n", peakAllocCount)
}
