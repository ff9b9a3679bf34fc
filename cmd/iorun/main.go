// Command iorun runs IntersectionObserver scenarios headlessly and prints the
// entries they produce.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/chrisuehlinger/vibeobserver/scenario"
	"go.uber.org/zap"
)

func main() {
	timeout := flag.Duration("timeout", scenario.DefaultTimeout, "Wall-clock limit per scenario")
	jsonOutput := flag.Bool("json", false, "Output results as JSON")
	verbose := flag.Bool("v", false, "Log observer and script activity to stderr")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <scenario.yaml>...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := scenario.NewRunner(logger)
	runner.Timeout = *timeout

	failed := 0
	for _, path := range flag.Args() {
		fmt.Fprintf(os.Stderr, "Running: %s\n", path)
		result, err := runner.RunFile(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  ERROR: %v\n", err)
			failed++
			continue
		}
		runner.Results = append(runner.Results, result)
		if len(result.Errors) > 0 {
			failed++
		}
		if !*jsonOutput {
			printResult(result)
		}
	}

	if *jsonOutput {
		jsonData, err := scenario.ExportJSON(runner.Results)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	} else {
		fmt.Printf("\nSummary: %d scenarios, %d failed\n", len(flag.Args()), failed)
	}

	if failed > 0 {
		logger.Sync()
		os.Exit(1)
	}
}

func printResult(result *scenario.Result) {
	fmt.Printf("\n%s (%d entries, %s simulated)\n", result.Name, len(result.Entries), result.Duration)
	for _, e := range result.Entries {
		source := e.Source
		if e.Label != "" {
			source += "/" + e.Label
		}
		marker := "○"
		if e.Intersecting {
			marker = "●"
		}
		fmt.Printf("  %s %8.1fms  %-24s ratio=%.3f  [%s]\n", marker, e.Time, e.Target, float64(e.Ratio), source)
	}
	for _, msg := range result.Errors {
		fmt.Printf("  ! %s\n", msg)
	}
}
