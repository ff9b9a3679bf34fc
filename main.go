package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/chrisuehlinger/vibeobserver/config"
	"github.com/chrisuehlinger/vibeobserver/scenario"
	"github.com/chrisuehlinger/vibeobserver/ui"
	"go.uber.org/zap"
)

func main() {
	headless := flag.Bool("headless", false, "Run the scenario without a window and print its entries as JSON")
	verbose := flag.Bool("v", false, "Log observer and script activity to stderr")
	flag.Parse()

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

	// Load the scenario given as argument, or the built-in demo
	sc := ui.DemoScenario()
	if flag.NArg() > 0 {
		loaded, err := config.LoadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		sc = loaded
	}

	if *headless {
		result, err := scenario.NewRunner(logger).Run(context.Background(), sc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		data, err := scenario.ExportJSON([]*scenario.Result{result})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	viewer, err := ui.NewViewer(sc, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	viewer.Run()
}
