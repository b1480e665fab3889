package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ovoda/invoice-tracker/internal/config"
	"github.com/ovoda/invoice-tracker/internal/logger"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	commands := map[string]func(zerolog.Logger, []string){
		"ingest":      runIngest,
		"upload":      runUpload,
		"reparse":     runReparse,
		"inspect":     runInspect,
		"delete":      runDelete,
		"extract":     runExtract,
		"extract-dir": runExtractDir,
		"export":      runExport,
		"dashboard":   runDashboard,
	}

	switch cmd := os.Args[1]; cmd {
	case "help", "-h", "--help":
		printUsage()
	default:
		run, ok := commands[cmd]
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
			printUsage()
			os.Exit(1)
		}
		run(log, os.Args[2:])
	}
}

func printUsage() {
	fmt.Println("Invoice Tracker CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  ingest       Ingest an invoice scan or text file from GCS")
	fmt.Println("  upload       Upload a local scan to GCS and ingest it")
	fmt.Println("  reparse      Re-parse an existing document by ID")
	fmt.Println("  inspect      Show a document, its parsing runs and invoices")
	fmt.Println("  delete       Delete a document with its runs, outputs and invoices")
	fmt.Println("  extract      Extract invoice fields from a local text file or stdin")
	fmt.Println("  extract-dir  Extract every text file in a directory into a spreadsheet")
	fmt.Println("  export       Export stored invoices to an xlsx file")
	fmt.Println("  dashboard    Print the dashboard aggregate as JSON")
	fmt.Println("  help         Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func mustConfig(log zerolog.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	return cfg
}
