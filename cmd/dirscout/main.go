package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables win either way.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	subcommand := os.Args[1]
	args := os.Args[2:]

	switch subcommand {
	case "discover":
		handleDiscover(args)
	case "scrape":
		handleScrape(args)
	case "directories":
		handleDirectories(args)
	case "businesses":
		handleBusinesses(args)
	case "export":
		handleExport(args)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("dirscout - Business directory discovery and extraction")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dirscout <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  discover     Search for business directories in a location")
	fmt.Println("  scrape       Scrape businesses from discovered directories")
	fmt.Println("  directories  List discovered directories")
	fmt.Println("  businesses   List scraped businesses")
	fmt.Println("  export       Export a directory's businesses as CSV")
	fmt.Println("  help         Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DIRSCOUT_DB      Path to the SQLite database (default: dirscout.db)")
	fmt.Println("  DIRSCOUT_CONFIG  Path to the YAML config file (default: ~/.dirscout/config.yaml)")
}
