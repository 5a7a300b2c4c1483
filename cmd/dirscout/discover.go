package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
)

func handleDiscover(args []string) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	location := fs.String("location", "", "Location to search, e.g. \"Springfield, IL\" (required)")
	types := fs.String("types", "chamber_of_commerce", "Comma-separated directory types to search for")
	maxResults := fs.Int("max", 0, "Maximum directories to return (0 uses the configured default)")
	verbose := fs.Bool("v", false, "Print the discovery trace")
	fs.Parse(args)

	if *location == "" {
		fmt.Fprintln(os.Stderr, "Error: -location is required")
		fs.Usage()
		os.Exit(1)
	}

	var dirTypes []string
	for _, t := range strings.Split(*types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			dirTypes = append(dirTypes, t)
		}
	}

	service, st := openService()
	defer st.Close()

	result, err := service.Discover(context.Background(), *location, dirTypes, *maxResults)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: discovery failed: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		for _, line := range result.Trace {
			fmt.Printf("  %s\n", line)
		}
		fmt.Println()
	}

	printDirectoriesTable(result.Directories)

	rejected := 0
	for _, o := range result.Outcomes {
		if o.Status != "discovered" {
			rejected++
		}
	}
	if rejected > 0 {
		fmt.Printf("%d site(s) evaluated and rejected. Run with -v for details.\n", rejected)
	}
}
