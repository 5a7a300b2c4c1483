package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/pevans/dirscout/store"
)

func handleScrape(args []string) {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	all := fs.Bool("all", false, "Scrape every directory with pending status")
	verbose := fs.Bool("v", false, "Print the scrape trace for each directory")
	fs.Parse(args)

	service, st := openService()
	defer st.Close()

	var ids []uuid.UUID
	if *all {
		dirs, err := st.GetDirectories()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list directories: %v\n", err)
			os.Exit(1)
		}
		for _, d := range dirs {
			if d.ScrapeStatus == store.StatusPending {
				ids = append(ids, d.ID)
			}
		}
		if len(ids) == 0 {
			fmt.Println("No pending directories to scrape.")
			return
		}
	} else {
		if fs.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Error: provide directory IDs or -all")
			os.Exit(1)
		}
		for _, arg := range fs.Args() {
			id, err := uuid.Parse(arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: invalid directory ID %s: %v\n", arg, err)
				os.Exit(1)
			}
			ids = append(ids, id)
		}
	}

	results := service.ScrapeBatch(context.Background(), ids)
	for _, r := range results {
		if *verbose {
			for _, line := range r.Trace {
				fmt.Printf("  %s\n", line)
			}
		}
		if r.Status == store.StatusScraped {
			fmt.Printf("%s: %d businesses (%s)\n", r.DirectoryID, r.BusinessesFound, r.Method)
		} else {
			fmt.Printf("%s: failed: %s\n", r.DirectoryID, r.FailureReason)
		}
	}
}
