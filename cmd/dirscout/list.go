package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/pevans/dirscout"
)

func handleDirectories(args []string) {
	fs := flag.NewFlagSet("directories", flag.ExitOnError)
	status := fs.String("status", "", "Filter by scrape status (pending, scraped, failed)")
	asJSON := fs.Bool("json", false, "Print as JSON")
	fs.Parse(args)

	st := openStore()
	defer st.Close()

	dirs, err := st.GetDirectories()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to list directories: %v\n", err)
		os.Exit(1)
	}

	if *status != "" {
		filtered := dirs[:0]
		for _, d := range dirs {
			if d.ScrapeStatus == *status {
				filtered = append(filtered, d)
			}
		}
		dirs = filtered
	}

	if *asJSON {
		printJSON(dirs)
		return
	}
	printDirectoriesTable(dirs)
}

func handleBusinesses(args []string) {
	fs := flag.NewFlagSet("businesses", flag.ExitOnError)
	dirID := fs.String("directory", "", "Only businesses from this directory ID")
	asJSON := fs.Bool("json", false, "Print as JSON")
	fs.Parse(args)

	directoryID := uuid.Nil
	if *dirID != "" {
		id, err := uuid.Parse(*dirID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid directory ID %s: %v\n", *dirID, err)
			os.Exit(1)
		}
		directoryID = id
	}

	st := openStore()
	defer st.Close()

	businesses, err := st.GetBusinesses(directoryID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to list businesses: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		printJSON(businesses)
		return
	}
	printBusinessesTable(businesses)
}

func handleExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("o", "", "Write CSV to this file instead of stdout")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: export takes exactly one directory ID")
		os.Exit(1)
	}

	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid directory ID %s: %v\n", fs.Arg(0), err)
		os.Exit(1)
	}

	st := openStore()
	defer st.Close()

	if _, err := st.GetDirectory(id); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	businesses, err := st.GetBusinesses(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to list businesses: %v\n", err)
		os.Exit(1)
	}

	csvData, err := dirscout.ExportCSV(businesses)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to export CSV: %v\n", err)
		os.Exit(1)
	}

	if *out == "" {
		fmt.Print(csvData)
		return
	}
	if err := os.WriteFile(*out, []byte(csvData), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d businesses to %s\n", len(businesses), *out)
}
