package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pevans/dirscout/store"
)

// printDirectoriesTable prints directories in human-readable format
func printDirectoriesTable(dirs []store.Directory) {
	if len(dirs) == 0 {
		fmt.Println("No directories to display.")
		return
	}

	fmt.Printf("%d directories\n\n", len(dirs))
	for _, d := range dirs {
		name := d.Name
		if len(name) > 70 {
			name = name[:67] + "..."
		}

		fmt.Printf("%s\n", name)
		fmt.Printf("   %s | %s | %s | %d businesses\n",
			d.DirectoryType, d.Location, d.ScrapeStatus, d.BusinessCount)
		fmt.Printf("   URL: %s\n", d.URL)
		fmt.Printf("   ID: %s\n", d.ID.String())
		fmt.Println()
	}
}

// printBusinessesTable prints businesses in human-readable format
func printBusinessesTable(businesses []store.Business) {
	if len(businesses) == 0 {
		fmt.Println("No businesses to display.")
		return
	}

	fmt.Printf("%d businesses\n\n", len(businesses))
	for _, b := range businesses {
		fmt.Printf("%s\n", b.BusinessName)
		if b.ContactPerson != "" {
			fmt.Printf("   Contact: %s\n", b.ContactPerson)
		}
		if b.Phone != "" {
			fmt.Printf("   Phone: %s\n", b.Phone)
		}
		if b.Email != "" {
			fmt.Printf("   Email: %s\n", b.Email)
		}
		if b.Website != "" {
			fmt.Printf("   Website: %s\n", b.Website)
		}
		if b.Address != "" {
			fmt.Printf("   Address: %s\n", b.Address)
		}
		fmt.Println()
	}
}

// printJSON prints any value as indented JSON
func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}
