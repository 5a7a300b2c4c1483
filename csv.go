package dirscout

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/pevans/dirscout/store"
)

var csvHeader = []string{
	"business_name",
	"contact_person",
	"phone",
	"email",
	"website",
	"socials",
	"address",
	"scraped_at",
}

// ExportCSV serializes businesses to a CSV document with a fixed header row.
// Multiple social links share one column, separated by "; ".
func ExportCSV(businesses []store.Business) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, b := range businesses {
		row := []string{
			b.BusinessName,
			b.ContactPerson,
			b.Phone,
			b.Email,
			b.Website,
			strings.Join(b.Socials, "; "),
			b.Address,
			b.ScrapedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}

	return buf.String(), nil
}
