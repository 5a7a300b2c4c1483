package dirscout

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/pevans/dirscout/extract"
	"github.com/pevans/dirscout/locate"
	"github.com/pevans/dirscout/store"
)

// Fetch methods reported in scrape results.
const (
	MethodStatic   = "static"
	MethodRendered = "rendered"
)

// ScrapeResult is the outcome of scraping one directory. Trace is an ordered
// log of the attempt sequence, local to the invocation.
type ScrapeResult struct {
	DirectoryID     uuid.UUID `json:"directory_id"`
	BusinessesFound int       `json:"businesses_found"`
	Method          string    `json:"method,omitempty"`
	Status          string    `json:"status"`
	FailureReason   string    `json:"failure_reason,omitempty"`
	Trace           []string  `json:"trace"`
}

// Scrape runs the fallback pipeline against one stored directory: a static
// fetch first, and a rendered fetch only when the static attempt yields fewer
// than MinViableRecords valid records. The rendered attempt is final; its
// result stands even when it finds less than the static attempt did.
// Persisted businesses are replaced atomically, so a failed re-scrape leaves
// the previous rows intact.
func (s *Service) Scrape(ctx context.Context, directoryID uuid.UUID) (*ScrapeResult, error) {
	dir, err := s.store.GetDirectory(directoryID)
	if err != nil {
		return nil, err
	}

	// Re-scrape starts from a clean slate status-wise.
	if err := s.store.UpdateScrapeStatus(dir.ID, store.StatusPending); err != nil {
		return nil, fmt.Errorf("failed to reset scrape status: %w", err)
	}

	result := &ScrapeResult{DirectoryID: dir.ID}
	result.Trace = append(result.Trace, fmt.Sprintf("scraping %s", dir.URL))

	base, err := url.Parse(dir.URL)
	if err != nil {
		return s.failScrape(result, fmt.Sprintf("unparseable directory url: %v", err))
	}

	// Static attempt.
	method := MethodStatic
	var businesses []store.Business

	doc, err := s.fetcher.FetchStatic(ctx, dir.URL)
	if err != nil {
		result.Trace = append(result.Trace, fmt.Sprintf("static fetch failed: %v", err))
	} else {
		businesses = s.extractBusinesses(doc, base)
		result.Trace = append(result.Trace, fmt.Sprintf("static attempt yielded %d records", len(businesses)))
	}

	// Rendered attempt, only when the static one came up short.
	if err != nil || len(businesses) < s.config.MinViableRecords {
		result.Trace = append(result.Trace, fmt.Sprintf("below %d records, trying rendered fetch", s.config.MinViableRecords))
		method = MethodRendered

		doc, err = s.fetcher.FetchRendered(ctx, dir.URL)
		if err != nil {
			result.Trace = append(result.Trace, fmt.Sprintf("rendered fetch failed: %v", err))
			return s.failScrape(result, fmt.Sprintf("rendered fetch failed: %v", err))
		}

		businesses = s.extractBusinesses(doc, base)
		result.Trace = append(result.Trace, fmt.Sprintf("rendered attempt yielded %d records", len(businesses)))
	}

	if len(businesses) == 0 {
		return s.failScrape(result, ErrExtractionEmpty.Error())
	}

	count, err := s.store.ReplaceBusinesses(dir.ID, businesses)
	if err != nil {
		return s.failScrape(result, fmt.Sprintf("persist failed: %v", err))
	}

	result.BusinessesFound = count
	result.Method = method
	result.Status = store.StatusScraped
	result.Trace = append(result.Trace, fmt.Sprintf("stored %d businesses via %s fetch", count, method))

	log.Printf("INFO: Scraped %s: %d businesses (%s)", dir.URL, count, method)
	return result, nil
}

// failScrape marks the directory failed and finalizes the result. Previously
// stored businesses are left untouched.
func (s *Service) failScrape(result *ScrapeResult, reason string) (*ScrapeResult, error) {
	result.Status = store.StatusFailed
	result.FailureReason = reason
	result.Trace = append(result.Trace, "marking directory failed")

	if err := s.store.UpdateScrapeStatus(result.DirectoryID, store.StatusFailed); err != nil {
		log.Printf("ERROR: Failed to mark directory %s failed: %v", result.DirectoryID, err)
	}

	log.Printf("WARN: Scrape of directory %s failed: %s", result.DirectoryID, reason)
	return result, nil
}

// extractBusinesses runs structural validation and record extraction against
// a fetched page. An invalid page simply yields no records.
func (s *Service) extractBusinesses(doc *goquery.Document, base *url.URL) []store.Business {
	v := locate.ValidatePage(doc, s.config.MinRepeatedBlocks)
	if !v.Valid {
		return nil
	}

	records := extract.Records(v.Blocks, base)
	return extract.Validate(records, base)
}

// ScrapeBatch scrapes several directories through the worker pool. Each entry
// gets its own result; one failure never aborts the batch. Results come back
// in the order the IDs were given.
func (s *Service) ScrapeBatch(ctx context.Context, directoryIDs []uuid.UUID) []ScrapeResult {
	results := make([]ScrapeResult, len(directoryIDs))

	var wg sync.WaitGroup
	for i, id := range directoryIDs {
		select {
		case <-ctx.Done():
			for j := i; j < len(directoryIDs); j++ {
				results[j] = ScrapeResult{
					DirectoryID:   directoryIDs[j],
					Status:        store.StatusFailed,
					FailureReason: ctx.Err().Error(),
				}
			}
			wg.Wait()
			return results
		case s.workSemaphore <- struct{}{}: // Acquire semaphore
			wg.Add(1)
			go func(i int, id uuid.UUID) {
				defer wg.Done()
				defer func() { <-s.workSemaphore }() // Release semaphore

				res, err := s.Scrape(ctx, id)
				if err != nil {
					results[i] = ScrapeResult{
						DirectoryID:   id,
						Status:        store.StatusFailed,
						FailureReason: err.Error(),
					}
					return
				}
				results[i] = *res
			}(i, id)
		}
	}
	wg.Wait()

	return results
}
