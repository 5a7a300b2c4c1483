package dirscout

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/pevans/dirscout/config"
	"github.com/pevans/dirscout/locate"
	"github.com/pevans/dirscout/store"
)

// Fetcher retrieves pages for the pipelines. *fetch.Client satisfies it;
// tests substitute fakes.
type Fetcher interface {
	FetchStatic(ctx context.Context, pageURL string) (*goquery.Document, error)
	FetchRendered(ctx context.Context, pageURL string) (*goquery.Document, error)
	Probe(ctx context.Context, pageURL string) bool
}

// Outcome statuses reported per evaluated site. One bad site never aborts a
// run; it gets an outcome and the run moves on.
const (
	OutcomeDiscovered = "discovered"
	OutcomeRejected   = "rejected"
	OutcomeError      = "error"
)

// DiscoverOutcome records what happened to one search result during a
// discovery run.
type DiscoverOutcome struct {
	URL    string `json:"url"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// DiscoveryResult is the aggregate of one Discover invocation. Trace is an
// ordered log of the run, local to the invocation.
type DiscoveryResult struct {
	Directories []store.Directory `json:"directories"`
	Outcomes    []DiscoverOutcome `json:"outcomes"`
	Trace       []string          `json:"trace"`
}

// Service wires the search, fetch, locate, extract, and store collaborators
// into the discover and scrape pipelines.
type Service struct {
	store         *store.Store
	fetcher       Fetcher
	searcher      Searcher
	scorer        *locate.Scorer
	config        *config.Config
	workSemaphore chan struct{}
}

// NewService creates a pipeline service. A nil config gets defaults.
func NewService(st *store.Store, fetcher Fetcher, searcher Searcher, cfg *config.Config) *Service {
	if cfg == nil {
		cfg = config.Default()
	}

	return &Service{
		store:         st,
		fetcher:       fetcher,
		searcher:      searcher,
		scorer:        locate.NewScorer(fetcher),
		config:        cfg,
		workSemaphore: make(chan struct{}, cfg.Concurrency),
	}
}

// searchTarget pairs a filtered search result with the directory type whose
// queries produced it.
type searchTarget struct {
	result  SearchResult
	dirType string
}

// Candidate pages checked per site before giving up on it.
const maxCandidateChecks = 5

// Discover searches for business directories serving a location, validates
// each promising site structurally, and persists the ones that hold real
// listing pages. Results across runs are idempotent for a stable searcher:
// URLs are normalized and upserted, never duplicated.
func (s *Service) Discover(ctx context.Context, location string, dirTypes []string, maxResults int) (*DiscoveryResult, error) {
	if strings.TrimSpace(location) == "" {
		return nil, fmt.Errorf("location is required")
	}
	if maxResults <= 0 {
		maxResults = s.config.MaxResults
	}
	if len(dirTypes) == 0 {
		dirTypes = []string{store.TypeChamberOfCommerce}
	}
	for _, dt := range dirTypes {
		if !store.ValidDirectoryType(dt) {
			return nil, store.ErrInvalidDirType
		}
	}

	result := &DiscoveryResult{}
	result.Trace = append(result.Trace, fmt.Sprintf("discovering %s directories for %q", strings.Join(dirTypes, ","), location))

	// Search phase runs serially; candidate evaluation below is the
	// expensive part and runs in the worker pool.
	seen := make(map[string]bool)
	var targets []searchTarget
	for _, dt := range dirTypes {
		for _, query := range searchQueries(location, dt) {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}

			results, err := s.searcher.Search(ctx, query)
			if err != nil {
				log.Printf("WARN: Search %q failed: %v", query, err)
				result.Trace = append(result.Trace, fmt.Sprintf("search %q failed: %v", query, err))
				continue
			}

			for _, r := range filterSearchResults(results, dt, location) {
				key := locate.NormalizeURL(r.URL)
				if seen[key] {
					continue
				}
				seen[key] = true
				targets = append(targets, searchTarget{result: r, dirType: dt})
			}
		}
	}

	result.Trace = append(result.Trace, fmt.Sprintf("%d candidate sites after filtering", len(targets)))
	if len(targets) == 0 {
		return result, nil
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, tgt := range targets {
		select {
		case <-ctx.Done():
			wg.Wait()
			return result, ctx.Err()
		case s.workSemaphore <- struct{}{}: // Acquire semaphore
			wg.Add(1)
			go func(tgt searchTarget) {
				defer wg.Done()
				defer func() { <-s.workSemaphore }() // Release semaphore

				dir, outcome := s.evaluateSite(ctx, tgt, location)

				mu.Lock()
				defer mu.Unlock()
				result.Outcomes = append(result.Outcomes, outcome)
				result.Trace = append(result.Trace, fmt.Sprintf("%s: %s (%s)", outcome.URL, outcome.Status, outcome.Reason))
				if dir != nil {
					result.Directories = append(result.Directories, *dir)
				}
			}(tgt)
		}
	}
	wg.Wait()

	// The pool finishes in whatever order the workers did; sort for a
	// stable response.
	sort.Slice(result.Directories, func(i, j int) bool {
		return result.Directories[i].URL < result.Directories[j].URL
	})
	sort.Slice(result.Outcomes, func(i, j int) bool {
		return result.Outcomes[i].URL < result.Outcomes[j].URL
	})

	if len(result.Directories) > maxResults {
		result.Directories = result.Directories[:maxResults]
	}

	log.Printf("INFO: Discovery for %q found %d directories across %d sites", location, len(result.Directories), len(targets))
	return result, nil
}

// evaluateSite decides whether one search result leads to a real directory
// page. The landing page itself may already be the directory; otherwise the
// scorer proposes one-hop candidates and each is validated in score order.
func (s *Service) evaluateSite(ctx context.Context, tgt searchTarget, location string) (*store.Directory, DiscoverOutcome) {
	pageURL := tgt.result.URL

	doc, err := s.fetcher.FetchStatic(ctx, pageURL)
	if err != nil {
		return nil, DiscoverOutcome{URL: pageURL, Status: OutcomeError, Reason: fmt.Sprintf("fetch failed: %v", err)}
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, DiscoverOutcome{URL: pageURL, Status: OutcomeError, Reason: fmt.Sprintf("unparseable url: %v", err)}
	}

	if v := locate.ValidatePage(doc, s.config.MinRepeatedBlocks); v.Valid {
		return s.recordDirectory(tgt, pageURL, doc, v.Confidence, location)
	}

	checked := 0
	for _, cand := range s.scorer.Candidates(ctx, doc, base) {
		if checked >= maxCandidateChecks || ctx.Err() != nil {
			break
		}
		checked++

		candDoc, err := s.fetcher.FetchStatic(ctx, cand.URL)
		if err != nil {
			log.Printf("WARN: Candidate %s unreachable: %v", cand.URL, err)
			continue
		}

		if v := locate.ValidatePage(candDoc, s.config.MinRepeatedBlocks); v.Valid {
			return s.recordDirectory(tgt, cand.URL, candDoc, v.Confidence, location)
		}
	}

	return nil, DiscoverOutcome{URL: pageURL, Status: OutcomeRejected, Reason: ErrNoValidDirectory.Error()}
}

// recordDirectory upserts a validated directory page and reports it as
// discovered.
func (s *Service) recordDirectory(tgt searchTarget, pageURL string, doc *goquery.Document, confidence float64, location string) (*store.Directory, DiscoverOutcome) {
	dir := &store.Directory{
		URL:           locate.NormalizeURL(pageURL),
		Name:          pageName(doc, tgt.result.Title, pageURL),
		Location:      location,
		DirectoryType: tgt.dirType,
	}

	saved, err := s.store.UpsertDirectory(dir)
	if err != nil {
		return nil, DiscoverOutcome{URL: pageURL, Status: OutcomeError, Reason: fmt.Sprintf("persist failed: %v", err)}
	}

	return saved, DiscoverOutcome{
		URL:    saved.URL,
		Status: OutcomeDiscovered,
		Reason: fmt.Sprintf("validated directory page (confidence %.2f)", confidence),
	}
}

// pageName picks a display name for a directory: the page title, then the
// search result title, then the host.
func pageName(doc *goquery.Document, resultTitle, pageURL string) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return collapseWhitespace(title)
	}
	if resultTitle != "" {
		return resultTitle
	}
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		return u.Host
	}
	return pageURL
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
