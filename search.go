package dirscout

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/dirscout/locate"
	"github.com/pevans/dirscout/store"
)

// SearchResult is one (title, url) pair from the web search collaborator.
type SearchResult struct {
	Title string
	URL   string
}

// Searcher is the full-text web search collaborator used to obtain
// candidate organization homepages. Results are treated as untrusted and
// filtered before use.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// HTMLSearcher queries the DuckDuckGo HTML endpoint and scrapes the result
// anchors. No API key required, which keeps the default deployment
// self-contained.
type HTMLSearcher struct {
	httpClient *http.Client
	userAgent  string
	endpoint   string
}

// NewHTMLSearcher creates a searcher with the given User-Agent.
func NewHTMLSearcher(userAgent string) *HTMLSearcher {
	return &HTMLSearcher{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		userAgent:  userAgent,
		endpoint:   "https://html.duckduckgo.com/html/",
	}
}

// Search runs one query and returns the result links in rank order.
func (s *HTMLSearcher) Search(ctx context.Context, query string) ([]SearchResult, error) {
	searchURL := s.endpoint + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query search engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search engine returned %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	var results []SearchResult
	doc.Find("a.result__a").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		title := strings.Join(strings.Fields(sel.Text()), " ")
		if href == "" || title == "" {
			return
		}
		results = append(results, SearchResult{
			Title: title,
			URL:   unwrapRedirect(href),
		})
	})

	return results, nil
}

// unwrapRedirect strips the DuckDuckGo redirect wrapper (/l/?uddg=...) so
// downstream filtering sees the real destination.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

// excludedResultHosts can never be an organization homepage: social
// platforms, search engines, and reference sites.
var excludedResultHosts = []string{
	"facebook.com", "linkedin.com", "twitter.com", "x.com",
	"instagram.com", "youtube.com", "pinterest.com", "reddit.com",
	"wikipedia.org", "google.com", "bing.com", "yahoo.com",
	"duckduckgo.com", "yelp.com",
}

// directoryTypeKeywords gate URL relevance per directory type.
var directoryTypeKeywords = map[string][]string{
	store.TypeChamberOfCommerce: {"chamber", "commerce", "business", "economic", "trade", "merchant"},
	store.TypeBBB:               {"bbb", "bureau", "better", "business"},
	store.TypeBusinessDirectory: {"directory", "business", "listing", "guide", "yellowpages"},
	store.TypeOther:             {"business", "directory", "association"},
}

// filterSearchResults keeps results plausibly representing an organization
// homepage for the requested kind of directory: known junk hosts, binary
// documents, and URLs with no lexical tie to the directory type or
// location are dropped, and duplicates by normalized URL collapse.
func filterSearchResults(results []SearchResult, dirType, location string) []SearchResult {
	seen := map[string]bool{}
	var kept []SearchResult

	for _, r := range results {
		u, err := url.Parse(r.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		if isExcludedHost(u.Hostname()) {
			continue
		}
		if isBinaryPath(u.Path) {
			continue
		}
		if !looksRelevant(r.URL, dirType, location) {
			continue
		}

		normalized := locate.NormalizeURL(r.URL)
		if seen[normalized] {
			continue
		}
		seen[normalized] = true

		r.URL = normalized
		kept = append(kept, r)
	}

	return kept
}

func isExcludedHost(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, excluded := range excludedResultHosts {
		if host == excluded || strings.HasSuffix(host, "."+excluded) {
			return true
		}
	}
	return false
}

func isBinaryPath(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".zip", ".jpg", ".png"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// looksRelevant requires a type keyword in the URL, plus either a location
// word or, for chambers, another chamber indicator. Mirrors the loose
// lexical gate a human applies scanning search results.
func looksRelevant(rawURL, dirType, location string) bool {
	urlLower := strings.ToLower(rawURL)

	keywords := directoryTypeKeywords[dirType]
	if keywords == nil {
		keywords = directoryTypeKeywords[store.TypeOther]
	}

	keywordMatch := false
	for _, kw := range keywords {
		if strings.Contains(urlLower, kw) {
			keywordMatch = true
			break
		}
	}
	if !keywordMatch {
		return false
	}

	for _, word := range strings.Fields(strings.ToLower(location)) {
		word = strings.Trim(word, ",.")
		if len(word) > 2 && strings.Contains(urlLower, word) {
			return true
		}
	}

	// Chamber sites often name the region obliquely; accept a second
	// chamber indicator instead of the location itself
	if dirType == store.TypeChamberOfCommerce {
		for _, indicator := range []string{"chamber", "commerce", "economic"} {
			if strings.Contains(urlLower, indicator) {
				return true
			}
		}
	}

	return false
}

// searchQueries expands a location and directory type into the query
// phrasings that surface the right organizations.
func searchQueries(location, dirType string) []string {
	switch dirType {
	case store.TypeChamberOfCommerce:
		return []string{
			location + " chamber of commerce",
			"chamber of commerce " + location,
			location + " area chamber",
		}
	case store.TypeBBB:
		return []string{
			"better business bureau " + location,
			"BBB " + location,
		}
	case store.TypeBusinessDirectory:
		return []string{
			location + " business directory",
			"business listing " + location,
			location + " local business guide",
		}
	default:
		return []string{location + " business directory"}
	}
}
