package dirscout

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/pevans/dirscout/fetch"
	"github.com/pevans/dirscout/store"
)

// fakeFetcher serves canned HTML keyed by URL and records every call, so
// tests can assert which fetch path the pipeline took.
type fakeFetcher struct {
	mu            sync.Mutex
	staticPages   map[string]string
	renderedPages map[string]string
	staticDown    bool
	renderedDown  bool
	staticCalls   []string
	renderedCalls []string
	probeOK       map[string]bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		staticPages:   map[string]string{},
		renderedPages: map[string]string{},
		probeOK:       map[string]bool{},
	}
}

func (f *fakeFetcher) FetchStatic(_ context.Context, pageURL string) (*goquery.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.staticCalls = append(f.staticCalls, pageURL)
	if f.staticDown {
		return nil, fmt.Errorf("get %s: connection refused", pageURL)
	}
	html, ok := f.staticPages[pageURL]
	if !ok {
		return nil, fmt.Errorf("%w: 404 for %s", fetch.ErrHTTPStatus, pageURL)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *fakeFetcher) FetchRendered(_ context.Context, pageURL string) (*goquery.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.renderedCalls = append(f.renderedCalls, pageURL)
	if f.renderedDown {
		return nil, fmt.Errorf("%w: browser session lost", fetch.ErrRenderFailure)
	}
	html, ok := f.renderedPages[pageURL]
	if !ok {
		return nil, fmt.Errorf("%w: navigation failed for %s", fetch.ErrRenderFailure, pageURL)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *fakeFetcher) Probe(_ context.Context, pageURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probeOK[pageURL]
}

func (f *fakeFetcher) renderedCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.renderedCalls)
}

// fakeSearcher returns the same canned results for every query.
type fakeSearcher struct {
	mu      sync.Mutex
	results []SearchResult
	err     error
	queries []string
}

func (s *fakeSearcher) Search(_ context.Context, query string) ([]SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func newTestService(t *testing.T, fetcher Fetcher, searcher Searcher) (*Service, *store.Store) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "dirscout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return NewService(st, fetcher, searcher, nil), st
}

// member is one (name, phone) listing entry for test pages.
type member struct {
	name  string
	phone string
}

// memberListing builds a directory page whose entries repeat the same block
// structure, the shape the structural validator accepts.
func memberListing(members ...member) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Member Directory</title></head><body><div class="directory">`)
	for _, m := range members {
		fmt.Fprintf(&b, `<div class="member"><h3>%s</h3><p>Call %s for service.</p></div>`, m.name, m.phone)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func seedDirectory(t *testing.T, st *store.Store, url string) *store.Directory {
	t.Helper()

	dir, err := st.UpsertDirectory(&store.Directory{
		URL:           url,
		Name:          "Springfield Chamber of Commerce",
		Location:      "Springfield, IL",
		DirectoryType: store.TypeChamberOfCommerce,
	})
	require.NoError(t, err)
	return dir
}
