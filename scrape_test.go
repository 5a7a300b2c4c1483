package dirscout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/dirscout/store"
)

const dirURL = "https://springfieldchamber.org/directory"

// TestScrape_StaticSufficient verifies that a static fetch yielding enough
// records never triggers a rendered fetch.
func TestScrape_StaticSufficient(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.staticPages[dirURL] = memberListing(
		member{"Acme Plumbing", "(217) 555-0134"},
		member{"Bluebird Bakery", "(217) 555-0178"},
		member{"Capitol Auto Repair", "(217) 555-0192"},
	)

	svc, st := newTestService(t, fetcher, &fakeSearcher{})
	dir := seedDirectory(t, st, dirURL)

	result, err := svc.Scrape(context.Background(), dir.ID)
	require.NoError(t, err)

	assert.Equal(t, store.StatusScraped, result.Status)
	assert.Equal(t, MethodStatic, result.Method)
	assert.Equal(t, 3, result.BusinessesFound)
	assert.Equal(t, 0, fetcher.renderedCallCount())

	businesses, err := st.GetBusinesses(dir.ID)
	require.NoError(t, err)
	assert.Len(t, businesses, 3)

	saved, err := st.GetDirectory(dir.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusScraped, saved.ScrapeStatus)
	assert.Equal(t, 3, saved.BusinessCount)
}

// TestScrape_FallsBackBelowThreshold verifies that a static attempt yielding
// fewer valid records than the viability threshold triggers the rendered
// fetch. The page repeats three blocks so structural validation passes, but
// one entry is a template placeholder and gets dropped by record validation.
func TestScrape_FallsBackBelowThreshold(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.staticPages[dirURL] = memberListing(
		member{"Acme Plumbing", "(217) 555-0134"},
		member{"Bluebird Bakery", "(217) 555-0178"},
		member{"Business Name Here", "(217) 555-0192"},
	)
	fetcher.renderedPages[dirURL] = memberListing(
		member{"Acme Plumbing", "(217) 555-0134"},
		member{"Bluebird Bakery", "(217) 555-0178"},
		member{"Capitol Auto Repair", "(217) 555-0192"},
		member{"Downtown Diner", "(217) 555-0110"},
	)

	svc, st := newTestService(t, fetcher, &fakeSearcher{})
	dir := seedDirectory(t, st, dirURL)

	result, err := svc.Scrape(context.Background(), dir.ID)
	require.NoError(t, err)

	assert.Equal(t, store.StatusScraped, result.Status)
	assert.Equal(t, MethodRendered, result.Method)
	assert.Equal(t, 4, result.BusinessesFound)
	assert.Equal(t, 1, fetcher.renderedCallCount())
}

// TestScrape_ExactlyViableSkipsRendered verifies the threshold boundary: a
// static attempt yielding exactly the minimum number of records is accepted
// as-is.
func TestScrape_ExactlyViableSkipsRendered(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.staticPages[dirURL] = memberListing(
		member{"Acme Plumbing", "(217) 555-0134"},
		member{"Bluebird Bakery", "(217) 555-0178"},
		member{"Capitol Auto Repair", "(217) 555-0192"},
	)
	// A rendered page with more entries exists, but must never be consulted.
	fetcher.renderedPages[dirURL] = memberListing(
		member{"Acme Plumbing", "(217) 555-0134"},
		member{"Bluebird Bakery", "(217) 555-0178"},
		member{"Capitol Auto Repair", "(217) 555-0192"},
		member{"Downtown Diner", "(217) 555-0110"},
	)

	svc, st := newTestService(t, fetcher, &fakeSearcher{})
	dir := seedDirectory(t, st, dirURL)

	result, err := svc.Scrape(context.Background(), dir.ID)
	require.NoError(t, err)

	assert.Equal(t, MethodStatic, result.Method)
	assert.Equal(t, 3, result.BusinessesFound)
	assert.Equal(t, 0, fetcher.renderedCallCount())
}

// TestScrape_StaticErrorGoesRendered verifies that a failed static fetch
// falls straight through to the rendered attempt.
func TestScrape_StaticErrorGoesRendered(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.renderedPages[dirURL] = memberListing(
		member{"Acme Plumbing", "(217) 555-0134"},
		member{"Bluebird Bakery", "(217) 555-0178"},
		member{"Capitol Auto Repair", "(217) 555-0192"},
	)

	svc, st := newTestService(t, fetcher, &fakeSearcher{})
	dir := seedDirectory(t, st, dirURL)

	result, err := svc.Scrape(context.Background(), dir.ID)
	require.NoError(t, err)

	assert.Equal(t, store.StatusScraped, result.Status)
	assert.Equal(t, MethodRendered, result.Method)
	assert.Equal(t, 3, result.BusinessesFound)
}

// TestScrape_RenderedResultIsFinal verifies that the rendered attempt's
// yield stands even when it finds fewer records than the static attempt did.
func TestScrape_RenderedResultIsFinal(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.staticPages[dirURL] = memberListing(
		member{"Acme Plumbing", "(217) 555-0134"},
		member{"Bluebird Bakery", "(217) 555-0178"},
		member{"Member Name", "(217) 555-0192"},
	)
	fetcher.renderedPages[dirURL] = memberListing(
		member{"Capitol Auto Repair", "(217) 555-0192"},
		member{"Member Name", "(217) 555-0110"},
		member{"Business Name Here", "(217) 555-0111"},
	)

	svc, st := newTestService(t, fetcher, &fakeSearcher{})
	dir := seedDirectory(t, st, dirURL)

	result, err := svc.Scrape(context.Background(), dir.ID)
	require.NoError(t, err)

	assert.Equal(t, store.StatusScraped, result.Status)
	assert.Equal(t, MethodRendered, result.Method)
	assert.Equal(t, 1, result.BusinessesFound)
}

// TestScrape_RenderedFailureMarksFailed verifies that a rendered failure
// after an insufficient static attempt ends the scrape with a failed status
// and leaves previously stored businesses untouched.
func TestScrape_RenderedFailureMarksFailed(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.staticPages[dirURL] = memberListing(
		member{"Acme Plumbing", "(217) 555-0134"},
		member{"Bluebird Bakery", "(217) 555-0178"},
		member{"Capitol Auto Repair", "(217) 555-0192"},
	)

	svc, st := newTestService(t, fetcher, &fakeSearcher{})
	dir := seedDirectory(t, st, dirURL)

	// Populate the directory with a successful first scrape.
	first, err := svc.Scrape(context.Background(), dir.ID)
	require.NoError(t, err)
	require.Equal(t, 3, first.BusinessesFound)

	// The site now breaks both fetch paths.
	delete(fetcher.staticPages, dirURL)
	fetcher.renderedDown = true

	result, err := svc.Scrape(context.Background(), dir.ID)
	require.NoError(t, err)

	assert.Equal(t, store.StatusFailed, result.Status)
	assert.Empty(t, result.Method)
	assert.Zero(t, result.BusinessesFound)
	assert.Contains(t, result.FailureReason, "rendered fetch failed")

	// The earlier rows survive the failed re-scrape.
	businesses, err := st.GetBusinesses(dir.ID)
	require.NoError(t, err)
	assert.Len(t, businesses, 3)

	saved, err := st.GetDirectory(dir.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, saved.ScrapeStatus)
}

// TestScrape_EmptyExtractionFails verifies that a rendered page with no
// extractable records marks the directory failed rather than storing an
// empty result set.
func TestScrape_EmptyExtractionFails(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.staticPages[dirURL] = `<html><body><p>Our directory is moving. Check back soon.</p></body></html>`
	fetcher.renderedPages[dirURL] = `<html><body><p>Our directory is moving. Check back soon.</p></body></html>`

	svc, st := newTestService(t, fetcher, &fakeSearcher{})
	dir := seedDirectory(t, st, dirURL)

	result, err := svc.Scrape(context.Background(), dir.ID)
	require.NoError(t, err)

	assert.Equal(t, store.StatusFailed, result.Status)
	assert.Equal(t, ErrExtractionEmpty.Error(), result.FailureReason)
}

// TestScrape_UnknownDirectory verifies the not-found sentinel surfaces for
// IDs that were never discovered.
func TestScrape_UnknownDirectory(t *testing.T) {
	svc, _ := newTestService(t, newFakeFetcher(), &fakeSearcher{})

	_, err := svc.Scrape(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrDirectoryNotFound)
}

// TestScrapeBatch verifies that a batch returns one result per input ID, in
// input order, and that one failing directory never aborts the rest.
func TestScrapeBatch(t *testing.T) {
	goodURL := "https://springfieldchamber.org/directory"
	badURL := "https://brokenchamber.org/members"

	fetcher := newFakeFetcher()
	fetcher.staticPages[goodURL] = memberListing(
		member{"Acme Plumbing", "(217) 555-0134"},
		member{"Bluebird Bakery", "(217) 555-0178"},
		member{"Capitol Auto Repair", "(217) 555-0192"},
	)

	svc, st := newTestService(t, fetcher, &fakeSearcher{})
	good := seedDirectory(t, st, goodURL)
	bad, err := st.UpsertDirectory(&store.Directory{
		URL:           badURL,
		Name:          "Broken Chamber",
		Location:      "Springfield, IL",
		DirectoryType: store.TypeChamberOfCommerce,
	})
	require.NoError(t, err)

	results := svc.ScrapeBatch(context.Background(), []uuid.UUID{bad.ID, good.ID})
	require.Len(t, results, 2)

	assert.Equal(t, bad.ID, results[0].DirectoryID)
	assert.Equal(t, store.StatusFailed, results[0].Status)

	assert.Equal(t, good.ID, results[1].DirectoryID)
	assert.Equal(t, store.StatusScraped, results[1].Status)
	assert.Equal(t, 3, results[1].BusinessesFound)
}
