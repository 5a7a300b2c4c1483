package dirscout

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/dirscout/store"
)

const chamberHomepage = `<html><head><title>Springfield Chamber of Commerce</title></head><body>
<nav><ul>
<li><a href="/about">About</a></li>
<li><a href="/directory">Member Directory</a></li>
<li><a href="/join">Join</a></li>
</ul></nav>
<main><h1>Welcome</h1><p>Serving Springfield businesses since 1913.</p></main>
</body></html>`

func springfieldListing() string {
	return memberListing(
		member{"Acme Plumbing", "(217) 555-0134"},
		member{"Bluebird Bakery", "(217) 555-0178"},
		member{"Capitol Auto Repair", "(217) 555-0192"},
	)
}

// TestDiscover_FindsAndPersistsDirectory verifies the full discovery path:
// search results are filtered, the organization homepage is scored for
// candidate links, and the validated listing page is persisted.
func TestDiscover_FindsAndPersistsDirectory(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.staticPages["https://springfieldchamber.org"] = chamberHomepage
	fetcher.staticPages["https://springfieldchamber.org/directory"] = springfieldListing()

	searcher := &fakeSearcher{results: []SearchResult{
		{Title: "Springfield Chamber of Commerce", URL: "https://springfieldchamber.org/"},
		{Title: "Springfield Chamber on Facebook", URL: "https://www.facebook.com/springfieldchamber"},
	}}

	svc, st := newTestService(t, fetcher, searcher)

	result, err := svc.Discover(context.Background(), "Springfield, IL", nil, 0)
	require.NoError(t, err)

	require.Len(t, result.Directories, 1)
	dir := result.Directories[0]
	assert.Equal(t, "https://springfieldchamber.org/directory", dir.URL)
	assert.Equal(t, store.TypeChamberOfCommerce, dir.DirectoryType)
	assert.Equal(t, "Springfield, IL", dir.Location)
	assert.Equal(t, store.StatusPending, dir.ScrapeStatus)

	// The social profile never reached evaluation.
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, OutcomeDiscovered, result.Outcomes[0].Status)

	saved, err := st.GetDirectories()
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

// TestDiscover_Idempotent verifies that discovering the same location twice
// with a stable searcher yields the same stored directory, not a duplicate.
func TestDiscover_Idempotent(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.staticPages["https://springfieldchamber.org"] = chamberHomepage
	fetcher.staticPages["https://springfieldchamber.org/directory"] = springfieldListing()

	searcher := &fakeSearcher{results: []SearchResult{
		{Title: "Springfield Chamber of Commerce", URL: "https://springfieldchamber.org/"},
	}}

	svc, st := newTestService(t, fetcher, searcher)

	first, err := svc.Discover(context.Background(), "Springfield, IL", nil, 0)
	require.NoError(t, err)
	require.Len(t, first.Directories, 1)

	second, err := svc.Discover(context.Background(), "Springfield, IL", nil, 0)
	require.NoError(t, err)
	require.Len(t, second.Directories, 1)

	assert.Equal(t, first.Directories[0].ID, second.Directories[0].ID)

	saved, err := st.GetDirectories()
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

// TestDiscover_LandingPageIsDirectory verifies that a search result pointing
// straight at a listing page is accepted without a candidate hop.
func TestDiscover_LandingPageIsDirectory(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.staticPages["https://springfieldchamber.org/directory"] = springfieldListing()

	searcher := &fakeSearcher{results: []SearchResult{
		{Title: "Member Directory", URL: "https://springfieldchamber.org/directory"},
	}}

	svc, _ := newTestService(t, fetcher, searcher)

	result, err := svc.Discover(context.Background(), "Springfield, IL", nil, 0)
	require.NoError(t, err)

	require.Len(t, result.Directories, 1)
	assert.Equal(t, "https://springfieldchamber.org/directory", result.Directories[0].URL)
}

// TestDiscover_RejectsSiteWithoutListing verifies that a relevant site with
// no structurally valid listing page produces a rejected outcome and nothing
// persisted.
func TestDiscover_RejectsSiteWithoutListing(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.staticPages["https://springfieldchamber.org"] = chamberHomepage
	fetcher.staticPages["https://springfieldchamber.org/directory"] = `<html><body>
<h1>Membership Application</h1>
<form><input name="business"><input name="phone"><button>Apply</button></form>
</body></html>`

	searcher := &fakeSearcher{results: []SearchResult{
		{Title: "Springfield Chamber of Commerce", URL: "https://springfieldchamber.org/"},
	}}

	svc, st := newTestService(t, fetcher, searcher)

	result, err := svc.Discover(context.Background(), "Springfield, IL", nil, 0)
	require.NoError(t, err)

	assert.Empty(t, result.Directories)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, OutcomeRejected, result.Outcomes[0].Status)
	assert.Equal(t, ErrNoValidDirectory.Error(), result.Outcomes[0].Reason)

	saved, err := st.GetDirectories()
	require.NoError(t, err)
	assert.Empty(t, saved)
}

// TestDiscover_SearchFailureDoesNotAbort verifies that a failing searcher
// produces an empty result with the failure traced, not an error.
func TestDiscover_SearchFailureDoesNotAbort(t *testing.T) {
	searcher := &fakeSearcher{err: fmt.Errorf("search engine returned 503")}

	svc, _ := newTestService(t, newFakeFetcher(), searcher)

	result, err := svc.Discover(context.Background(), "Springfield, IL", nil, 0)
	require.NoError(t, err)

	assert.Empty(t, result.Directories)
	assert.Empty(t, result.Outcomes)
	assert.NotEmpty(t, result.Trace)
}

// TestDiscover_MaxResultsCapsOutput verifies that the directory list is
// truncated to the requested maximum even when more sites validate.
func TestDiscover_MaxResultsCapsOutput(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.staticPages["https://springfieldchamber.org/directory"] = springfieldListing()
	fetcher.staticPages["https://springfieldcommerce.org/members"] = memberListing(
		member{"Downtown Diner", "(217) 555-0110"},
		member{"Elm Street Books", "(217) 555-0155"},
		member{"Fifth Street Florist", "(217) 555-0160"},
	)

	searcher := &fakeSearcher{results: []SearchResult{
		{Title: "Member Directory", URL: "https://springfieldchamber.org/directory"},
		{Title: "Our Members", URL: "https://springfieldcommerce.org/members"},
	}}

	svc, _ := newTestService(t, fetcher, searcher)

	result, err := svc.Discover(context.Background(), "Springfield, IL", nil, 1)
	require.NoError(t, err)

	assert.Len(t, result.Directories, 1)
	assert.Len(t, result.Outcomes, 2)
}

// TestDiscover_ValidatesInput verifies parameter checks.
func TestDiscover_ValidatesInput(t *testing.T) {
	svc, _ := newTestService(t, newFakeFetcher(), &fakeSearcher{})

	_, err := svc.Discover(context.Background(), "", nil, 0)
	assert.Error(t, err)

	_, err = svc.Discover(context.Background(), "Springfield, IL", []string{"bogus"}, 0)
	assert.ErrorIs(t, err, store.ErrInvalidDirType)
}
