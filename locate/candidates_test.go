package locate

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: parse HTML into a goquery document
func parseHTML(t *testing.T, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

// Test helper: a prober that answers true for a fixed set of paths
type fakeProber struct {
	hits map[string]bool
}

func (p *fakeProber) Probe(_ context.Context, probeURL string) bool {
	u, err := url.Parse(probeURL)
	if err != nil {
		return false
	}
	return p.hits[u.Path]
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

const homepageHTML = `
<html><body>
<nav>
  <ul>
    <li><a href="/about">About</a></li>
    <li><a href="/directory">Business Directory</a></li>
    <li><a href="/join">Join</a></li>
  </ul>
</nav>
<main>
  <p>Welcome! <a href="/directory">Browse our members</a> to find local services.</p>
  <a href="/news">Latest News</a>
</main>
<footer>
  <a href="https://facebook.com/chamber">Facebook</a>
</footer>
</body></html>`

// TestCandidates_MultiStrategyBoost verifies that a URL surfaced by several
// strategies outranks single-strategy candidates
func TestCandidates_MultiStrategyBoost(t *testing.T) {
	doc := parseHTML(t, homepageHTML)
	base := mustParseURL(t, "https://chamber.example/")
	scorer := NewScorer(&fakeProber{hits: map[string]bool{"/directory": true}})

	candidates := scorer.Candidates(context.Background(), doc, base)

	require.NotEmpty(t, candidates)
	top := candidates[0]
	assert.Equal(t, "https://chamber.example/directory", top.URL)
	// link analysis + url patterns + nav analysis + content patterns
	assert.Equal(t, 4, top.Score)
	assert.Equal(t, []string{
		StrategyLinkAnalysis,
		StrategyURLPatterns,
		StrategyNavAnalysis,
		StrategyContentPatterns,
	}, top.Strategies)
}

// TestCandidates_NoRecursion verifies only homepage-visible and probed URLs
// appear, never anything expanded beyond one hop
func TestCandidates_NoRecursion(t *testing.T) {
	doc := parseHTML(t, homepageHTML)
	base := mustParseURL(t, "https://chamber.example/")
	scorer := NewScorer(&fakeProber{hits: map[string]bool{}})

	candidates := scorer.Candidates(context.Background(), doc, base)

	for _, c := range candidates {
		assert.Contains(t, c.URL, "chamber.example", "candidates stay on or near the homepage host")
		assert.NotContains(t, c.URL, "facebook.com", "social links never become candidates")
	}
}

// TestCandidates_TokenMatchingIsWordwise verifies substring lookalikes do
// not match directory tokens
func TestCandidates_TokenMatchingIsWordwise(t *testing.T) {
	html := `<html><body>
	<a href="/remembered-stories">Remembered Stories</a>
	<a href="/sibusinesso">Sibusinesso</a>
	<a href="/members">Members</a>
	</body></html>`
	doc := parseHTML(t, html)
	base := mustParseURL(t, "https://chamber.example/")
	scorer := NewScorer(nil)

	candidates := scorer.Candidates(context.Background(), doc, base)

	require.Len(t, candidates, 1)
	assert.Equal(t, "https://chamber.example/members", candidates[0].URL)
}

// TestCandidates_Deterministic verifies stable ordering across runs
func TestCandidates_Deterministic(t *testing.T) {
	html := `<html><body>
	<a href="/members">Members</a>
	<a href="/listings">Listings</a>
	<a href="/directory">Directory</a>
	</body></html>`
	base := mustParseURL(t, "https://chamber.example/")
	scorer := NewScorer(nil)

	first := scorer.Candidates(context.Background(), parseHTML(t, html), base)
	second := scorer.Candidates(context.Background(), parseHTML(t, html), base)

	assert.Equal(t, first, second)
}

// TestPatternProbing verifies probing synthesizes paths off the origin
// independent of homepage links
func TestPatternProbing(t *testing.T) {
	doc := parseHTML(t, `<html><body><p>No links here at all.</p></body></html>`)
	base := mustParseURL(t, "https://chamber.example/")
	scorer := NewScorer(&fakeProber{hits: map[string]bool{"/business-directory": true}})

	candidates := scorer.Candidates(context.Background(), doc, base)

	require.Len(t, candidates, 1)
	assert.Equal(t, "https://chamber.example/business-directory", candidates[0].URL)
	assert.Equal(t, []string{StrategyURLPatterns}, candidates[0].Strategies)
}

// TestNormalizeURL verifies the normalization contract
func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{
			name:     "trailing slash stripped",
			in:       "https://chamber.example/directory/",
			expected: "https://chamber.example/directory",
		},
		{
			name:     "query dropped",
			in:       "https://chamber.example/directory?page=2",
			expected: "https://chamber.example/directory",
		},
		{
			name:     "fragment dropped",
			in:       "https://chamber.example/directory#top",
			expected: "https://chamber.example/directory",
		},
		{
			name:     "host case folded",
			in:       "https://Chamber.Example/Directory",
			expected: "https://chamber.example/Directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeURL(tt.in))
		})
	}
}
