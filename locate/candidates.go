// Package locate finds the business-listing page on an arbitrary, unknown
// website. Four independent strategies propose candidate URLs cheaply from
// lexical and structural signals on the homepage; structural validation of
// the candidates themselves is what keeps the false positives out.
package locate

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy names, in priority order. A candidate proposed by several
// strategies outranks one proposed by a single strategy; ties break on the
// highest-priority strategy that proposed it.
const (
	StrategyLinkAnalysis    = "link_analysis"
	StrategyURLPatterns     = "url_patterns"
	StrategyNavAnalysis     = "nav_analysis"
	StrategyContentPatterns = "content_patterns"
)

var strategyPriority = map[string]int{
	StrategyLinkAnalysis:    1,
	StrategyURLPatterns:     2,
	StrategyNavAnalysis:     3,
	StrategyContentPatterns: 4,
}

// Candidate is a proposed directory-page URL. Candidates are transient:
// they are consumed by page validation and then discarded.
type Candidate struct {
	URL        string   `json:"url"`
	Strategies []string `json:"strategies"`
	Score      int      `json:"score"`
}

// directoryTokens are whole-word tokens that indicate a listing page when
// found in anchor text or a URL path. Matching is token-wise, never
// substring, so "remembered" does not match "member".
var directoryTokens = map[string]bool{
	"directory":   true,
	"directories": true,
	"member":      true,
	"members":     true,
	"membership":  true,
	"business":    true,
	"businesses":  true,
	"listing":     true,
	"listings":    true,
	"roster":      true,
}

// pathTemplates are well-known directory paths probed against the
// homepage's origin, independent of what the homepage links to.
var pathTemplates = []string{
	"/directory",
	"/business-directory",
	"/member-directory",
	"/members",
	"/membership/directory",
	"/directory/members",
	"/businesses",
	"/listings",
	"/find-a-business",
	"/business-listings",
	"/chamber-directory",
	"/our-members",
}

// invitationPhrases are literal invitations to a directory scanned for in
// homepage text.
var invitationPhrases = []string{
	"browse our members",
	"search our directory",
	"member directory",
	"business directory",
	"find a business",
	"find a member",
	"view our members",
	"our member businesses",
}

// skippedHosts are domains an anchor may point at that can never be the
// site's own listing page.
var skippedHosts = []string{
	"facebook.com", "linkedin.com", "twitter.com", "x.com",
	"instagram.com", "youtube.com", "pinterest.com",
}

var tokenSplitter = regexp.MustCompile(`[^a-z0-9]+`)

// Prober performs a lightweight existence check on a URL: HTTP success and
// a non-empty body.
type Prober interface {
	Probe(ctx context.Context, url string) bool
}

// Scorer proposes ranked candidate directory URLs for a homepage.
type Scorer struct {
	prober Prober
}

// NewScorer creates a scorer. The prober backs the URL pattern strategy.
func NewScorer(prober Prober) *Scorer {
	return &Scorer{prober: prober}
}

// Candidates runs all four strategies over a parsed homepage and merges
// their output: deduplicated by normalized URL, score = number of distinct
// strategies that proposed the URL, ordered by descending score with
// deterministic tie-breaks. Candidates stay within one hop of the homepage;
// nothing is expanded recursively.
func (s *Scorer) Candidates(ctx context.Context, doc *goquery.Document, base *url.URL) []Candidate {
	proposals := map[string][]string{} // normalized URL -> strategies

	add := func(strategy string, urls []string) {
		for _, u := range urls {
			found := false
			for _, existing := range proposals[u] {
				if existing == strategy {
					found = true
					break
				}
			}
			if !found {
				proposals[u] = append(proposals[u], strategy)
			}
		}
	}

	add(StrategyLinkAnalysis, linkAnalysis(doc, base))
	add(StrategyURLPatterns, s.patternProbing(ctx, base))
	add(StrategyNavAnalysis, navAnalysis(doc, base))
	add(StrategyContentPatterns, contentPatterns(doc, base))

	candidates := make([]Candidate, 0, len(proposals))
	for u, strategies := range proposals {
		sort.Slice(strategies, func(i, j int) bool {
			return strategyPriority[strategies[i]] < strategyPriority[strategies[j]]
		})
		candidates = append(candidates, Candidate{
			URL:        u,
			Strategies: strategies,
			Score:      len(strategies),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if pa, pb := strategyPriority[a.Strategies[0]], strategyPriority[b.Strategies[0]]; pa != pb {
			return pa < pb
		}
		return a.URL < b.URL
	})

	return candidates
}

// linkAnalysis enumerates every anchor on the homepage and proposes those
// whose link text or path carries a directory-indicating token.
func linkAnalysis(doc *goquery.Document, base *url.URL) []string {
	var urls []string
	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved := resolveCandidateURL(base, href)
		if resolved == "" {
			return
		}
		if hasDirectoryToken(sel.Text()) || hasDirectoryToken(pathOf(resolved)) {
			urls = append(urls, resolved)
		}
	})
	return urls
}

// patternProbing synthesizes well-known directory paths on the homepage's
// origin and keeps the ones that exist. It needs no anchors at all, which
// is what finds directories the homepage never links to directly.
func (s *Scorer) patternProbing(ctx context.Context, base *url.URL) []string {
	if s.prober == nil {
		return nil
	}

	origin := base.Scheme + "://" + base.Host
	var urls []string
	for _, template := range pathTemplates {
		if ctx.Err() != nil {
			return urls
		}
		probeURL := origin + template
		if s.prober.Probe(ctx, probeURL) {
			urls = append(urls, NormalizeURL(probeURL))
		}
	}
	return urls
}

// navAnalysis restricts anchor scanning to elements structurally identified
// as primary navigation. Footer and boilerplate links never enter, which
// buys precision over plain link analysis.
func navAnalysis(doc *goquery.Document, base *url.URL) []string {
	var urls []string
	doc.Find("nav a[href], [role=navigation] a[href], header ul a[href]").Each(func(i int, sel *goquery.Selection) {
		if sel.Closest("footer").Length() > 0 {
			return
		}
		href, _ := sel.Attr("href")
		resolved := resolveCandidateURL(base, href)
		if resolved == "" {
			return
		}
		if hasDirectoryToken(sel.Text()) || hasDirectoryToken(pathOf(resolved)) {
			urls = append(urls, resolved)
		}
	})
	return urls
}

// contentPatterns scans homepage text for literal invitations to a
// directory and resolves the nearest anchor as a high-confidence candidate.
// "Nearest" means the anchor inside the deepest element carrying the
// phrase, falling back to the first anchor in that element's parent.
func contentPatterns(doc *goquery.Document, base *url.URL) []string {
	var urls []string
	doc.Find("body *").Each(func(i int, sel *goquery.Selection) {
		text := strings.ToLower(strings.Join(strings.Fields(sel.Text()), " "))

		for _, phrase := range invitationPhrases {
			if !strings.Contains(text, phrase) {
				continue
			}
			// Only the deepest element holding the phrase resolves an
			// anchor; ancestors would grab unrelated siblings
			if childHoldsPhrase(sel, phrase) {
				continue
			}

			anchor := nearestAnchor(sel)
			if anchor == nil {
				continue
			}
			href, _ := anchor.Attr("href")
			if resolved := resolveCandidateURL(base, href); resolved != "" {
				urls = append(urls, resolved)
			}
			return
		}
	})
	return urls
}

func childHoldsPhrase(sel *goquery.Selection, phrase string) bool {
	holds := false
	sel.Children().EachWithBreak(func(i int, child *goquery.Selection) bool {
		text := strings.ToLower(strings.Join(strings.Fields(child.Text()), " "))
		if strings.Contains(text, phrase) {
			holds = true
			return false
		}
		return true
	})
	return holds
}

// nearestAnchor returns the element itself when it is an anchor, otherwise
// the first anchor under it, otherwise the first anchor under its parent.
func nearestAnchor(sel *goquery.Selection) *goquery.Selection {
	if sel.Is("a[href]") {
		return sel
	}
	if inner := sel.Find("a[href]").First(); inner.Length() > 0 {
		return inner
	}
	if sibling := sel.Parent().Find("a[href]").First(); sibling.Length() > 0 {
		return sibling
	}
	return nil
}

// hasDirectoryToken tokenizes text and reports whether any whole token is a
// directory indicator.
func hasDirectoryToken(text string) bool {
	for _, token := range tokenSplitter.Split(strings.ToLower(text), -1) {
		if directoryTokens[token] {
			return true
		}
	}
	return false
}

// resolveCandidateURL resolves an href against the homepage and normalizes
// it. Returns "" for anchors that cannot be a directory page: non-HTTP
// schemes, fragments, social platforms, and the homepage itself.
func resolveCandidateURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(resolved.Hostname()), "www.")
	for _, skipped := range skippedHosts {
		if host == skipped || strings.HasSuffix(host, "."+skipped) {
			return ""
		}
	}

	normalized := NormalizeURL(resolved.String())
	if normalized == NormalizeURL(base.String()) {
		return ""
	}

	return normalized
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}

// NormalizeURL reduces a URL to scheme+host+path with the trailing slash
// stripped and the query and fragment dropped. Two URLs that normalize the
// same are treated as the same page everywhere in the pipeline.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.TrimSpace(rawURL)
	}

	u.Host = strings.ToLower(u.Host)
	u.Scheme = strings.ToLower(u.Scheme)
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	return u.String()
}
