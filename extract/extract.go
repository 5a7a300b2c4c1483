// Package extract maps validated listing blocks to business-contact
// records and scrubs the results. Extraction never fabricates a field:
// anything absent in the markup stays empty, never defaulted to a
// placeholder string.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Record is a raw candidate business record pulled from one listing block.
// It has not yet passed validation and must not be persisted as-is.
type Record struct {
	BusinessName  string
	ContactPerson string
	Phone         string
	Email         string
	Website       string
	Socials       []string
	Address       string
}

var (
	phoneRe   = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	emailRe   = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	addressRe = regexp.MustCompile(`(?i)\d+[^,\n]*\b(?:street|st|avenue|ave|road|rd|drive|dr|lane|ln|blvd|boulevard|way|court|ct|suite|ste)\b\.?[^,\n]*(?:,\s*[^,\n]+){0,2}`)
	// Case-sensitive name portion so "contact us today" never captures
	contactRe = regexp.MustCompile(`(?:Contact|CONTACT|contact):?\s+([A-Z][a-zA-Z.\-']+(?:\s+[A-Z][a-zA-Z.\-']+){1,3})`)
)

// socialHosts are platform domains whose links belong in socials, never in
// the website field.
var socialHosts = []string{
	"facebook.com", "linkedin.com", "twitter.com", "x.com",
	"instagram.com", "youtube.com", "pinterest.com",
}

// titleSelectors locate the name-like node within a block, most specific
// first.
const titleSelectors = "h1, h2, h3, h4, h5, h6, strong, b"

// Records maps each listing block to a raw business record. base is the
// directory page's own URL; links back to it are navigation, not business
// websites.
func Records(blocks []*goquery.Selection, base *url.URL) []Record {
	records := make([]Record, 0, len(blocks))
	for _, block := range blocks {
		records = append(records, fromBlock(block, base))
	}
	return records
}

// fromBlock extracts one record from one block's subtree.
func fromBlock(block *goquery.Selection, base *url.URL) Record {
	text := block.Text()

	r := Record{
		BusinessName: blockName(block),
		Phone:        phoneRe.FindString(text),
		Email:        firstEmail(block, text),
		Address:      strings.TrimSpace(addressRe.FindString(text)),
	}

	if m := contactRe.FindStringSubmatch(text); m != nil {
		r.ContactPerson = m[1]
	}

	r.Website, r.Socials = blockLinks(block, base)

	return r
}

// blockName finds a title-like node for the business name, falling back to
// the block's first text line.
func blockName(block *goquery.Selection) string {
	name := ""
	block.Find(titleSelectors).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text != "" {
			name = text
			return false
		}
		return true
	})
	if name != "" {
		return truncate(name, 150)
	}

	// Fallback: first non-empty line of the block's text
	for _, line := range strings.Split(block.Text(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			return truncate(line, 100)
		}
	}
	return ""
}

// firstEmail prefers a mailto: link over a regex match in text, since the
// markup's own intent is the stronger signal.
func firstEmail(block *goquery.Selection, text string) string {
	email := ""
	block.Find(`a[href^="mailto:"]`).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		if addr != "" {
			email = addr
			return false
		}
		return true
	})
	if email != "" {
		return email
	}
	return emailRe.FindString(text)
}

// blockLinks classifies the block's anchors: social-platform links
// accumulate into socials, and the first outbound link that is neither
// social nor pointing back at the directory's own domain becomes the
// website.
func blockLinks(block *goquery.Selection, base *url.URL) (website string, socials []string) {
	seen := map[string]bool{}

	block.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		link := resolved.String()
		if seen[link] {
			return
		}
		seen[link] = true

		if isSocialHost(resolved.Hostname()) {
			socials = append(socials, link)
			return
		}

		// Links on the directory's own domain are navigation
		if sameHost(resolved.Hostname(), base.Hostname()) {
			return
		}

		if website == "" {
			website = link
		}
	})

	return website, socials
}

func isSocialHost(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, social := range socialHosts {
		if host == social || strings.HasSuffix(host, "."+social) {
			return true
		}
	}
	return false
}

func sameHost(a, b string) bool {
	return strings.TrimPrefix(strings.ToLower(a), "www.") ==
		strings.TrimPrefix(strings.ToLower(b), "www.")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
