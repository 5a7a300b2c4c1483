package locate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Validation is the verdict on whether a candidate page is genuinely a
// business-listing page rather than a generic page that happened to match
// lexical heuristics.
type Validation struct {
	Valid      bool
	Confidence float64
	Reason     string
	// Blocks holds the qualifying repeated listing blocks, ready for the
	// record extractor
	Blocks []*goquery.Selection
}

var (
	phoneLikeRe = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	emailLikeRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
)

// titleSelectors locate a title-like node within a listing block.
const titleSelectors = "h1, h2, h3, h4, h5, h6, strong, b, a"

// ValidatePage decides whether a page is a listing of entities rather than
// prose. A page is valid only when at least minBlocks sibling elements
// share a common parent and a similar tag/attribute shape, and each holds a
// phone-like token, an email-like token, or a distinct title. A membership
// application page matches "member" lexically but contains one form, not a
// repeated list, and fails here -- this check is what makes lexical scoring
// safe to use at all.
func ValidatePage(doc *goquery.Document, minBlocks int) *Validation {
	if minBlocks < 2 {
		minBlocks = 2
	}

	best := findRepeatedBlocks(doc, minBlocks)
	if len(best) < minBlocks {
		return &Validation{
			Valid:      false,
			Confidence: 0,
			Reason:     "no repeated structural blocks with contact signals",
		}
	}

	// More qualifying blocks means more certainty this is a real listing
	confidence := 0.6 + 0.04*float64(len(best)-minBlocks)
	if confidence > 0.95 {
		confidence = 0.95
	}

	return &Validation{
		Valid:      true,
		Confidence: confidence,
		Reason:     fmt.Sprintf("found %d repeated listing blocks", len(best)),
		Blocks:     best,
	}
}

// findRepeatedBlocks walks every parent element, groups its children by
// structural signature, and returns the largest group of siblings that each
// qualify as a listing entry.
func findRepeatedBlocks(doc *goquery.Document, minBlocks int) []*goquery.Selection {
	var best []*goquery.Selection

	doc.Find("body *").Each(func(i int, parent *goquery.Selection) {
		// Navigation chrome is repeated structure too, but never a listing
		if isChrome(parent) {
			return
		}

		children := parent.Children()
		if children.Length() < minBlocks {
			return
		}

		groups := map[string][]*goquery.Selection{}
		children.Each(func(j int, child *goquery.Selection) {
			sig := blockSignature(child)
			if sig == "" {
				return
			}
			groups[sig] = append(groups[sig], child)
		})

		for _, group := range groups {
			if len(group) < minBlocks {
				continue
			}
			qualifying := qualifyingBlocks(group)
			if len(qualifying) >= minBlocks && len(qualifying) > len(best) {
				best = qualifying
			}
		}
	})

	return best
}

// blockSignature captures a child's tag plus its sorted class list. Sibling
// listing entries stamped out by the same template share a signature even
// when their content differs.
func blockSignature(sel *goquery.Selection) string {
	node := sel.Get(0)
	if node == nil {
		return ""
	}

	tag := node.Data
	switch tag {
	case "script", "style", "br", "hr", "noscript":
		return ""
	}

	class, _ := sel.Attr("class")
	classes := strings.Fields(class)
	sort.Strings(classes)

	return tag + "|" + strings.Join(classes, ".")
}

// qualifyingBlocks filters a sibling group down to members that look like
// entity entries: each must carry a phone-like token, an email-like token,
// or a title not repeated by a sibling.
func qualifyingBlocks(group []*goquery.Selection) []*goquery.Selection {
	var qualifying []*goquery.Selection
	seenTitles := map[string]bool{}

	for _, block := range group {
		text := block.Text()

		if phoneLikeRe.MatchString(text) || emailLikeRe.MatchString(text) {
			qualifying = append(qualifying, block)
			continue
		}

		// Title-only blocks qualify when the title is distinct among the
		// siblings and the block carries more than a bare label, so menus
		// of short links don't pass
		title := blockTitle(block)
		compact := strings.Join(strings.Fields(text), " ")
		if title != "" && !seenTitles[strings.ToLower(title)] && len(compact) >= len(title)+10 {
			seenTitles[strings.ToLower(title)] = true
			qualifying = append(qualifying, block)
		}
	}

	return qualifying
}

// isChrome reports whether an element sits inside navigation or page
// chrome rather than content.
func isChrome(sel *goquery.Selection) bool {
	if sel.Is("nav, header, footer, [role=navigation]") {
		return true
	}
	return sel.Closest("nav, header, footer, [role=navigation]").Length() > 0
}

// blockTitle extracts a proper-noun-like title from a block, or "" if the
// block has nothing resembling an entity name.
func blockTitle(block *goquery.Selection) string {
	title := ""
	block.Find(titleSelectors).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if looksLikeProperNoun(text) {
			title = text
			return false
		}
		return true
	})
	return title
}

// looksLikeProperNoun is a cheap test for an entity-name-shaped string:
// starts with an uppercase letter or digit, reasonable length, not shouting
// a sentence.
func looksLikeProperNoun(text string) bool {
	if len(text) < 2 || len(text) > 100 {
		return false
	}

	runes := []rune(text)
	if !unicode.IsUpper(runes[0]) && !unicode.IsDigit(runes[0]) {
		return false
	}

	// Prose ends with sentence punctuation; names don't
	last := runes[len(runes)-1]
	if last == '.' || last == '!' || last == '?' {
		return false
	}

	return true
}
