package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pevans/dirscout/store"
)

// placeholderNames are boilerplate titles left in template markup. A record
// carrying one of these as its whole name is template junk, not a business.
var placeholderNames = map[string]bool{
	"member name":          true,
	"business name":        true,
	"business name here":   true,
	"your business":        true,
	"your business name":   true,
	"company name":         true,
	"example business":     true,
	"lorem ipsum":          true,
	"home":                 true,
	"about":                true,
	"about us":             true,
	"contact":              true,
	"contact us":           true,
	"join":                 true,
	"join now":             true,
	"login":                true,
	"search":               true,
	"membership":           true,
	"member login":         true,
	"membership application": true,
}

// placeholderPhones are sample numbers that must never be treated as real
// contact data.
var placeholderPhones = map[string]bool{
	"0000000000": true,
	"5555555555": true,
	"1234567890": true,
	"1111111111": true,
	"9999999999": true,
}

// placeholderEmailDomains disqualify an email outright.
var placeholderEmailDomains = map[string]bool{
	"example.com":    true,
	"example.org":    true,
	"test.com":       true,
	"email.com":      true,
	"yourdomain.com": true,
	"domain.com":     true,
}

var (
	digitsOnlyRe = regexp.MustCompile(`\D`)
	emailExactRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	punctRe      = regexp.MustCompile(`[^a-z0-9 ]`)
)

// Validate scrubs raw records and merges duplicates, returning businesses
// ready for persistence. Field-level problems clear the field; a record
// survives only if, after scrubbing, it still has a business name plus at
// least one of phone, email, or website. base is the scraped directory's
// own URL, used to reject self-referential websites.
func Validate(records []Record, base *url.URL) []store.Business {
	var out []store.Business
	index := map[string]int{} // dedup key -> position in out

	for _, r := range records {
		b, ok := scrub(r, base)
		if !ok {
			continue
		}

		key := dedupKey(b)
		if pos, exists := index[key]; key != "" && exists {
			out[pos] = merge(out[pos], b)
			continue
		}

		if key != "" {
			index[key] = len(out)
		}
		out = append(out, b)
	}

	return out
}

// scrub applies the rejection rules to one record.
func scrub(r Record, base *url.URL) (store.Business, bool) {
	var b store.Business

	name := strings.Join(strings.Fields(r.BusinessName), " ")
	if name == "" || placeholderNames[strings.ToLower(name)] {
		return b, false
	}

	// Phone must reduce to 10-11 digits and not be a known sample number
	phone := r.Phone
	if phone != "" {
		digits := digitsOnlyRe.ReplaceAllString(phone, "")
		if len(digits) == 11 && digits[0] == '1' {
			digits = digits[1:]
		}
		if len(digits) != 10 || placeholderPhones[digits] {
			phone = ""
		}
	}

	email := strings.TrimSpace(r.Email)
	if email != "" {
		if !emailExactRe.MatchString(email) || placeholderEmailDomains[emailDomain(email)] {
			email = ""
		}
	}

	website := r.Website
	if website != "" {
		u, err := url.Parse(website)
		if err != nil || sameHost(u.Hostname(), base.Hostname()) || isSocialHost(u.Hostname()) {
			website = ""
		}
	}

	if phone == "" && email == "" && website == "" {
		return b, false
	}

	b = store.Business{
		ID:            uuid.New(),
		BusinessName:  name,
		ContactPerson: r.ContactPerson,
		Phone:         phone,
		Email:         email,
		Website:       website,
		Socials:       r.Socials,
		Address:       strings.TrimSpace(r.Address),
	}
	return b, true
}

// dedupKey combines the folded name with the normalized phone or, failing
// that, the website host. Records with neither phone nor website get no key
// and are kept as-is.
func dedupKey(b store.Business) string {
	name := punctRe.ReplaceAllString(strings.ToLower(b.BusinessName), "")
	name = strings.Join(strings.Fields(name), " ")

	if b.Phone != "" {
		return name + "|" + digitsOnlyRe.ReplaceAllString(b.Phone, "")
	}
	if b.Website != "" {
		if u, err := url.Parse(b.Website); err == nil {
			return name + "|" + strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		}
	}
	return ""
}

// merge folds a later duplicate into the first-seen record, preferring
// whichever side has a value. The first-seen ID is kept.
func merge(first, dup store.Business) store.Business {
	if first.ContactPerson == "" {
		first.ContactPerson = dup.ContactPerson
	}
	if first.Phone == "" {
		first.Phone = dup.Phone
	}
	if first.Email == "" {
		first.Email = dup.Email
	}
	if first.Website == "" {
		first.Website = dup.Website
	}
	if first.Address == "" {
		first.Address = dup.Address
	}

	seen := map[string]bool{}
	for _, s := range first.Socials {
		seen[s] = true
	}
	for _, s := range dup.Socials {
		if !seen[s] {
			first.Socials = append(first.Socials, s)
		}
	}

	return first
}

func emailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
