package discovery

import (
	"regexp"
	"strings"
)

// minDomainLength guards against burning paid API quota on garbage input:
// domains shorter than this are treated as implausible.
const minDomainLength = 4

var companySlugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// corporateSuffixes are stripped from company names before building a
// fallback domain guess.
var corporateSuffixes = []string{
	"inc", "inc.", "llc", "llc.", "ltd", "ltd.", "co", "co.",
	"corp", "corp.", "corporation", "company", "gmbh", "plc",
}

// DeriveDomain returns a bare registrable domain from a site URL if present,
// otherwise a best-effort guess from the company name. Returns "" when no
// plausible domain can be derived.
func DeriveDomain(company, siteURL string) string {
	if domain := domainFromURL(siteURL); domain != "" {
		return domain
	}
	return domainFromCompanyName(company)
}

// domainFromURL strips scheme, credentials, port, path and a leading www.
func domainFromURL(siteURL string) string {
	s := strings.TrimSpace(strings.ToLower(siteURL))
	if s == "" {
		return ""
	}

	if idx := strings.Index(s, "://"); idx >= 0 {
		s = s[idx+3:]
	}
	if idx := strings.IndexAny(s, "/?#"); idx >= 0 {
		s = s[:idx]
	}
	if idx := strings.Index(s, "@"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimPrefix(s, "www.")

	if !strings.Contains(s, ".") || len(s) < minDomainLength {
		return ""
	}
	return s
}

// domainFromCompanyName slugs the company name and appends .com. This is a
// guess; the domain-search call validates it for free by returning zero
// results for unknown domains.
func domainFromCompanyName(company string) string {
	name := strings.ToLower(strings.TrimSpace(company))
	if name == "" {
		return ""
	}

	words := strings.Fields(name)
	for len(words) > 1 {
		last := strings.Trim(words[len(words)-1], ",.")
		if !isCorporateSuffix(last) {
			break
		}
		words = words[:len(words)-1]
	}

	slug := companySlugPattern.ReplaceAllString(strings.Join(words, ""), "")
	if slug == "" {
		return ""
	}

	domain := slug + ".com"
	if len(domain) < minDomainLength {
		return ""
	}
	return domain
}

func isCorporateSuffix(word string) bool {
	for _, suffix := range corporateSuffixes {
		if word == suffix {
			return true
		}
	}
	return false
}
