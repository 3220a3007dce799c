package brand

import (
	"net/url"
	"strings"

	"github.com/sells-group/visibility-engine/internal/model"
)

// DomainVariants derives the matchable forms of a brand domain: the domain
// itself, its www-prefixed twin, and the bare core token with the TLD
// stripped ("mongodb.com" → "mongodb"). Empty input yields nil.
func DomainVariants(domain string) []string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.TrimSuffix(domain, "/")
	if domain == "" {
		return nil
	}

	bare := strings.TrimPrefix(domain, "www.")
	variants := []string{bare, "www." + bare}

	if core, _, ok := strings.Cut(bare, "."); ok && core != "" {
		variants = append(variants, core)
	}

	return variants
}

// hostOf extracts the lowercased host from a URL, tolerating bare
// "example.com/path" inputs that lack a scheme.
func hostOf(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return ""
		}
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// hostBelongsTo reports whether host is the domain itself or a subdomain
// of it.
func hostBelongsTo(host, domain string) bool {
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), "www.")
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// ClassifyCitation labels a citation URL as owned, competitor or
// third-party by comparing its host against the subject brand's domain and
// the supplied competitor domains. An unparsable URL stays unknown.
func ClassifyCitation(rawURL, brandDomain string, competitorDomains []string) model.CitationClass {
	host := hostOf(rawURL)
	if host == "" {
		return model.CitationUnknown
	}

	if hostBelongsTo(host, brandDomain) {
		return model.CitationOwned
	}
	for _, d := range competitorDomains {
		if hostBelongsTo(host, d) {
			return model.CitationCompetitor
		}
	}
	return model.CitationThirdParty
}
