// Package citation turns raw provider output into a deduplicated list of
// hyperlink citations. Ownership classification is deferred to the brand
// matcher, which has brand context this package lacks.
package citation

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/visibility-engine/internal/model"
)

// markdownLink matches inline markdown links: [text](url). Nested brackets
// in the link text are not supported; providers emit flat links.
var markdownLink = regexp.MustCompile(`\[([^\]]*)\]\((https?://[^\s)]+)\)`)

// Extract combines two strategies: structured citation URLs from the
// provider payload when available, and markdown inline links scanned from
// the response text as fallback/supplement. Results are deduplicated by
// normalized URL, first occurrence wins (structured citations first, so a
// structured URL keeps priority over its markdown twin).
func Extract(rawCitations []string, responseText string) []model.Citation {
	var out []model.Citation
	seen := make(map[string]bool)

	appendCitation := func(rawURL, text string) {
		key := NormalizeURL(rawURL)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, model.Citation{
			URL:   rawURL,
			Text:  text,
			Class: model.CitationUnknown,
		})
	}

	for _, u := range rawCitations {
		appendCitation(strings.TrimSpace(u), "")
	}

	for _, m := range markdownLink.FindAllStringSubmatch(responseText, -1) {
		appendCitation(m[2], strings.TrimSpace(m[1]))
	}

	return out
}

// NormalizeURL reduces a URL to lowercased scheme, host and path, with the
// query, fragment and any trailing slash stripped. Used as the dedup key;
// two links differing only in tracking parameters collapse to one citation.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}

	host := strings.ToLower(u.Host)
	path := strings.TrimSuffix(u.Path, "/")
	return scheme + "://" + host + path
}
