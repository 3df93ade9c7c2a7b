package sources

import (
	"net/url"
	"strings"
)

// rejectedPathWords mark index, taxonomy and service pages rather than articles.
var rejectedPathWords = []string{
	"kategori",
	"category",
	"tag",
	"author",
	"search",
	"infografis",
	"layanan",
	"kebijakan",
	"koreksi",
}

// IsValidArticleURL reports whether rawURL looks like an article page hosted
// under expectedDomain. It never performs I/O.
func IsValidArticleURL(rawURL, expectedDomain string) bool {
	if rawURL == "" || rawURL == "#" {
		return false
	}
	if !strings.HasPrefix(rawURL, "http") {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !strings.Contains(u.Host, expectedDomain) {
		return false
	}
	if u.Path == "" || u.Path == "/" {
		return false
	}

	path := strings.ToLower(u.Path)
	for _, word := range rejectedPathWords {
		if strings.Contains(path, word) {
			return false
		}
	}
	return true
}
