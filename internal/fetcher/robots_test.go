package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRobotsTxt(t *testing.T) {
	content := `
# comment
User-agent: googlebot
Disallow: /

User-agent: HoaxMonitoringBot
Disallow: /search
Allow: /search/public
Crawl-delay: 2.5

User-agent: *
Disallow: /admin
`
	data := parseRobotsTxt(content, "hoaxmonitoringbot")
	assert.ElementsMatch(t, []string{"/search", "/admin"}, data.disallowed)
	assert.Equal(t, []string{"/search/public"}, data.allowed)
	assert.Equal(t, 2500*time.Millisecond, data.crawlDelay)
}

func TestAgentToken(t *testing.T) {
	assert.Equal(t, "hoaxmonitoringbot", agentToken("Mozilla/5.0 (compatible; HoaxMonitoringBot/1.0)"))
	assert.Equal(t, "hoaxwatch", agentToken("HoaxWatch/dev"))
}

func TestMatchRobotsPattern(t *testing.T) {
	tests := []struct {
		pattern, path string
		want          bool
	}{
		{"/berita", "/berita/123", true},
		{"/berita$", "/berita/123", false},
		{"/berita$", "/berita", true},
		{"/*.pdf$", "/docs/file.pdf", true},
		{"/*.pdf$", "/docs/file.pdf?x", false},
		{"/tag/*/feed", "/tag/hoaks/feed", true},
		{"", "/anything", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchRobotsPattern(tt.pattern, tt.path), "%s vs %s", tt.pattern, tt.path)
	}
}
