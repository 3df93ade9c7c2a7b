package parser

import (
	"log/slog"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const listingHTML = `<!DOCTYPE html>
<html>
<body>
  <article><h2><a href="/berita/1/hoaks-vaksin">  [HOAKS] Vaksin
     mengandung chip </a></h2><a href="/other">second</a></article>
  <article><span>no link here</span></article>
  <article><a href="https://hoaxornot.detik.com/berita/2">Fakta sebenarnya soal banjir</a></article>
  <a name="anchor-without-href">skip</a>
  <a href="#top">top</a>
</body>
</html>`

func mustDoc(t *testing.T, s string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func TestLinks(t *testing.T) {
	links := Links(mustDoc(t, listingHTML), "a")
	require.Len(t, links, 4)
	assert.Equal(t, "[HOAKS] Vaksin mengandung chip", links[0].Title)
	assert.Equal(t, "/berita/1/hoaks-vaksin", links[0].Href)
	assert.Equal(t, "#top", links[3].Href)
}

func TestFirstLinks(t *testing.T) {
	links := FirstLinks(mustDoc(t, listingHTML), "article")
	require.Len(t, links, 2)
	assert.Equal(t, "/berita/1/hoaks-vaksin", links[0].Href)
	assert.Equal(t, "Fakta sebenarnya soal banjir", links[1].Title)
}

func TestResolveURL(t *testing.T) {
	base, _ := url.Parse("https://hoaxornot.detik.com/?page=2")
	assert.Equal(t, "https://hoaxornot.detik.com/berita/1", ResolveURL(base, "/berita/1"))
	assert.Equal(t, "https://other.com/x", ResolveURL(base, "https://other.com/x"))
	assert.Empty(t, ResolveURL(base, "#top"))
	assert.Empty(t, ResolveURL(base, "javascript:void(0)"))
	assert.Empty(t, ResolveURL(base, "   "))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-10-14T10:22:00+07:00", time.Date(2024, 10, 14, 3, 22, 0, 0, time.UTC)},
		{"2024-10-14T03:22:00Z", time.Date(2024, 10, 14, 3, 22, 0, 0, time.UTC)},
		{"2024-10-14 10:22:00", time.Date(2024, 10, 14, 3, 22, 0, 0, time.UTC)},
		{"Senin, 14 Oktober 2024 10:22 WIB", time.Date(2024, 10, 14, 3, 22, 0, 0, time.UTC)},
		{"Senin, 14 Okt 2024 10:22 WIB", time.Date(2024, 10, 14, 3, 22, 0, 0, time.UTC)},
		{"2 Mei 2024", time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)},
		{"14 Agustus 2024 12:00 WITA", time.Date(2024, 8, 14, 4, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}

	_, ok := ParseDate("kemarin sore")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)
}

func TestDateExtractor(t *testing.T) {
	e := NewDateExtractor(testLogger)

	tests := []struct {
		name string
		html string
		want time.Time
	}{
		{
			name: "time datetime attribute",
			html: `<html><body><time datetime="2024-10-14T10:22:00+07:00">Senin</time></body></html>`,
			want: time.Date(2024, 10, 14, 3, 22, 0, 0, time.UTC),
		},
		{
			name: "meta published_time",
			html: `<html><head><meta property="article:published_time" content="2024-01-02T08:00:00Z"></head><body></body></html>`,
			want: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "class based text",
			html: `<html><body><div class="detail publish-date">Selasa, 2 Januari 2024 07:00 WIB</div></body></html>`,
			want: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.PublishedAt([]byte(tt.html))
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %s", got)
		})
	}

	assert.Nil(t, e.PublishedAt([]byte(`<html><body><p>no date</p></body></html>`)))
}

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Google News</title>
  <item>
    <title>[HOAKS] Video banjir Jakarta - TurnBackHoax</title>
    <link>https://news.google.com/rss/articles/abc123?oc=5</link>
    <pubDate>Mon, 14 Oct 2024 03:22:00 GMT</pubDate>
    <description>&lt;a href="x"&gt;Video banjir&lt;/a&gt;&amp;nbsp;TurnBackHoax</description>
  </item>
  <item>
    <title>Tanpa tanggal</title>
    <link>https://news.google.com/rss/articles/def456</link>
  </item>
</channel>
</rss>`

func TestFeedParser(t *testing.T) {
	entries, err := NewFeedParser().Parse([]byte(rssFeed), "https://news.google.com/rss")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "[HOAKS] Video banjir Jakarta - TurnBackHoax", entries[0].Title)
	assert.Equal(t, "https://news.google.com/rss/articles/abc123?oc=5", entries[0].Link)
	require.NotNil(t, entries[0].PublishedAt)
	assert.True(t, time.Date(2024, 10, 14, 3, 22, 0, 0, time.UTC).Equal(*entries[0].PublishedAt))
	assert.Nil(t, entries[1].PublishedAt)
}

func TestFeedParserRejectsGarbage(t *testing.T) {
	_, err := NewFeedParser().Parse([]byte("<html>not a feed"), "https://example.com")
	assert.Error(t, err)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "Video banjir TurnBackHoax", StripTags(`<a href="x">Video banjir</a>&nbsp;TurnBackHoax`))
	assert.Equal(t, "a & b", StripTags("a &amp;   b"))
}
