package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/HoaxWatch/internal/config"
	"github.com/IshaanNene/HoaxWatch/internal/fetcher"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testDeps() Deps {
	cfg := config.DefaultConfig().Fetcher
	cfg.RequestTimeout = 2 * time.Second
	return Deps{
		Client:        fetcher.NewHTTPClient(&cfg, testLogger),
		DetailTimeout: time.Second,
		Logger:        testLogger,
	}
}

// pageServer serves canned bodies keyed by the page query parameter ("" for
// the bare URL). Missing keys answer 500.
type pageServer struct {
	mu    sync.Mutex
	pages map[string]string
	hits  []string
}

func (p *pageServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	p.mu.Lock()
	p.hits = append(p.hits, page)
	body, ok := p.pages[page]
	p.mu.Unlock()
	if !ok {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, body)
}

const antaraPage1 = `<html><body>
<a href="/berita/100/hoaks-vaksin-mengandung-chip">[HOAKS] Vaksin mengandung chip</a>
<a href="/berita/100/hoaks-vaksin-mengandung-chip">[HOAKS] Vaksin mengandung chip</a>
<a href="https://www.antaranews.com/berita/101/cek-fakta">Cek fakta: hoax banjir</a>
<a href="/berita/102/ekonomi">Ekonomi tumbuh lima persen</a>
<a href="/kategori/hoaks">Kumpulan hoaks</a>
<a href="/video/103/hoaks">Video hoaks tanpa berita</a>
<a href="https://other.com/berita/104/hoaks">Hoaks dari situs lain</a>
<a href="/berita/105/kosong"></a>
</body></html>`

func TestAntaranewsFetch(t *testing.T) {
	ps := &pageServer{pages: map[string]string{"1": antaraPage1}}
	srv := httptest.NewServer(ps)
	defer srv.Close()

	src, err := NewAntaranews(config.SourceConfig{URL: srv.URL + "/slug/anti-hoax", Pages: 2}, testDeps())
	require.NoError(t, err)
	assert.Equal(t, config.SourceAntaranews, src.Key())

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "https://www.antaranews.com/berita/100/hoaks-vaksin-mengandung-chip", items[0].URL)
	assert.Equal(t, "[HOAKS] Vaksin mengandung chip", items[0].Title)
	assert.Equal(t, "Antara Anti-Hoax", items[0].Source)
	assert.Equal(t, "https://www.antaranews.com/berita/101/cek-fakta", items[1].URL)
	assert.Equal(t, []string{"1", "2"}, ps.hits)
}

func TestAntaranewsAllPagesFail(t *testing.T) {
	srv := httptest.NewServer(&pageServer{pages: map[string]string{}})
	defer srv.Close()

	src, err := NewAntaranews(config.SourceConfig{URL: srv.URL, Pages: 2}, testDeps())
	require.NoError(t, err)

	items, err := src.Fetch(context.Background())
	assert.Nil(t, items)
	assert.ErrorIs(t, err, types.ErrNoPages)

	var fe *types.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, types.KindStatus, fe.Kind)
}

func TestAntaranewsPublishedDates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/slug/anti-hoax", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<a href="/berita/1/hoaks-a">Hoaks pertama</a>
<a href="/berita/2/hoaks-b">Hoaks kedua</a>
</body></html>`)
	})
	mux.HandleFunc("/berita/1/hoaks-a", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div class="article-date">Senin, 14 Oktober 2024 10:22 WIB</div></body></html>`)
	})
	mux.HandleFunc("/berita/2/hoaks-b", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src, err := NewAntaranews(config.SourceConfig{URL: srv.URL + "/slug/anti-hoax", Pages: 1, FetchDates: true}, testDeps())
	require.NoError(t, err)
	src.site, _ = url.Parse(srv.URL)
	src.domain = src.site.Hostname()

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NotNil(t, items[0].PublishedAt)
	assert.True(t, time.Date(2024, 10, 14, 3, 22, 0, 0, time.UTC).Equal(*items[0].PublishedAt))
	assert.Nil(t, items[1].PublishedAt)
}

func TestListingDelayHonorsCancel(t *testing.T) {
	srv := httptest.NewServer(&pageServer{pages: map[string]string{"1": antaraPage1, "2": antaraPage1}})
	defer srv.Close()

	src, err := NewAntaranews(config.SourceConfig{URL: srv.URL, Pages: 2, PageDelay: time.Hour}, testDeps())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = src.Fetch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

const detikPage = `<html><body>
<article><a href="/berita/d-1/video-lama-diklaim-banjir-jakarta-2024">Video lama diklaim banjir Jakarta 2024</a></article>
<article><a href="https://hoaxornot.detik.com/berita/d-1/video-lama-diklaim-banjir-jakarta-2024">Video lama diklaim banjir Jakarta 2024 (ulang)</a></article>
<article><a href="/berita/d-2/pendek">Terlalu pendek</a></article>
<article><a href="/tag/hoaks">Tag halaman hoaks yang cukup panjang sekali</a></article>
<article><p>tanpa tautan</p></article>
</body></html>`

const detikPage2 = `<html><body>
<article><a href="/berita/d-3/pesan-berantai-soal-bantuan-sosial">Pesan berantai soal bantuan sosial palsu</a></article>
</body></html>`

func TestDetikFetch(t *testing.T) {
	ps := &pageServer{pages: map[string]string{"": detikPage, "2": detikPage2}}
	srv := httptest.NewServer(ps)
	defer srv.Close()

	src, err := NewDetik(config.SourceConfig{URL: srv.URL + "/", Pages: 2}, testDeps())
	require.NoError(t, err)

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "https://hoaxornot.detik.com/berita/d-1/video-lama-diklaim-banjir-jakarta-2024", items[0].URL)
	assert.Equal(t, "Video lama diklaim banjir Jakarta 2024", items[0].Title)
	assert.Equal(t, "https://hoaxornot.detik.com/berita/d-3/pesan-berantai-soal-bantuan-sosial", items[1].URL)
	assert.Equal(t, []string{"", "2"}, ps.hits)
}

const googleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>news</title>
<item><title>&lt;b&gt;Hoaks&lt;/b&gt; foto   presiden</title><link>%[1]s/rss/articles/one</link>
<pubDate>Mon, 14 Oct 2024 03:22:00 GMT</pubDate><description>&lt;p&gt;Ringkasan&lt;/p&gt;</description></item>
<item><title>Hoaks kedua</title><link>%[1]s/rss/articles/two</link></item>
<item><title>Hoaks kedua</title><link>%[1]s/rss/articles/two</link></item>
<item><title>Luar domain</title><link>https://elsewhere.example/rss/articles/three</link></item>
<item><title></title><link>%[1]s/rss/articles/four</link></item>
<item><title>Hoaks ketiga</title><link>%[1]s/rss/articles/five</link></item>
</channel></rss>`

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, googleFeed, srv.URL)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFeedSourceFetch(t *testing.T) {
	srv := feedServer(t)

	src, err := NewKompas(config.SourceConfig{URL: srv.URL + "/rss/search?q=x"}, testDeps())
	require.NoError(t, err)

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "Kompas Cek Fakta", items[0].Source)
	assert.Contains(t, items[0].Title, "Hoaks")
	require.NotNil(t, items[0].PublishedAt)
	assert.Equal(t, srv.URL+"/rss/articles/two", items[1].URL)
	assert.Equal(t, srv.URL+"/rss/articles/five", items[2].URL)
}

func TestTempoCleansAndLimits(t *testing.T) {
	srv := feedServer(t)

	src, err := NewTempo(config.SourceConfig{URL: srv.URL + "/rss", Limit: 2}, testDeps())
	require.NoError(t, err)

	items, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Hoaks foto presiden", items[0].Title)
	assert.Equal(t, "Ringkasan", items[0].Summary)
}

func TestFeedSourceErrors(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>maintenance</html>")
	}))
	defer bad.Close()

	src, err := NewTurnBackHoax(config.SourceConfig{URL: bad.URL}, testDeps())
	require.NoError(t, err)
	_, err = src.Fetch(context.Background())
	var pe *types.ParseError
	assert.True(t, errors.As(err, &pe))

	_, err = NewTurnBackHoax(config.SourceConfig{URL: "::not a url"}, testDeps())
	assert.Error(t, err)
}

func TestDefaultRegistry(t *testing.T) {
	cfg := config.DefaultConfig()
	tempo := cfg.Sources[config.SourceTempo]
	tempo.Enabled = false
	cfg.Sources[config.SourceTempo] = tempo
	detik := cfg.Sources[config.SourceDetik]
	detik.URL = "::broken"
	cfg.Sources[config.SourceDetik] = detik

	reg := NewDefaultRegistry(cfg, testDeps().Client, testLogger)
	assert.Equal(t, config.SourceKeys, reg.Keys())

	e, ok := reg.Get(config.SourceTempo)
	require.True(t, ok)
	assert.False(t, e.Available())
	assert.ErrorIs(t, e.Err, types.ErrDependencyUnavailable)
	assert.Equal(t, "Tempo Hoax", e.Name)

	e, _ = reg.Get(config.SourceDetik)
	assert.False(t, e.Available())
	assert.ErrorIs(t, e.Err, types.ErrDependencyUnavailable)

	e, _ = reg.Get(config.SourceAntaranews)
	assert.True(t, e.Available())
	assert.Equal(t, "Antara Anti-Hoax", e.Name)

	_, ok = reg.Get("snopes")
	assert.False(t, ok)
}
