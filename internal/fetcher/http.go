package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/HoaxWatch/internal/config"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// HTTPClient implements Fetcher using net/http.
type HTTPClient struct {
	client     *http.Client
	cfg        *config.FetcherConfig
	robots     *RobotsManager
	logger     *slog.Logger
	userAgents []string
	uaIndex    atomic.Int64
}

// NewHTTPClient creates the shared HTTP client used by every source.
func NewHTTPClient(cfg *config.FetcherConfig, logger *slog.Logger) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   max(cfg.MaxIdleConns/2, 1),
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout,
		DisableCompression:    true, // decompressed in decompressReader, including brotli
	}

	maxRedirects := cfg.MaxRedirects
	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("max redirects (%d) reached", maxRedirects)
			}
			return nil
		},
	}

	c := &HTTPClient{
		client:     client,
		cfg:        cfg,
		logger:     logger.With("component", "http_client"),
		userAgents: cfg.UserAgents,
	}
	if cfg.RespectRobotsTxt {
		c.robots = NewRobotsManager(client, c.nextUserAgent(), logger)
	}
	return c
}

// Get fetches rawURL with the configured request timeout.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.GetWithTimeout(ctx, rawURL, c.cfg.RequestTimeout)
}

// GetWithTimeout fetches rawURL. Non-2xx responses are returned as a
// *types.FetchError of kind KindStatus.
func (c *HTTPClient) GetWithTimeout(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if c.robots != nil && !c.robots.IsAllowed(ctx, rawURL) {
		return nil, &types.FetchError{URL: rawURL, Kind: types.KindStatus, Err: types.ErrBlocked}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Kind: types.KindNetwork, Err: err}
	}

	httpReq.Header.Set("User-Agent", c.nextUserAgent())
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/rss+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "id-ID,id;q=0.9,en;q=0.8")
	httpReq.Header.Set("Accept-Encoding", "gzip, deflate, br")

	start := time.Now()
	httpResp, err := c.client.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Kind: classifyError(err), Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, &types.FetchError{
			URL:        rawURL,
			StatusCode: httpResp.StatusCode,
			Kind:       types.KindStatus,
			Err:        fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var reader io.Reader = httpResp.Body
	if c.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, c.cfg.MaxBodySize)
	}

	reader, err = decompressReader(httpResp, reader)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Kind: types.KindParse, Err: err}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Kind: classifyError(err), Err: err}
	}

	c.logger.Debug("fetch complete",
		"url", rawURL,
		"status", httpResp.StatusCode,
		"size", len(body),
		"duration", duration,
	)

	return &Response{
		URL:        httpResp.Request.URL.String(),
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		Duration:   duration,
	}, nil
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// nextUserAgent returns the next User-Agent in rotation.
func (c *HTTPClient) nextUserAgent() string {
	if len(c.userAgents) == 0 {
		return "HoaxWatch/" + config.Version
	}
	idx := c.uaIndex.Add(1) % int64(len(c.userAgents))
	return c.userAgents[idx]
}

// decompressReader wraps a reader with the appropriate decompressor.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// classifyError separates timeouts from other transport failures.
func classifyError(err error) types.FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.KindTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return types.KindTimeout
	}
	return types.KindNetwork
}
