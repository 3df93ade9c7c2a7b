package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher retrieves a single URL. Implementations must honor ctx and apply
// their own timeout to every request.
type Fetcher interface {
	// Get fetches rawURL with the fetcher's default request timeout.
	Get(ctx context.Context, rawURL string) (*Response, error)

	// GetWithTimeout fetches rawURL, giving up after timeout.
	GetWithTimeout(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error)
}

// Response is a fully read, decompressed HTTP response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration

	docOnce sync.Once
	doc     *goquery.Document
	docErr  error
}

// Document lazily parses the body as HTML.
func (r *Response) Document() (*goquery.Document, error) {
	r.docOnce.Do(func() {
		r.doc, r.docErr = goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if r.docErr != nil {
			r.docErr = fmt.Errorf("parse html from %s: %w", r.URL, r.docErr)
		}
	})
	return r.doc, r.docErr
}
