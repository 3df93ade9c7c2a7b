// Package dashboard serves a self-refreshing status page for the scraper.
package dashboard

import (
	"net/http"
)

// Handler returns the dashboard page handler. The page polls the status and
// stats API routes from the browser.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(pageHTML))
	})
}
