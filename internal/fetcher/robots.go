package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const robotsTimeout = 10 * time.Second

// RobotsManager fetches, caches and enforces robots.txt rules per host.
type RobotsManager struct {
	cache     map[string]*robotsData
	mu        sync.RWMutex
	client    *http.Client
	userAgent string
	token     string
	logger    *slog.Logger
}

// robotsData holds parsed robots.txt rules for a host.
type robotsData struct {
	disallowed []string
	allowed    []string
	crawlDelay time.Duration
	fetchedAt  time.Time
}

// NewRobotsManager creates a RobotsManager that identifies itself with userAgent.
func NewRobotsManager(client *http.Client, userAgent string, logger *slog.Logger) *RobotsManager {
	return &RobotsManager{
		cache:     make(map[string]*robotsData),
		client:    client,
		userAgent: userAgent,
		token:     agentToken(userAgent),
		logger:    logger.With("component", "robots"),
	}
}

// IsAllowed checks if a URL is allowed by its host's robots.txt. An
// unreachable robots.txt allows everything.
func (rm *RobotsManager) IsAllowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}

	origin := u.Scheme + "://" + u.Host
	data := rm.rulesFor(ctx, origin)
	if data == nil {
		return true
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	// Allow rules override disallow rules.
	for _, pattern := range data.allowed {
		if matchRobotsPattern(pattern, path) {
			return true
		}
	}
	for _, pattern := range data.disallowed {
		if matchRobotsPattern(pattern, path) {
			return false
		}
	}
	return true
}

// CrawlDelay returns the crawl-delay declared for origin, if any was cached.
func (rm *RobotsManager) CrawlDelay(origin string) time.Duration {
	rm.mu.RLock()
	data, ok := rm.cache[origin]
	rm.mu.RUnlock()

	if !ok || data == nil {
		return 0
	}
	return data.crawlDelay
}

func (rm *RobotsManager) rulesFor(ctx context.Context, origin string) *robotsData {
	rm.mu.RLock()
	data, ok := rm.cache[origin]
	rm.mu.RUnlock()
	if ok {
		return data
	}

	data, err := rm.fetchRobotsTxt(ctx, origin)
	if err != nil {
		rm.logger.Debug("robots.txt unavailable", "origin", origin, "error", err)
	}

	rm.mu.Lock()
	rm.cache[origin] = data
	rm.mu.Unlock()
	return data
}

func (rm *RobotsManager) fetchRobotsTxt(ctx context.Context, origin string) (*robotsData, error) {
	ctx, cancel := context.WithTimeout(ctx, robotsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", rm.userAgent)

	resp, err := rm.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}
	return parseRobotsTxt(string(body), rm.token), nil
}

// agentToken reduces a User-Agent header to the product token robots.txt
// groups are matched against.
func agentToken(userAgent string) string {
	ua := strings.ToLower(userAgent)
	if i := strings.Index(ua, "compatible; "); i >= 0 {
		ua = ua[i+len("compatible; "):]
	}
	if i := strings.IndexAny(ua, "/ ;)"); i >= 0 {
		ua = ua[:i]
	}
	return ua
}

// parseRobotsTxt keeps the rules of groups addressed to * or to token.
func parseRobotsTxt(content, token string) *robotsData {
	data := &robotsData{fetchedAt: time.Now()}
	inOurSection := false

	for _, line := range strings.Split(content, "\n") {
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			agent := strings.ToLower(value)
			inOurSection = agent == "*" || (token != "" && strings.Contains(agent, token))
		case "disallow":
			if inOurSection && value != "" {
				data.disallowed = append(data.disallowed, value)
			}
		case "allow":
			if inOurSection && value != "" {
				data.allowed = append(data.allowed, value)
			}
		case "crawl-delay":
			if inOurSection {
				var delay float64
				if _, err := fmt.Sscanf(value, "%f", &delay); err == nil {
					data.crawlDelay = time.Duration(delay * float64(time.Second))
				}
			}
		}
	}
	return data
}

// matchRobotsPattern supports * (any sequence) and a trailing $ anchor.
func matchRobotsPattern(pattern, path string) bool {
	if pattern == "" {
		return false
	}

	anchored := strings.HasSuffix(pattern, "$")
	if anchored {
		pattern = pattern[:len(pattern)-1]
	}

	if !strings.Contains(pattern, "*") {
		if anchored {
			return path == pattern
		}
		return strings.HasPrefix(path, pattern)
	}

	parts := strings.Split(pattern, "*")
	pos := 0
	for i, part := range parts {
		if part == "" {
			continue
		}
		idx := strings.Index(path[pos:], part)
		if idx < 0 || (i == 0 && idx != 0) {
			return false
		}
		pos += idx + len(part)
	}
	if anchored {
		return pos == len(path) || strings.HasSuffix(pattern, "*")
	}
	return true
}
