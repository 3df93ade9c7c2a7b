package parser

import (
	"bytes"
	"log/slog"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// dateXPaths are tried in order; the first node yielding a parseable value wins.
var dateXPaths = []string{
	"//time",
	"//*[@property='article:published_time']",
	"//meta[@name='publishdate' or @name='pubdate' or @itemprop='datePublished']",
	"//*[contains(concat(' ', normalize-space(@class), ' '), ' article-date ')]",
	"//*[contains(concat(' ', normalize-space(@class), ' '), ' publish-date ')]",
	"//*[contains(concat(' ', normalize-space(@class), ' '), ' date-publish ')]",
	"//span[contains(concat(' ', normalize-space(@class), ' '), ' updated ')]",
	"//*[contains(concat(' ', normalize-space(@class), ' '), ' date ')]",
}

// DateExtractor finds the publication date of an article page.
type DateExtractor struct {
	logger *slog.Logger
}

// NewDateExtractor creates a new DateExtractor.
func NewDateExtractor(logger *slog.Logger) *DateExtractor {
	return &DateExtractor{
		logger: logger.With("component", "date_extractor"),
	}
}

// PublishedAt returns the first parseable publication date in body, or nil.
func (e *DateExtractor) PublishedAt(body []byte) *time.Time {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	for _, expr := range dateXPaths {
		nodes, err := htmlquery.QueryAll(doc, expr)
		if err != nil {
			e.logger.Warn("invalid xpath", "expr", expr, "error", err)
			continue
		}
		for _, node := range nodes {
			for _, raw := range []string{
				htmlquery.SelectAttr(node, "datetime"),
				htmlquery.SelectAttr(node, "content"),
				strings.TrimSpace(htmlquery.InnerText(node)),
			} {
				if raw == "" {
					continue
				}
				if t, ok := ParseDate(raw); ok {
					return &t
				}
			}
		}
	}
	return nil
}

// wib is Western Indonesia Time, the zone listing pages print dates in.
var wib = time.FixedZone("WIB", 7*60*60)

var zoneOffsets = map[string]*time.Location{
	"wib":  wib,
	"wita": time.FixedZone("WITA", 8*60*60),
	"wit":  time.FixedZone("WIT", 9*60*60),
}

var indonesianMonths = map[string]string{
	"januari": "January", "jan": "January",
	"februari": "February", "feb": "February", "pebruari": "February",
	"maret": "March", "mar": "March",
	"april": "April", "apr": "April",
	"mei":  "May",
	"juni": "June", "jun": "June",
	"juli": "July", "jul": "July",
	"agustus": "August", "agu": "August", "agt": "August", "ags": "August",
	"september": "September", "sep": "September", "sept": "September",
	"oktober": "October", "okt": "October",
	"november": "November", "nov": "November", "nop": "November",
	"desember": "December", "des": "December",
}

var zonedLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05-0700",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
}

var localLayouts = []string{
	"2 January 2006 15:04:05",
	"2 January 2006 15:04",
	"2 January 2006, 15:04",
	"2 January 2006",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseDate parses machine-readable timestamps and Indonesian long dates
// such as "Senin, 14 Oktober 2024 10:22 WIB". Dates without a zone are read
// as WIB.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, wib); err == nil {
			return t.UTC(), true
		}
	}

	local, loc := normalizeLocalDate(s)
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, local, loc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// normalizeLocalDate drops a leading weekday, maps Indonesian month names to
// English and strips a trailing zone abbreviation.
func normalizeLocalDate(s string) (string, *time.Location) {
	s = strings.ToLower(s)
	if i := strings.Index(s, ","); i >= 0 && i < 10 && !strings.ContainsAny(s[:i], "0123456789") {
		s = s[i+1:]
	}

	loc := wib
	fields := strings.Fields(s)
	if n := len(fields); n > 0 {
		if zone, ok := zoneOffsets[fields[n-1]]; ok {
			loc = zone
			fields = fields[:n-1]
		}
	}
	for i, f := range fields {
		word := strings.TrimSuffix(f, ".")
		if en, ok := indonesianMonths[word]; ok {
			fields[i] = en
		} else if len(word) > 0 && word[0] >= 'a' && word[0] <= 'z' {
			if en, ok := englishMonth(word); ok {
				fields[i] = en
			}
		}
	}
	return strings.Join(fields, " "), loc
}

func englishMonth(word string) (string, bool) {
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if word == name || (len(word) >= 3 && strings.HasPrefix(name, word)) {
			return m.String(), true
		}
	}
	return "", false
}
