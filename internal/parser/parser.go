package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is an anchor found on a listing page.
type Link struct {
	Title string
	Href  string
}

// Links returns the text and href of every element matching selector that
// carries an href attribute.
func Links(doc *goquery.Document, selector string) []Link {
	var links []Link
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		links = append(links, Link{Title: cleanText(s.Text()), Href: strings.TrimSpace(href)})
	})
	return links
}

// FirstLinks returns, for every container matching containerSel, its first
// descendant anchor with an href.
func FirstLinks(doc *goquery.Document, containerSel string) []Link {
	var links []Link
	doc.Find(containerSel).Each(func(_ int, s *goquery.Selection) {
		a := s.Find("a[href]").First()
		if a.Length() == 0 {
			return
		}
		href, _ := a.Attr("href")
		links = append(links, Link{Title: cleanText(a.Text()), Href: strings.TrimSpace(href)})
	})
	return links
}

// ResolveURL resolves href against base. Fragment-only and javascript links
// resolve to "".
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// cleanText collapses runs of whitespace into single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
