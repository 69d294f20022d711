// Package metadata extracts page metadata (title, description, favicon)
// from HTML documents for link enrichment.
package metadata

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 500
)

type Metadata struct {
	Title       string
	Description string
	FaviconURL  string
}

// NormalizeURL prepends https:// when the raw value carries no scheme and
// strips surrounding whitespace. It does not validate the host.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return raw
}

// Truncate shortens s to max runes, replacing the tail with "..." when
// trimming happens.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

type strategy func(doc *goquery.Document) string

var titleStrategies = []strategy{
	func(doc *goquery.Document) string {
		return attr(doc, `meta[property="og:title"]`, "content")
	},
	func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find("title").First().Text())
	},
}

var descriptionStrategies = []strategy{
	func(doc *goquery.Document) string {
		return attr(doc, `meta[property="og:description"]`, "content")
	},
	func(doc *goquery.Document) string {
		return attr(doc, `meta[name="description"]`, "content")
	},
}

var faviconStrategies = []strategy{
	func(doc *goquery.Document) string {
		return attr(doc, `link[rel="apple-touch-icon"]`, "href")
	},
	func(doc *goquery.Document) string {
		return attr(doc, `link[rel="shortcut icon"]`, "href")
	},
	func(doc *goquery.Document) string {
		return attr(doc, `link[rel="icon"]`, "href")
	},
	func(doc *goquery.Document) string {
		return attr(doc, `link[rel="favicon"]`, "href")
	},
}

func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

// Extract pulls metadata out of doc. base is the final URL the document was
// fetched from and anchors relative favicon references; when no icon is
// declared the extractor falls back to /favicon.ico at the site root.
func Extract(doc *goquery.Document, base *url.URL) Metadata {
	var md Metadata
	for _, s := range titleStrategies {
		if v := s(doc); v != "" {
			md.Title = Truncate(v, maxTitleLen)
			break
		}
	}
	for _, s := range descriptionStrategies {
		if v := s(doc); v != "" {
			md.Description = Truncate(v, maxDescriptionLen)
			break
		}
	}
	for _, s := range faviconStrategies {
		if v := s(doc); v != "" {
			md.FaviconURL = resolveRef(base, v)
			break
		}
	}
	if md.FaviconURL == "" && base != nil {
		md.FaviconURL = base.Scheme + "://" + base.Host + "/favicon.ico"
	}
	return md
}

func resolveRef(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
