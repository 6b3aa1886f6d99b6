package extract

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/dtnitsch/reader-lens/models"
)

// fillMetadata resolves each metadata field through its fallback chain,
// independently of the chosen extraction root. Each field takes the
// first non-empty candidate; a missing date stays nil, never a
// placeholder.
func fillMetadata(document *models.Document, doc *goquery.Document, sourceURL string) {
	document.Title = firstNonEmpty(
		text(doc, "article h1"),
		text(doc, ".post-title, .article-title, .entry-title"),
		text(doc, "h1"),
		attr(doc, `meta[property="og:title"]`, "content"),
		text(doc, "title"),
		"Untitled",
	)

	document.Author = firstNonEmpty(
		attr(doc, `meta[name="author"]`, "content"),
		text(doc, `[rel="author"]`),
		text(doc, ".author, .byline"),
	)

	document.SiteName = firstNonEmpty(
		attr(doc, `meta[property="og:site_name"]`, "content"),
		hostnameOf(sourceURL),
	)

	document.Excerpt = firstNonEmpty(
		attr(doc, `meta[name="description"]`, "content"),
		attr(doc, `meta[property="og:description"]`, "content"),
	)

	document.FaviconURL = attr(doc, `link[rel~="icon"]`, "href")

	document.PublishDate = parseDate(
		attr(doc, `meta[property="article:published_time"]`, "content"),
		attr(doc, "time[datetime]", "datetime"),
		attr(doc, `meta[name="date"]`, "content"),
		text(doc, "time"),
	)
}

// parseDate tries each candidate in order with a lenient parser.
func parseDate(candidates ...string) *time.Time {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if parsed, err := dateparse.ParseAny(candidate); err == nil {
			return &parsed
		}
	}
	return nil
}

func text(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func attr(doc *goquery.Document, selector, name string) string {
	val, _ := doc.Find(selector).First().Attr(name)
	return strings.TrimSpace(val)
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func hostnameOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
