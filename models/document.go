package models

import (
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Heading is one entry in a document's outline.
type Heading struct {
	Level    int    `json:"level" yaml:"level"` // 1..4
	Text     string `json:"text" yaml:"text"`
	AnchorID string `json:"anchor_id" yaml:"anchor_id"`
}

// Document represents the extracted, sanitized content of a single page.
// It is built once per activation and replaced wholesale on re-extraction.
type Document struct {
	Title       string     `json:"title"`
	SiteName    string     `json:"site_name,omitempty"`
	Author      string     `json:"author,omitempty"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	SourceURL   string     `json:"source_url"`

	// Content is the sanitized extraction root. It is detached from the
	// source document; callers own it.
	Content *html.Node `json:"-"`

	Headings           []Heading `json:"headings,omitempty"`
	WordCount          int       `json:"word_count"`
	ReadingTimeMinutes int       `json:"reading_time_min"`

	// Language enrichment, ISO-639-1 when detection succeeds.
	Language           string  `json:"language,omitempty"`
	LanguageConfidence float64 `json:"language_confidence,omitempty"`

	Excerpt    string `json:"excerpt,omitempty"`
	FaviconURL string `json:"favicon_url,omitempty"`

	// FromSelection marks documents synthesized from user-selected text
	// rather than extracted from the page.
	FromSelection bool `json:"from_selection,omitempty"`
}

// PlainText concatenates the readable text of the content tree,
// one block element per line.
func (d *Document) PlainText() string {
	if d.Content == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlockTag(n.Data) {
			sb.WriteString("\n")
		}
	}
	walk(d.Content)
	return strings.TrimSpace(sb.String())
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "blockquote", "pre", "tr", "div":
		return true
	}
	return false
}

// ReadingTime returns the estimated reading time for a word count,
// at 200 words per minute, never less than one minute.
func ReadingTime(wordCount int) int {
	minutes := (wordCount + 199) / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// CountWords splits text on whitespace and counts non-empty tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
