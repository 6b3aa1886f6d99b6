// Package enrich backfills document metadata that the DOM fallback
// chains could not resolve, using the readability parser's own
// extraction plus statistical language detection.
package enrich

import (
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/pemistahl/lingua-go"

	"github.com/dtnitsch/reader-lens/models"
)

// maxDetectionChars bounds the text fed to the language detector;
// accuracy plateaus long before full-article length.
const maxDetectionChars = 1000

// Enricher holds the language detector, which is expensive to build
// and safe to reuse.
type Enricher struct {
	detector lingua.LanguageDetector
}

// New builds an Enricher limited to the languages the reading surface
// ships dictionaries for.
func New() *Enricher {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English, lingua.Spanish, lingua.French, lingua.German,
			lingua.Portuguese, lingua.Italian, lingua.Dutch, lingua.Japanese,
		).
		Build()
	return &Enricher{detector: detector}
}

// Enrich fills the document's empty metadata fields from a readability
// pass over the raw page, and detects the content language. It only
// ever fills gaps; fields the extractor resolved stay as they are.
func (e *Enricher) Enrich(document *models.Document, rawHTML, sourceURL string) {
	if article, ok := e.readabilityPass(rawHTML, sourceURL); ok {
		if document.Author == "" {
			document.Author = article.Byline
		}
		if document.SiteName == "" || document.SiteName == hostnameOf(sourceURL) {
			if article.SiteName != "" {
				document.SiteName = article.SiteName
			}
		}
		if document.Excerpt == "" {
			document.Excerpt = article.Excerpt
		}
		if document.FaviconURL == "" {
			document.FaviconURL = article.Favicon
		}
		if document.PublishDate == nil && article.PublishedTime != nil {
			document.PublishDate = article.PublishedTime
		}
	}

	e.detectLanguage(document)
}

func (e *Enricher) readabilityPass(rawHTML, sourceURL string) (readability.Article, bool) {
	parsedURL, err := url.Parse(sourceURL)
	if err != nil {
		return readability.Article{}, false
	}
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return readability.Article{}, false
	}
	return article, true
}

func (e *Enricher) detectLanguage(document *models.Document) {
	text := document.PlainText()
	if runes := []rune(text); len(runes) > maxDetectionChars {
		text = string(runes[:maxDetectionChars])
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	language, ok := e.detector.DetectLanguageOf(text)
	if !ok {
		return
	}
	document.Language = strings.ToLower(language.IsoCode639_1().String())
	document.LanguageConfidence = e.detector.ComputeLanguageConfidence(text, language)
}

func hostnameOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
