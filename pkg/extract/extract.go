// Package extract finds the primary readable content of an HTML
// document, scores candidate containers, and produces a sanitized,
// outlined Document. Extraction failure is an empty result, not an
// error: the caller decides whether that is worth telling anyone about.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/dtnitsch/reader-lens/models"
	"github.com/dtnitsch/reader-lens/pkg/outline"
	"github.com/dtnitsch/reader-lens/pkg/sanitize"
	"github.com/dtnitsch/reader-lens/pkg/score"
)

const (
	// scoreThreshold is the minimum candidate score before extraction
	// escalates to the full container scan.
	scoreThreshold = 50
	// bodyMinChars gates the last-resort body fallback.
	bodyMinChars = 100
)

// candidateSelectors lists semantic candidates in fixed priority order.
// Scan order is the tiebreaker, so order matters.
var candidateSelectors = []string{
	"article",
	`[role="main"]`,
	"main",
	`div[class*="article"]`,
	`div[class*="content"]`,
	`div[class*="post"]`,
	`div[id*="content"]`,
}

// fullScanSelector covers every generic container for the expensive
// fallback. It runs once per activation, not per frame, so the cost is
// acceptable.
const fullScanSelector = "div, section, td"

// Extractor picks extraction roots with a fixed Scorer so one session
// scores consistently.
type Extractor struct {
	scorer *score.Scorer
}

// New builds an Extractor. A nil scorer gets the default keyword tables.
func New(scorer *score.Scorer) *Extractor {
	if scorer == nil {
		scorer = score.NewScorer(nil, nil)
	}
	return &Extractor{scorer: scorer}
}

// Extract produces a Document from a parsed page, or nil when the page
// has no qualifying content. The source document is never mutated: the
// winning root is deep-cloned before sanitizing.
func (e *Extractor) Extract(doc *goquery.Document, sourceURL string) *models.Document {
	root := e.findRoot(doc)
	if root == nil {
		return nil
	}

	clone := cloneTree(root)
	sanitize.Sanitize(clone)
	headings := outline.Index(clone)

	document := &models.Document{
		SourceURL: sourceURL,
		Content:   clone,
		Headings:  headings,
	}
	fillMetadata(document, doc, sourceURL)

	document.WordCount = models.CountWords(document.PlainText())
	document.ReadingTimeMinutes = models.ReadingTime(document.WordCount)
	return document
}

// findRoot runs the three escalation tiers: semantic candidates, the
// full container scan, then the body gated on minimum cleaned text.
func (e *Extractor) findRoot(doc *goquery.Document) *html.Node {
	best, bestScore := e.bestOf(doc, candidateSelectors...)
	if best != nil && bestScore >= scoreThreshold {
		return best
	}

	best, bestScore = e.bestOf(doc, fullScanSelector)
	if best != nil && bestScore >= scoreThreshold {
		return best
	}

	body := doc.Find("body")
	if len(body.Nodes) == 0 {
		return nil
	}
	cleaned := strings.TrimSpace(strings.Join(strings.Fields(body.Text()), " "))
	if len(cleaned) <= bodyMinChars {
		return nil
	}
	return body.Nodes[0]
}

// bestOf scores every node the selectors match, in selector priority
// order then document order. First encountered wins ties.
func (e *Extractor) bestOf(doc *goquery.Document, selectors ...string) (*html.Node, float64) {
	var best *html.Node
	bestScore := 0.0
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			node := sel.Nodes[0]
			if s := e.scorer.Score(node); best == nil || s > bestScore {
				best = node
				bestScore = s
			}
		})
	}
	return best, bestScore
}

// FromSelection synthesizes a Document from user-selected text. It
// bypasses extraction entirely and always succeeds; metadata is
// synthetic.
func FromSelection(text, sourceURL string) *models.Document {
	root := &html.Node{Type: html.ElementNode, Data: "div"}
	for _, para := range splitParagraphs(text) {
		p := &html.Node{Type: html.ElementNode, Data: "p"}
		p.AppendChild(&html.Node{Type: html.TextNode, Data: para})
		root.AppendChild(p)
	}

	title := strings.Join(strings.Fields(text), " ")
	if runes := []rune(title); len(runes) > 60 {
		title = strings.TrimSpace(string(runes[:60])) + "…"
	}
	if title == "" {
		title = "Selected text"
	}

	document := &models.Document{
		Title:         title,
		SiteName:      hostnameOf(sourceURL),
		SourceURL:     sourceURL,
		Content:       root,
		FromSelection: true,
	}
	document.WordCount = models.CountWords(text)
	document.ReadingTimeMinutes = models.ReadingTime(document.WordCount)
	return document
}

func splitParagraphs(text string) []string {
	var paras []string
	for _, chunk := range strings.Split(text, "\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			paras = append(paras, chunk)
		}
	}
	if len(paras) == 0 {
		paras = []string{""}
	}
	return paras
}

// cloneTree deep-copies a subtree, detached from its source document.
func cloneTree(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(cloneTree(c))
	}
	return clone
}
