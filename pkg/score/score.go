// Package score assigns a "contentness" score to HTML nodes. The score is
// a sum of additive terms: a capped text-length base, structural bonuses
// for paragraphs and headings, a link-density penalty, and class/id
// keyword bonuses and penalties. It is deterministic and side-effect-free.
package score

import (
	"strings"

	"golang.org/x/net/html"
)

// Scorer evaluates candidate extraction roots. The keyword tables are
// fixed at construction so a session scores consistently.
type Scorer struct {
	negative []string
	positive []string
}

// NewScorer builds a Scorer. Nil keyword slices fall back to the
// package defaults.
func NewScorer(negative, positive []string) *Scorer {
	if negative == nil {
		negative = DefaultNegativeKeywords
	}
	if positive == nil {
		positive = DefaultPositiveKeywords
	}
	return &Scorer{negative: negative, positive: positive}
}

// Score computes the contentness score for a node. Can be negative.
func (s *Scorer) Score(n *html.Node) float64 {
	textLen := float64(len(TextContent(n)))

	score := textLen / 100
	if score > 50 {
		score = 50
	}

	score += 3 * float64(countDescendants(n, paragraphTags))
	score += 5 * float64(countDescendants(n, headingTags))

	// Link-heavy containers (nav blocks, tag clouds) score well on raw
	// text length, so penalize by the share of text inside anchors.
	// Empty containers count as pure links to keep them from winning ties.
	linkDensity := 1.0
	if textLen > 0 {
		linkDensity = float64(anchorTextLength(n)) / textLen
	}
	score -= 50 * linkDensity

	marker := classAndID(n)
	for _, keyword := range s.negative {
		if strings.Contains(marker, keyword) {
			score -= 30
		}
	}
	for _, keyword := range s.positive {
		if strings.Contains(marker, keyword) {
			score += 20
		}
	}

	return score
}

var paragraphTags = map[string]struct{}{
	"p": {}, "blockquote": {}, "pre": {}, "li": {},
}

var headingTags = map[string]struct{}{
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
}

// TextContent returns the concatenated text of a subtree.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func countDescendants(n *html.Node, tags map[string]struct{}) int {
	count := 0
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				if _, ok := tags[c.Data]; ok {
					count++
				}
			}
			walk(c)
		}
	}
	walk(n)
	return count
}

func anchorTextLength(n *html.Node) int {
	length := 0
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "a" {
				length += len(TextContent(c))
				continue // Nested anchors are invalid HTML; don't double count.
			}
			walk(c)
		}
	}
	walk(n)
	return length
}

// classAndID joins a node's class and id attributes, lowercased, for
// keyword matching.
func classAndID(n *html.Node) string {
	var parts []string
	for _, attr := range n.Attr {
		if attr.Key == "class" || attr.Key == "id" {
			parts = append(parts, attr.Val)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
