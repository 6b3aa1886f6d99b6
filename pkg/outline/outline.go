// Package outline walks a sanitized content tree and builds an ordered
// heading index, assigning stable anchor ids along the way.
package outline

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dtnitsch/reader-lens/models"
)

// AnchorPrefix prefixes synthetic heading anchor ids.
const AnchorPrefix = "rl-heading-"

// maxDisplayLength bounds heading text in the outline; longer headings
// are truncated with an ellipsis.
const maxDisplayLength = 60

var headingLevels = map[string]int{
	"h1": 1, "h2": 2, "h3": 3, "h4": 4,
}

// Index walks heading nodes (levels 1-4) in document order, gives each
// one an anchor id if it has none, and returns the ordered outline.
// Rendering decisions (whether the outline is worth showing) belong to
// the caller.
func Index(root *html.Node) []models.Heading {
	var headings []models.Heading
	seq := 0

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level, ok := headingLevels[n.Data]; ok {
				headings = append(headings, models.Heading{
					Level:    level,
					Text:     displayText(n),
					AnchorID: ensureAnchor(n, &seq),
				})
				return // Headings don't nest.
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return headings
}

// ensureAnchor returns the node's existing id, or assigns the next
// sequential synthetic anchor. The sequence only advances for assigned
// anchors so re-indexing an unchanged tree is stable.
func ensureAnchor(n *html.Node, seq *int) string {
	for _, attr := range n.Attr {
		if attr.Key == "id" && attr.Val != "" {
			return attr.Val
		}
	}
	anchor := AnchorPrefix + strconv.Itoa(*seq)
	*seq++
	n.Attr = append(n.Attr, html.Attribute{Key: "id", Val: anchor})
	return anchor
}

func displayText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	text := strings.Join(strings.Fields(sb.String()), " ")
	// Cut on rune boundaries so multibyte headings stay valid UTF-8.
	if runes := []rune(text); len(runes) > maxDisplayLength {
		text = strings.TrimSpace(string(runes[:maxDisplayLength])) + "…"
	}
	return text
}
