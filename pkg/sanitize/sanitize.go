// Package sanitize strips noise subtrees and disallowed attributes from
// an extraction root before it is rendered as a reading surface.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// removedTags are dropped outright wherever they appear.
var removedTags = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "object": {}, "embed": {},
	"iframe": {}, "frame": {}, "form": {}, "button": {}, "input": {},
	"nav": {}, "aside": {}, "footer": {}, "header": {},
}

// noisePatterns remove nodes whose class, id, or role marks them as
// page chrome or engagement junk.
var noisePatterns = []string{
	"advert", "sponsor", "social", "share", "related", "comment",
	"newsletter", "popup", "promo", "sidebar", "banner", "cookie",
}

// allowedAttrs is the attribute allow-list. Everything else, inline
// event handlers and tracking attributes included, is stripped.
var allowedAttrs = map[string]struct{}{
	"href": {}, "src": {}, "alt": {}, "title": {}, "class": {}, "id": {},
	"lang": {}, "colspan": {}, "rowspan": {}, "loading": {},
	"data-rl-anchor": {}, "data-rl-annotated": {},
}

// Sanitize cleans an extraction root in place and returns it. Removal
// passes run before attribute stripping so removed subtrees never pay
// the stripping cost.
func Sanitize(root *html.Node) *html.Node {
	removeNoise(root)
	stripAttributes(root)
	normalizeMedia(root)
	removeEmptyParagraphs(root)
	return root
}

func removeNoise(n *html.Node) {
	var doomed []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && isNoise(c) {
			doomed = append(doomed, c)
			continue
		}
		removeNoise(c)
	}
	for _, d := range doomed {
		n.RemoveChild(d)
	}
}

func isNoise(n *html.Node) bool {
	if _, ok := removedTags[n.Data]; ok {
		return true
	}

	var marker strings.Builder
	for _, attr := range n.Attr {
		switch attr.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if attr.Val == "true" {
				return true
			}
		case "class", "id", "role":
			marker.WriteString(strings.ToLower(attr.Val))
			marker.WriteString(" ")
		}
	}

	joined := marker.String()
	if strings.Contains(joined, "navigation") || strings.Contains(joined, "complementary") ||
		strings.Contains(joined, "contentinfo") {
		return true
	}
	for _, pattern := range noisePatterns {
		if strings.Contains(joined, pattern) {
			return true
		}
	}
	return false
}

func stripAttributes(n *html.Node) {
	if n.Type == html.ElementNode {
		kept := n.Attr[:0]
		for _, attr := range n.Attr {
			if _, ok := allowedAttrs[attr.Key]; ok {
				kept = append(kept, attr)
			}
		}
		n.Attr = kept
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		stripAttributes(c)
	}
}

// normalizeMedia makes images lazy-load and marks code blocks with a
// class the reading surface styles.
func normalizeMedia(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "img", "video":
			setAttr(n, "loading", "lazy")
			addClass(n, "rl-media")
		case "pre", "code":
			addClass(n, "rl-code")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		normalizeMedia(c)
	}
}

// removeEmptyParagraphs drops paragraphs with neither text nor media,
// which otherwise leave layout gaps.
func removeEmptyParagraphs(n *html.Node) {
	var doomed []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		removeEmptyParagraphs(c)
		if c.Type == html.ElementNode && c.Data == "p" && isEmptyParagraph(c) {
			doomed = append(doomed, c)
		}
	}
	for _, d := range doomed {
		n.RemoveChild(d)
	}
}

func isEmptyParagraph(p *html.Node) bool {
	var hasContent func(*html.Node) bool
	hasContent = func(n *html.Node) bool {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			return true
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "img", "video", "audio", "picture":
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if hasContent(c) {
				return true
			}
		}
		return false
	}
	return !hasContent(p)
}

func addClass(n *html.Node, class string) {
	for i, attr := range n.Attr {
		if attr.Key == "class" {
			for _, existing := range strings.Fields(attr.Val) {
				if existing == class {
					return
				}
			}
			n.Attr[i].Val = attr.Val + " " + class
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}

func setAttr(n *html.Node, key, val string) {
	for i, attr := range n.Attr {
		if attr.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
