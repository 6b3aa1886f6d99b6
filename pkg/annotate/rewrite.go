package annotate

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// annotatedAttr marks spans this package created, so later passes skip
// their contents.
const annotatedAttr = "data-rl-annotated"

// RewriteOp replaces one text node with an annotated fragment. Planning
// and applying are separate passes: mutating a tree while walking it is
// how iterators get invalidated.
type RewriteOp struct {
	Target   *html.Node
	Fragment []*html.Node
}

type termMatcher struct {
	term    string
	value   string
	pattern *regexp.Regexp
}

// newTermMatchers compiles word-boundary matchers for the resolved
// terms, longest first so a long term is never shadowed by a shorter
// prefix of itself. Vocabulary matches ignore case; concept matches
// don't.
func newTermMatchers(kind Kind, resolved map[string]string) []termMatcher {
	terms := make([]string, 0, len(resolved))
	for term := range resolved {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})

	matchers := make([]termMatcher, 0, len(terms))
	for _, term := range terms {
		expr := `\b` + regexp.QuoteMeta(term) + `\b`
		if kind == KindVocabulary {
			expr = `(?i)` + expr
		}
		pattern, err := regexp.Compile(expr)
		if err != nil {
			continue
		}
		matchers = append(matchers, termMatcher{term: term, value: resolved[term], pattern: pattern})
	}
	return matchers
}

// PlanRewrites walks eligible text nodes and produces the replacement
// operations for every node containing a resolved term. It does not
// touch the tree.
func PlanRewrites(root *html.Node, kind Kind, resolved map[string]string) []RewriteOp {
	matchers := newTermMatchers(kind, resolved)
	if len(matchers) == 0 {
		return nil
	}

	var ops []RewriteOp
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isGuarded(n) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				if fragment := annotateText(c.Data, kind, matchers); fragment != nil {
					ops = append(ops, RewriteOp{Target: c, Fragment: fragment})
				}
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return ops
}

// ApplyRewrites performs the planned replacements.
func ApplyRewrites(ops []RewriteOp) {
	for _, op := range ops {
		parent := op.Target.Parent
		if parent == nil {
			continue
		}
		for _, node := range op.Fragment {
			parent.InsertBefore(node, op.Target)
		}
		parent.RemoveChild(op.Target)
	}
}

// annotateText splits a text run around term matches, wrapping each
// match in an annotation span. Returns nil when nothing matches.
func annotateText(text string, kind Kind, matchers []termMatcher) []*html.Node {
	var fragment []*html.Node
	matched := false

	for len(text) > 0 {
		best := -1
		bestLoc := []int{len(text), len(text)}
		for i, m := range matchers {
			loc := m.pattern.FindStringIndex(text)
			if loc != nil && loc[0] < bestLoc[0] {
				best = i
				bestLoc = loc
			}
		}
		if best == -1 {
			break
		}

		if bestLoc[0] > 0 {
			fragment = append(fragment, textNode(text[:bestLoc[0]]))
		}
		fragment = append(fragment, annotationSpan(kind, text[bestLoc[0]:bestLoc[1]], matchers[best].value))
		matched = true
		text = text[bestLoc[1]:]
	}

	if !matched {
		return nil
	}
	if len(text) > 0 {
		fragment = append(fragment, textNode(text))
	}
	return fragment
}

// annotationSpan wraps the original surface text in a span carrying the
// resolved value, preserving both for the reading surface.
func annotationSpan(kind Kind, surface, value string) *html.Node {
	class := "rl-annotation rl-vocab"
	if kind == KindConcept {
		class = "rl-annotation rl-concept"
	}
	span := &html.Node{
		Type: html.ElementNode,
		Data: "span",
		Attr: []html.Attribute{
			{Key: "class", Val: class},
			{Key: annotatedAttr, Val: "true"},
			{Key: "title", Val: value},
		},
	}
	span.AppendChild(textNode(surface))
	return span
}

func textNode(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// isGuarded reports whether a subtree must not be scanned or rewritten:
// code blocks and previously created annotation spans.
func isGuarded(n *html.Node) bool {
	if n.Data == "code" || n.Data == "pre" {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == annotatedAttr {
			return true
		}
		if attr.Key == "class" && strings.Contains(attr.Val, "rl-annotation") {
			return true
		}
	}
	return false
}
