// Package annotate enriches a sanitized content tree with inline
// annotations: simpler synonyms for complex vocabulary and short
// explanations for technical concepts. Terms are resolved through the
// text-inference collaborator once per session and cached; the tree
// rewrite is planned as a pure pass and applied afterwards.
package annotate

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/dtnitsch/reader-lens/pkg/inference"
	"github.com/dtnitsch/reader-lens/pkg/lexicon"
	"github.com/dtnitsch/reader-lens/pkg/score"
)

const (
	// maxVocabularyBatch bounds one collaborator request's vocabulary terms.
	maxVocabularyBatch = 15
	// maxConceptBatch bounds one collaborator request's concept terms.
	maxConceptBatch = 10
	// maxContextChars is how much document text rides along as context.
	maxContextChars = 500
)

const vocabularyPrompt = `For each term below, give a simpler everyday word or short phrase with the same meaning in this text. Answer with one line per term, formatted exactly as term:replacement. If a term has no simpler form, answer term:SKIP.`

const conceptPrompt = `For each term below, give a one-sentence plain-language explanation of what it means in this text. Answer with one line per term, formatted exactly as term:explanation. If a term needs no explanation, answer term:SKIP.`

// Session owns the annotation state for one reading-surface activation:
// the term cache and the per-kind applied flags. It is constructed
// explicitly and passed around; there is no ambient package state.
type Session struct {
	cache      *Cache
	classifier *lexicon.Classifier
	client     inference.Client
	applied    map[Kind]bool
}

// NewSession builds a Session around a classifier and a collaborator
// client. The cache starts empty and lives as long as the Session.
func NewSession(classifier *lexicon.Classifier, client inference.Client) *Session {
	return &Session{
		cache:      NewCache(),
		classifier: classifier,
		client:     client,
		applied:    make(map[Kind]bool),
	}
}

// Cache exposes the session cache, mainly for tests and diagnostics.
func (s *Session) Cache() *Cache { return s.cache }

// Applied reports whether a kind has already been applied to the tree.
func (s *Session) Applied(kind Kind) bool { return s.applied[kind] }

// ResetApplied clears the applied flags. Call it only after the content
// tree has been restored to its pre-annotation snapshot; the term cache
// survives so restored terms are not re-requested.
func (s *Session) ResetApplied() {
	s.applied = make(map[Kind]bool)
}

// Annotate discovers candidate terms under root, resolves unseen ones
// through the collaborator in a single batched request, and rewrites
// matching text nodes into annotated spans. Re-invocation for an
// already-applied kind is a no-op. The applied flag is set even when
// the collaborator fails, so one explicit call never turns into a
// retry loop; unresolved terms are re-requested only after the caller
// restores the tree and resets the applied flags.
// Returns the number of text nodes rewritten.
func (s *Session) Annotate(ctx context.Context, kind Kind, root *html.Node) (int, error) {
	if s.applied[kind] {
		return 0, nil
	}
	s.applied[kind] = true

	discovered := s.discover(kind, root)
	if len(discovered) == 0 {
		return 0, nil
	}

	unseen := s.unseenBatch(kind, discovered)
	if len(unseen) > 0 {
		answer, err := s.client.Request(ctx, buildPrompt(kind, unseen), contextExcerpt(root))
		if err != nil {
			return 0, fmt.Errorf("collaborator request failed: %w", err)
		}
		// All parsed pairs land in the cache before any rewrite, so a
		// rewrite never sees a half-populated batch.
		for term, entry := range parseAnswer(answer) {
			s.cache.Put(kind, term, entry)
		}
	}

	resolved := make(map[string]string)
	for _, term := range discovered {
		if entry, ok := s.cache.Lookup(kind, term); ok && !entry.Skip {
			resolved[term] = entry.Value
		}
	}

	ops := PlanRewrites(root, kind, resolved)
	ApplyRewrites(ops)
	return len(ops), nil
}

// discover collects candidate terms from eligible text nodes in
// document order, deduplicated, first occurrence wins.
func (s *Session) discover(kind Kind, root *html.Node) []string {
	seen := make(map[string]struct{})
	var terms []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isGuarded(n) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				for _, token := range tokenize(c.Data) {
					if !s.qualifies(kind, token) {
						continue
					}
					key := normalizeTerm(kind, token)
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
					terms = append(terms, token)
				}
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return terms
}

func (s *Session) qualifies(kind Kind, token string) bool {
	if kind == KindVocabulary {
		return s.classifier.IsComplexWord(token)
	}
	return s.classifier.IsConceptTerm(token)
}

// unseenBatch filters discovered terms down to those with no cache
// entry, capped at the per-kind batch size.
func (s *Session) unseenBatch(kind Kind, discovered []string) []string {
	limit := maxVocabularyBatch
	if kind == KindConcept {
		limit = maxConceptBatch
	}

	var unseen []string
	for _, term := range discovered {
		if _, ok := s.cache.Lookup(kind, term); ok {
			continue
		}
		unseen = append(unseen, term)
		if len(unseen) == limit {
			break
		}
	}
	return unseen
}

func buildPrompt(kind Kind, terms []string) string {
	instruction := vocabularyPrompt
	if kind == KindConcept {
		instruction = conceptPrompt
	}
	return instruction + "\n\nTerms: " + strings.Join(terms, ", ")
}

// parseAnswer reads the line-oriented term:value grammar. The line is
// split on every colon and only the second field is kept, so a value
// containing a colon is truncated there. A value of SKIP (any case) is
// the sentinel. Malformed lines are dropped, not retried.
func parseAnswer(answer string) map[string]Entry {
	entries := make(map[string]Entry)
	for _, line := range strings.Split(answer, "\n") {
		parts := strings.Split(strings.TrimSpace(line), ":")
		if len(parts) < 2 {
			continue
		}
		term := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if term == "" || value == "" {
			continue
		}
		if strings.EqualFold(value, "SKIP") {
			entries[term] = Entry{Skip: true}
			continue
		}
		entries[term] = Entry{Value: value}
	}
	return entries
}

// contextExcerpt gives the collaborator a slice of the document so
// replacements fit the register of the text.
func contextExcerpt(root *html.Node) string {
	text := strings.Join(strings.Fields(score.TextContent(root)), " ")
	if runes := []rune(text); len(runes) > maxContextChars {
		text = string(runes[:maxContextChars])
	}
	return text
}

// tokenize splits a text run into word tokens: letters, digits,
// apostrophes and hyphens, anchored on letter starts.
func tokenize(text string) []string {
	var tokens []string
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			tokens = append(tokens, text[start:i])
			start = -1
		}
	}
	if start != -1 {
		tokens = append(tokens, text[start:])
	}
	return tokens
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '\'' || r == '-'
}
