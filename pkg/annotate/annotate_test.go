package annotate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/dtnitsch/reader-lens/pkg/lexicon"
)

// fakeClient records collaborator requests and plays back a canned
// answer or error.
type fakeClient struct {
	prompts  []string
	contexts []string
	answer   string
	err      error
}

func (f *fakeClient) Request(ctx context.Context, prompt, contextText string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.contexts = append(f.contexts, contextText)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func parseRoot(t *testing.T, src string) *html.Node {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	sel := doc.Find("#root")
	if len(sel.Nodes) == 0 {
		t.Fatal("test fragment must have a #root element")
	}
	return sel.Nodes[0]
}

func render(t *testing.T, n *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	return buf.String()
}

func newTestSession(client *fakeClient) *Session {
	return NewSession(lexicon.NewClassifier(nil), client)
}

func TestAnnotateVocabulary(t *testing.T) {
	// "ubiquitous" appears five times in five separate text nodes.
	var sb strings.Builder
	sb.WriteString(`<div id="root">`)
	for i := 0; i < 5; i++ {
		sb.WriteString(fmt.Sprintf("<p>Smartphones are ubiquitous in city %d.</p>", i))
	}
	sb.WriteString(`</div>`)
	root := parseRoot(t, sb.String())

	client := &fakeClient{answer: "ubiquitous:everywhere"}
	session := newTestSession(client)

	rewrites, err := session.Annotate(context.Background(), KindVocabulary, root)
	if err != nil {
		t.Fatalf("Annotate() error: %v", err)
	}

	if len(client.prompts) != 1 {
		t.Fatalf("got %d collaborator requests, want 1", len(client.prompts))
	}
	if got := strings.Count(client.prompts[0], "ubiquitous"); got != 1 {
		t.Errorf("term appears %d times in the prompt, want 1", got)
	}
	if session.Cache().Len() != 1 {
		t.Errorf("cache has %d entries, want 1", session.Cache().Len())
	}
	if rewrites != 5 {
		t.Errorf("got %d rewrites, want 5", rewrites)
	}

	out := render(t, root)
	if got := strings.Count(out, `title="everywhere"`); got != 5 {
		t.Errorf("got %d annotation spans, want 5:\n%s", got, out)
	}
	if !strings.Contains(out, ">ubiquitous</span>") {
		t.Errorf("original surface text lost:\n%s", out)
	}
}

func TestAnnotateIsIdempotent(t *testing.T) {
	root := parseRoot(t, `<div id="root"><p>A serendipitous encounter.</p></div>`)
	client := &fakeClient{answer: "serendipitous:lucky"}
	session := newTestSession(client)

	if _, err := session.Annotate(context.Background(), KindVocabulary, root); err != nil {
		t.Fatalf("first Annotate() error: %v", err)
	}
	rewrites, err := session.Annotate(context.Background(), KindVocabulary, root)
	if err != nil {
		t.Fatalf("second Annotate() error: %v", err)
	}

	if len(client.prompts) != 1 {
		t.Errorf("second call issued a request; got %d total", len(client.prompts))
	}
	if rewrites != 0 {
		t.Errorf("second call rewrote %d nodes, want 0", rewrites)
	}
}

func TestAnnotateCollaboratorError(t *testing.T) {
	root := parseRoot(t, `<div id="root"><p>An ephemeral moment.</p></div>`)
	before := render(t, root)

	client := &fakeClient{err: errors.New("rate limited")}
	session := newTestSession(client)

	_, err := session.Annotate(context.Background(), KindConcept, root)
	if err != nil {
		t.Fatalf("concept scan found nothing, no request expected: %v", err)
	}

	_, err = session.Annotate(context.Background(), KindVocabulary, root)
	if err == nil {
		t.Fatal("expected collaborator error")
	}

	if session.Cache().Len() != 0 {
		t.Errorf("cache should be untouched, has %d entries", session.Cache().Len())
	}
	if after := render(t, root); after != before {
		t.Errorf("tree changed despite error:\nbefore: %s\nafter: %s", before, after)
	}
	// The applied flag stays set so the failed call doesn't loop.
	if !session.Applied(KindVocabulary) {
		t.Error("applied flag should remain set after a failed call")
	}
	if _, err := session.Annotate(context.Background(), KindVocabulary, root); err != nil {
		t.Errorf("re-invocation after failure should be a no-op, got %v", err)
	}
	if len(client.prompts) != 1 {
		t.Errorf("no-op re-invocation issued a request; got %d total", len(client.prompts))
	}
}

func TestAnnotateSkipSentinel(t *testing.T) {
	root := parseRoot(t, `<div id="root"><p>The ubiquitous smartphone.</p></div>`)
	client := &fakeClient{answer: "ubiquitous:skip"}
	session := newTestSession(client)

	rewrites, err := session.Annotate(context.Background(), KindVocabulary, root)
	if err != nil {
		t.Fatalf("Annotate() error: %v", err)
	}
	if rewrites != 0 {
		t.Errorf("SKIP term rewrote %d nodes, want 0", rewrites)
	}

	entry, ok := session.Cache().Lookup(KindVocabulary, "ubiquitous")
	if !ok || !entry.Skip {
		t.Errorf("SKIP not cached: entry=%+v ok=%v", entry, ok)
	}

	// Once SKIP is cached the term is never re-requested, even after the
	// applied flags are reset for fresh content.
	session.ResetApplied()
	if _, err := session.Annotate(context.Background(), KindVocabulary, root); err != nil {
		t.Fatalf("Annotate() after reset error: %v", err)
	}
	if len(client.prompts) != 1 {
		t.Errorf("SKIP term was re-requested; got %d requests", len(client.prompts))
	}
}

func TestAnnotateConceptTerms(t *testing.T) {
	root := parseRoot(t, `<div id="root"><p>The HTTP protocol and WebSocket connections.</p><pre>HTTP inside code</pre></div>`)
	client := &fakeClient{answer: "HTTP:a web transfer protocol\nWebSocket:a two-way connection"}
	session := newTestSession(client)

	rewrites, err := session.Annotate(context.Background(), KindConcept, root)
	if err != nil {
		t.Fatalf("Annotate() error: %v", err)
	}
	if rewrites != 1 {
		t.Errorf("got %d rewrites, want 1 (both terms share a text node)", rewrites)
	}

	out := render(t, root)
	if !strings.Contains(out, "rl-concept") {
		t.Errorf("no concept span:\n%s", out)
	}
	if strings.Contains(out, `<pre>H`) == false {
		t.Errorf("code block content should be untouched:\n%s", out)
	}
}

func TestAnnotateBatchCap(t *testing.T) {
	// 20 distinct complex words; only 15 may ride in one request.
	words := []string{
		"ubiquitous", "serendipitous", "ephemeral", "obfuscation", "paradigmatic",
		"perspicacious", "grandiloquent", "magnanimous", "deleterious", "superfluous",
		"intransigent", "obsequious", "recalcitrant", "pusillanimous", "sycophantic",
		"perfidious", "truculent", "insidious", "capricious", "mendacious",
	}
	var sb strings.Builder
	sb.WriteString(`<div id="root"><p>`)
	sb.WriteString(strings.Join(words, " and "))
	sb.WriteString(`</p></div>`)
	root := parseRoot(t, sb.String())

	client := &fakeClient{answer: ""}
	session := newTestSession(client)
	if _, err := session.Annotate(context.Background(), KindVocabulary, root); err != nil {
		t.Fatalf("Annotate() error: %v", err)
	}

	if len(client.prompts) != 1 {
		t.Fatalf("got %d requests, want 1", len(client.prompts))
	}
	sent := 0
	for _, word := range words {
		if strings.Contains(client.prompts[0], word) {
			sent++
		}
	}
	if sent != 15 {
		t.Errorf("request carries %d terms, want 15", sent)
	}
}

func TestAnnotateSkipsAnnotatedSpans(t *testing.T) {
	root := parseRoot(t, `<div id="root"><p><span class="rl-annotation" data-rl-annotated="true">ubiquitous</span> devices</p></div>`)
	client := &fakeClient{answer: "unreachable:x"}
	session := newTestSession(client)

	if _, err := session.Annotate(context.Background(), KindVocabulary, root); err != nil {
		t.Fatalf("Annotate() error: %v", err)
	}
	if len(client.prompts) != 0 {
		t.Errorf("guarded span was scanned; %d requests issued", len(client.prompts))
	}
}

func TestParseAnswer(t *testing.T) {
	answer := strings.Join([]string{
		"ubiquitous:everywhere",
		"  ephemeral : short-lived  ",
		"ratio:about 3:1", // value truncated at the first colon by the grammar
		"malformed line with no separator",
		"skipme:SKIP",
		":novalue",
		"noterm:",
		"",
	}, "\n")

	entries := parseAnswer(answer)

	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4: %+v", len(entries), entries)
	}
	if entries["ubiquitous"].Value != "everywhere" {
		t.Errorf("ubiquitous = %+v", entries["ubiquitous"])
	}
	if entries["ephemeral"].Value != "short-lived" {
		t.Errorf("whitespace not trimmed: %+v", entries["ephemeral"])
	}
	if entries["ratio"].Value != "about 3" {
		t.Errorf("value not cut at first colon: %+v", entries["ratio"])
	}
	if !entries["skipme"].Skip {
		t.Errorf("SKIP sentinel not recognized: %+v", entries["skipme"])
	}
}

func TestCacheWriteOnce(t *testing.T) {
	cache := NewCache()
	cache.Put(KindVocabulary, "Ubiquitous", Entry{Value: "everywhere"})
	cache.Put(KindVocabulary, "ubiquitous", Entry{Value: "common"})

	entry, ok := cache.Lookup(KindVocabulary, "UBIQUITOUS")
	if !ok {
		t.Fatal("vocabulary lookup should be case-insensitive")
	}
	if entry.Value != "everywhere" {
		t.Errorf("first write should win, got %q", entry.Value)
	}

	// Concept terms are case-sensitive.
	cache.Put(KindConcept, "DNS", Entry{Value: "name system"})
	if _, ok := cache.Lookup(KindConcept, "dns"); ok {
		t.Error("concept lookup should be case-sensitive")
	}
}

func TestRewriteLongestTermFirst(t *testing.T) {
	root := parseRoot(t, `<div id="root"><p>interoperability matters</p></div>`)

	resolved := map[string]string{
		"interoperability": "working together",
		"operability":      "usability",
	}
	ops := PlanRewrites(root, KindVocabulary, resolved)
	ApplyRewrites(ops)

	out := render(t, root)
	if !strings.Contains(out, `title="working together"`) {
		t.Errorf("longer term should win:\n%s", out)
	}
	if strings.Contains(out, `title="usability"`) {
		t.Errorf("shorter term shadowed inside longer match:\n%s", out)
	}
}

func TestRewriteWordBoundaries(t *testing.T) {
	root := parseRoot(t, `<div id="root"><p>cat concatenate cat</p></div>`)

	ops := PlanRewrites(root, KindVocabulary, map[string]string{"cat": "feline"})
	ApplyRewrites(ops)

	out := render(t, root)
	if got := strings.Count(out, `title="feline"`); got != 2 {
		t.Errorf("got %d matches, want 2 (no partial-word match):\n%s", got, out)
	}
	if !strings.Contains(out, "concatenate") {
		t.Errorf("embedded occurrence must stay intact:\n%s", out)
	}
}

func TestContextExcerptMultibyte(t *testing.T) {
	root := parseRoot(t, `<div id="root"><p>`+strings.Repeat("日本語の長い本文。", 100)+`</p></div>`)

	excerpt := contextExcerpt(root)
	if !utf8.ValidString(excerpt) {
		t.Fatalf("excerpt is not valid UTF-8: %q", excerpt)
	}
	if got := utf8.RuneCountInString(excerpt); got > maxContextChars {
		t.Errorf("excerpt too long: %d runes", got)
	}
}
