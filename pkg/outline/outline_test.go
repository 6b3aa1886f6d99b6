package outline

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

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

func TestIndex(t *testing.T) {
	root := parseRoot(t, `<div id="root">
		<h1>Top</h1>
		<p>text</p>
		<h2 id="keep-me">Has An Anchor</h2>
		<h3>Deep</h3>
		<h5>Too Deep</h5>
	</div>`)

	headings := Index(root)

	if len(headings) != 3 {
		t.Fatalf("got %d headings, want 3 (h5 excluded)", len(headings))
	}

	if headings[0].Level != 1 || headings[0].Text != "Top" {
		t.Errorf("first heading = %+v", headings[0])
	}
	if headings[0].AnchorID != "rl-heading-0" {
		t.Errorf("synthetic anchor = %q, want rl-heading-0", headings[0].AnchorID)
	}
	if headings[1].AnchorID != "keep-me" {
		t.Errorf("existing anchor overwritten: %q", headings[1].AnchorID)
	}
	if headings[2].AnchorID != "rl-heading-1" {
		t.Errorf("sequence should skip anchored headings: %q", headings[2].AnchorID)
	}
}

func TestIndexAssignsIDsToTree(t *testing.T) {
	root := parseRoot(t, `<div id="root"><h2>One</h2></div>`)
	Index(root)

	h2 := root.FirstChild
	for h2 != nil && !(h2.Type == html.ElementNode && h2.Data == "h2") {
		h2 = h2.NextSibling
	}
	if h2 == nil {
		t.Fatal("h2 disappeared")
	}
	var id string
	for _, attr := range h2.Attr {
		if attr.Key == "id" {
			id = attr.Val
		}
	}
	if id != "rl-heading-0" {
		t.Errorf("anchor not written onto tree node: %q", id)
	}
}

func TestIndexTruncatesLongHeadings(t *testing.T) {
	long := strings.Repeat("abcde ", 20) // 120 chars
	root := parseRoot(t, `<div id="root"><h2>`+long+`</h2></div>`)

	headings := Index(root)
	if len(headings) != 1 {
		t.Fatalf("got %d headings, want 1", len(headings))
	}
	text := headings[0].Text
	if !strings.HasSuffix(text, "…") {
		t.Errorf("long heading not ellipsized: %q", text)
	}
	if len([]rune(text)) > 61 {
		t.Errorf("heading too long after truncation: %q", text)
	}
}

func TestIndexMultibyteHeadingTruncation(t *testing.T) {
	heading := "a" + strings.Repeat("日", 70)
	root := parseRoot(t, `<div id="root"><h2>`+heading+`</h2></div>`)

	headings := Index(root)
	if len(headings) != 1 {
		t.Fatalf("got %d headings, want 1", len(headings))
	}
	text := headings[0].Text
	if !utf8.ValidString(text) {
		t.Fatalf("heading text is not valid UTF-8: %q", text)
	}
	if !strings.HasSuffix(text, "…") {
		t.Errorf("long heading not ellipsized: %q", text)
	}
	if got := utf8.RuneCountInString(strings.TrimSuffix(text, "…")); got != 60 {
		t.Errorf("got %d runes before the ellipsis, want 60", got)
	}
}

func TestIndexEmptyTree(t *testing.T) {
	root := parseRoot(t, `<div id="root"><p>no headings at all</p></div>`)
	if headings := Index(root); len(headings) != 0 {
		t.Errorf("got %d headings, want 0", len(headings))
	}
}
