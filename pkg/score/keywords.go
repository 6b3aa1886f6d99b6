package score

// DefaultNegativeKeywords marks containers that are navigation, chrome,
// or engagement junk rather than article content. Matched as a
// case-insensitive substring of a node's class list and id.
var DefaultNegativeKeywords = []string{
	"nav", "sidebar", "footer", "header", "menu", "comment",
	"social", "share", "ad", "promo", "related", "recommended",
}

// DefaultPositiveKeywords marks containers that sites themselves label
// as primary content.
var DefaultPositiveKeywords = []string{
	"article", "content", "post", "entry", "story", "body", "text",
}
