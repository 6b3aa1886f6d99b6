package annotate

import "strings"

// Kind selects which annotation feature a call serves.
type Kind string

const (
	// KindVocabulary simplifies complex words.
	KindVocabulary Kind = "vocabulary"
	// KindConcept explains acronyms and technical terms.
	KindConcept Kind = "concept"
)

// Entry is a resolved annotation. Skip means the term was evaluated and
// intentionally left unannotated; that is different from never asked.
type Entry struct {
	Value string
	Skip  bool
}

type cacheKey struct {
	kind Kind
	term string
}

// Cache maps terms to resolved annotations for the lifetime of one
// reading session. Entries are write-once: a term is sent to the
// collaborator at most once per session no matter how often it recurs.
type Cache struct {
	entries map[cacheKey]Entry
}

// NewCache builds an empty session cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]Entry)}
}

// Lookup returns the cached entry for a term, if any.
func (c *Cache) Lookup(kind Kind, term string) (Entry, bool) {
	entry, ok := c.entries[cacheKey{kind, normalizeTerm(kind, term)}]
	return entry, ok
}

// Put records a resolved term. Existing entries win; a duplicate answer
// from an overlapping call never flips an earlier result.
func (c *Cache) Put(kind Kind, term string, entry Entry) {
	key := cacheKey{kind, normalizeTerm(kind, term)}
	if _, exists := c.entries[key]; exists {
		return
	}
	c.entries[key] = entry
}

// Len reports how many terms have been resolved.
func (c *Cache) Len() int {
	return len(c.entries)
}

// normalizeTerm lowercases vocabulary terms; concept terms are
// case-sensitive because casing is part of what they are (DNS vs dns).
func normalizeTerm(kind Kind, term string) string {
	if kind == KindVocabulary {
		return strings.ToLower(term)
	}
	return term
}
