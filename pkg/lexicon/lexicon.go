// Package lexicon decides whether a word or token is worth annotating:
// long multi-syllable vocabulary, and acronym-shaped concept terms.
package lexicon

import (
	"regexp"
	"strings"
)

const (
	// minWordLength is the shortest word considered for simplification.
	minWordLength = 8
	// minSyllables is the syllable floor for a word to count as complex.
	minSyllables = 3
	// maxConceptLength keeps full proper names out of the concept scan.
	maxConceptLength = 10
)

// Classifier holds the common-word exclusion set fixed at construction.
type Classifier struct {
	common map[string]struct{}
}

// NewClassifier builds a Classifier. A nil word list falls back to the
// built-in common-word set.
func NewClassifier(commonWords []string) *Classifier {
	if commonWords == nil {
		commonWords = defaultCommonWords
	}
	common := make(map[string]struct{}, len(commonWords))
	for _, word := range commonWords {
		common[strings.ToLower(word)] = struct{}{}
	}
	return &Classifier{common: common}
}

// IsComplexWord reports whether a word qualifies for vocabulary
// simplification: at least 8 letters, not an everyday word, and at
// least 3 estimated syllables.
func (c *Classifier) IsComplexWord(word string) bool {
	if len(word) < minWordLength {
		return false
	}
	lower := strings.ToLower(word)
	if !isAlphabetic(lower) {
		return false
	}
	if _, ok := c.common[lower]; ok {
		return false
	}
	return SyllableCount(lower) >= minSyllables
}

var (
	acronymPattern   = regexp.MustCompile(`^[A-Z]{2,}$`)
	camelCasePattern = regexp.MustCompile(`^(?:[A-Z][a-z]+){2,}$`)
	alnumPattern     = regexp.MustCompile(`^[A-Za-z]+[0-9]+[A-Za-z0-9]*$`)
)

// IsConceptTerm reports whether a token looks like a technical concept:
// an all-caps acronym (HTTP), a CamelCase compound (TypeScript), or a
// letter-digit mix (IPv6, SHA256). Case-sensitive, capped at 10
// characters so full proper names don't qualify.
func (c *Classifier) IsConceptTerm(token string) bool {
	if len(token) < 2 || len(token) > maxConceptLength {
		return false
	}
	return acronymPattern.MatchString(token) ||
		camelCasePattern.MatchString(token) ||
		alnumPattern.MatchString(token)
}

// SyllableCount estimates syllables by counting vowel groups after
// stripping common silent suffixes. Approximate by nature; it only has
// to separate plainly short words from plainly polysyllabic ones.
func SyllableCount(word string) int {
	word = strings.ToLower(word)
	for _, suffix := range []string{"ement", "ments", "ment", "es", "ed", "e"} {
		if strings.HasSuffix(word, suffix) && len(word)-len(suffix) >= 3 {
			word = word[:len(word)-len(suffix)]
			break
		}
	}

	count := 0
	inGroup := false
	for _, r := range word {
		if isVowel(r) {
			if !inGroup {
				count++
				inGroup = true
			}
		} else {
			inGroup = false
		}
	}
	if count == 0 {
		count = 1
	}
	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

func isAlphabetic(word string) bool {
	for _, r := range word {
		if (r < 'a' || r > 'z') && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}
