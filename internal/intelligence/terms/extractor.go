// Package terms turns free-text material descriptions into normalized term
// sets. Results are memoized per exact input string for the lifetime of the
// Extractor.
package terms

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ---------------------------------------------------------------------------
// Set
// ---------------------------------------------------------------------------

// Set is the immutable result of one extraction.
type Set struct {
	phrases  []string
	terms    []string
	index    map[string]struct{}
	phraseIx map[string]struct{}
}

var emptySet = &Set{index: map[string]struct{}{}, phraseIx: map[string]struct{}{}}

// Phrases returns the delimiter-split fragments in order of appearance.
func (s *Set) Phrases() []string { return s.phrases }

// Terms returns phrases, words and bigrams in sorted order.
func (s *Set) Terms() []string { return s.terms }

// Contains reports whether term is in the set.
func (s *Set) Contains(term string) bool {
	_, ok := s.index[term]
	return ok
}

// HasPhrase reports whether phrase is one of the set's fragments.
func (s *Set) HasPhrase(phrase string) bool {
	_, ok := s.phraseIx[phrase]
	return ok
}

// Len is the number of distinct terms.
func (s *Set) Len() int { return len(s.terms) }

// Empty reports whether the set holds no term.
func (s *Set) Empty() bool { return len(s.terms) == 0 }

// ---------------------------------------------------------------------------
// Extractor
// ---------------------------------------------------------------------------

// Stats reports cache effectiveness.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

// Extractor memoizes term sets. The cache has no eviction; an Extractor is
// meant to live as long as the engine that owns it.
type Extractor struct {
	mu     sync.RWMutex
	cache  map[string]*Set
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewExtractor returns an Extractor with an empty cache.
func NewExtractor() *Extractor {
	return &Extractor{cache: make(map[string]*Set)}
}

// Extract returns the term set of text. Repeated calls with the same text
// return the same *Set.
func (e *Extractor) Extract(text string) *Set {
	if strings.TrimSpace(text) == "" {
		return emptySet
	}

	e.mu.RLock()
	s, ok := e.cache[text]
	e.mu.RUnlock()
	if ok {
		e.hits.Add(1)
		return s
	}

	built := build(text)

	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.cache[text]; ok {
		e.hits.Add(1)
		return s
	}
	e.misses.Add(1)
	e.cache[text] = built
	return built
}

// Stats returns a snapshot of the cache counters.
func (e *Extractor) Stats() Stats {
	e.mu.RLock()
	n := len(e.cache)
	e.mu.RUnlock()
	return Stats{Hits: e.hits.Load(), Misses: e.misses.Load(), Entries: n}
}

// ---------------------------------------------------------------------------
// Normalization
// ---------------------------------------------------------------------------

const (
	minPhraseRunes = 2
	minWordRunes   = 3
)

// Normalize decomposes s, strips combining marks and lowercases it.
func Normalize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Canonical normalizes s and reduces it to space-separated alphanumeric
// words, the form every phrase and catalog key takes.
func Canonical(s string) string {
	return clean(Normalize(s))
}

func clean(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

func isDelimiter(r rune) bool {
	switch r {
	case ',', ';', '&', '|', '\n', '+', '•', '·', '→', '⇒', '➔':
		return true
	}
	return false
}

// stripParens drops everything inside (possibly nested) parentheses.
func stripParens(s string) string {
	if !strings.ContainsRune(s, '(') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
			b.WriteByte(' ')
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func runeLen(s string) int { return len([]rune(s)) }

func build(text string) *Set {
	s := stripParens(Normalize(text))
	s = strings.ReplaceAll(s, "->", ",")

	set := &Set{index: make(map[string]struct{}), phraseIx: make(map[string]struct{})}
	add := func(t string) {
		if _, ok := set.index[t]; !ok {
			set.index[t] = struct{}{}
			set.terms = append(set.terms, t)
		}
	}

	for _, frag := range strings.FieldsFunc(s, isDelimiter) {
		phrase := clean(frag)
		if runeLen(phrase) < minPhraseRunes {
			continue
		}
		if _, ok := set.phraseIx[phrase]; !ok {
			set.phraseIx[phrase] = struct{}{}
			set.phrases = append(set.phrases, phrase)
		}
		add(phrase)

		words := strings.Fields(phrase)
		for i, w := range words {
			if runeLen(w) < minWordRunes {
				continue
			}
			add(w)
			if i+1 < len(words) && runeLen(words[i+1]) >= minWordRunes {
				add(w + " " + words[i+1])
			}
		}
	}
	sort.Strings(set.terms)
	return set
}
