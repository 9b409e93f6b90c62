// Package search provides a small, deterministic, concurrency-safe in-memory
// index over short categorised texts (the companion's dialogue library).
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options for filtering and stop-word removal
//   - Unicode-aware tokenization
//   - Immutable after construction, safe for concurrent use
//   - Deterministic scoring and ordering (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// entry's token set: score = |Q ∩ E| / |Q ∪ E|.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Entry is one indexed text tagged with the category it belongs to.
type Entry struct {
	Category string
	Text     string
}

// Result is a ranked entry with its similarity score.
type Result struct {
	Snippet  string
	Category string
	Score    float64
}

// Index is the read-only query surface.
type Index interface {
	// TopK returns up to k best matches across all categories.
	TopK(query string, k int) []Result
	// TopKIn restricts matching to the given categories.
	TopKIn(query string, k int, categories ...string) []Result
	// Len is the number of indexed entries.
	Len() int
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minRunes  int
	stopwords map[string]struct{}
}

func defaultConfig() config {
	return config{minRunes: 1}
}

// WithMinRunes drops entries shorter than n runes. Negative values are ignored.
func WithMinRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minRunes = n
		}
	}
}

// WithStopwords removes the given words from both entries and queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// DefaultStopwords is a compact English list tuned for conversational text.
var DefaultStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "been", "but", "by", "can", "do",
	"for", "from", "had", "has", "have", "how", "i", "i'm", "if", "im", "in",
	"is", "it", "its", "just", "me", "my", "of", "on", "or", "so", "that",
	"the", "there", "this", "to", "today", "was", "we", "what", "when", "with",
	"you", "your",
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	entry  Entry
	tokens map[string]struct{}
	tLen   int
}

type index struct {
	cfg  config
	docs []doc
}

// New builds an Index from entries. Blank or token-less entries are skipped.
func New(entries []Entry, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	docs := make([]doc, 0, len(entries))
	for _, e := range entries {
		t := strings.TrimSpace(normalizeWhitespace(e.Text))
		if t == "" {
			continue
		}
		if cfg.minRunes > 0 && utf8.RuneCountInString(t) < cfg.minRunes {
			continue
		}
		toks := tokenize(t, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{entry: Entry{Category: e.Category, Text: t}, tokens: toks, tLen: len(toks)})
	}
	return &index{cfg: cfg, docs: docs}
}

func (i *index) Len() int { return len(i.docs) }

func (i *index) TopK(q string, k int) []Result {
	return i.TopKIn(q, k)
}

func (i *index) TopKIn(q string, k int, categories ...string) []Result {
	if len(i.docs) == 0 {
		return nil
	}
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	var allow map[string]struct{}
	if len(categories) > 0 {
		allow = make(map[string]struct{}, len(categories))
		for _, c := range categories {
			allow[c] = struct{}{}
		}
	}

	type scored struct {
		doc      *doc
		score    float64
		lenRunes int
	}

	buf := make([]scored, 0, min(k*4, len(i.docs)))
	for n := range i.docs {
		d := &i.docs[n]
		if allow != nil {
			if _, ok := allow[d.entry.Category]; !ok {
				continue
			}
		}
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + d.tLen - over)
		if union <= 0 {
			continue
		}
		buf = append(buf, scored{
			doc:      d,
			score:    float64(over) / union,
			lenRunes: utf8.RuneCountInString(d.entry.Text),
		})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].lenRunes != buf[b].lenRunes {
			return buf[a].lenRunes < buf[b].lenRunes
		}
		return buf[a].doc.entry.Text < buf[b].doc.entry.Text
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		out[n] = Result{Snippet: buf[n].doc.entry.Text, Category: buf[n].doc.entry.Category, Score: buf[n].score}
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = strings.ToLower(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
