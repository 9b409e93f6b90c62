package companion

import (
	"context"
	"strings"
	"time"

	"github.com/tbourn/bloom-backend/internal/genai"
	"github.com/tbourn/bloom-backend/internal/search"
)

// questionCategories are the dialogue sets the fallback may answer with.
var questionCategories = []string{DialogueReflection, DialogueValues, DialogueGoal, DialogueEmotion}

// closeAfterTurns is the history length after which the fallback suggests
// wrapping up instead of asking another question.
const closeAfterTurns = 16

// minMatchScore is the Jaccard score below which a library match is ignored.
const minMatchScore = 0.05

// Fallback answers chat turns from the curated dialogue library when no
// generative model is available. It implements genai.Streamer.
type Fallback struct {
	idx  search.Index
	now  func() time.Time
	pick Picker
}

// FallbackOption customises a Fallback.
type FallbackOption func(*Fallback)

// WithClock overrides the time source.
func WithClock(now func() time.Time) FallbackOption {
	return func(f *Fallback) { f.now = now }
}

// WithPicker overrides the random choice of lines.
func WithPicker(p Picker) FallbackOption {
	return func(f *Fallback) { f.pick = p }
}

// minQuestionRunes keeps fragments out of the question index.
const minQuestionRunes = 8

// NewFallback indexes the question sets of the dialogue library.
func NewFallback(opts ...FallbackOption) *Fallback {
	var entries []search.Entry
	for _, c := range questionCategories {
		for _, line := range Lines(c) {
			entries = append(entries, search.Entry{Category: c, Text: line})
		}
	}
	f := &Fallback{
		idx: search.New(entries, search.WithMinRunes(minQuestionRunes), search.WithStopwords(search.DefaultStopwords)),
		now: time.Now,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Reply picks the answer for prompt given how many turns precede it.
func (f *Fallback) Reply(prompt string, priorTurns int) string {
	if hits := f.idx.TopKIn(prompt, 1, questionCategories...); len(hits) > 0 && hits[0].Score >= minMatchScore {
		return f.pick.from(dialogue[DialogueDeepening]) + " " + hits[0].Snippet
	}
	switch {
	case priorTurns == 0:
		return Greeting(f.now(), 0, f.pick)
	case priorTurns >= closeAfterTurns:
		return f.pick.from(dialogue[DialogueClosing])
	}
	return f.pick.from(dialogue[DialogueDeepening]) + " " + f.pick.from(dialogue[DialogueReflection])
}

// Stream emits the reply word by word so callers exercise the same
// incremental path as a model-backed stream.
func (f *Fallback) Stream(ctx context.Context, req genai.Request, onDelta func(string) error) (string, error) {
	reply := f.Reply(req.Prompt, len(req.History))
	var sent strings.Builder
	for i, w := range strings.Fields(reply) {
		if err := ctx.Err(); err != nil {
			return sent.String(), err
		}
		if i > 0 {
			w = " " + w
		}
		if onDelta != nil {
			if err := onDelta(w); err != nil {
				return sent.String(), err
			}
		}
		sent.WriteString(w)
	}
	return sent.String(), nil
}

var _ genai.Streamer = (*Fallback)(nil)
