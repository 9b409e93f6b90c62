// Package services – ChatService
//
// This file implements one chat turn with the companion: input validation,
// conversation ownership, persistence of the user message, the crisis screen,
// the personalised system instruction, the streamed reply, and the trailing
// persistence and accrual.
//
// The reply is handed to the caller chunk by chunk through onDelta. Once the
// first chunk has been delivered the turn can no longer fail from the
// caller's point of view; later problems only mark the reply partial. The
// trailing steps run on a context detached from the request so that a client
// disconnect does not lose the text it already received.
//
// Observability: Turn is OpenTelemetry-instrumented; trailing failures are
// logged through the request logger and counted, never returned.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/bloom-backend/internal/accrual"
	"github.com/tbourn/bloom-backend/internal/companion"
	"github.com/tbourn/bloom-backend/internal/domain"
	"github.com/tbourn/bloom-backend/internal/genai"
	"github.com/tbourn/bloom-backend/internal/observability"
	"github.com/tbourn/bloom-backend/internal/repo"
	"github.com/tbourn/bloom-backend/internal/safety"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"

	recentUnlocks = 3
	previewRunes  = 50
)

// placeholderTitles are titles eligible for auto-generation.
var placeholderTitles = map[string]struct{}{
	"":                 {},
	"new conversation": {},
	"new chat":         {},
	"untitled":         {},
}

// ChatMessage is one entry of the client-supplied transcript.
type ChatMessage struct {
	Role    string `json:"role"    validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// TurnInput is a chat turn request. The last message is the new user prompt;
// earlier ones are history. ConversationID is optional.
type TurnInput struct {
	Messages       []ChatMessage
	ConversationID string
}

// TurnResult summarises a finished turn.
type TurnResult struct {
	Reply     string
	Completed bool
	Crisis    bool
	Title     string
	CheckIn   *CheckInOutcome
}

// ChatService runs chat turns.
type ChatService struct {
	DB      *gorm.DB
	Model   genai.Streamer
	Accrual *AccrualService

	MaxPromptRunes int
	MaxHistory     int
	PersistTimeout time.Duration

	TitleLocale language.Tag
	TitleMaxLen int

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (s *ChatService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Turn validates in, streams the companion's reply through onDelta and
// records the exchange. An error is returned only when nothing was streamed.
func (s *ChatService) Turn(ctx context.Context, userID string, in TurnInput, onDelta func(string) error) (*TurnResult, error) {
	ctx, span := otel.Tracer("services/ChatService").Start(ctx, "Turn",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("conversation.id", in.ConversationID),
			attribute.Int("messages", len(in.Messages)),
		),
	)
	defer span.End()

	prompt, err := s.validate(in.Messages)
	if err != nil {
		return nil, err
	}

	var conv *domain.Conversation
	if in.ConversationID != "" {
		conv, err = repo.GetConversation(ctx, s.DB, in.ConversationID, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		if err != nil {
			return nil, err
		}
	}

	history := s.history(ctx, conv, in.Messages)
	res := &TurnResult{}
	crisis := safety.Detect(prompt)
	if conv != nil {
		res.Title = s.persistPrompt(ctx, conv, in.Messages[len(in.Messages)-1].Content, prompt, !crisis)
	}

	if crisis {
		return s.crisis(ctx, userID, conv, prompt, onDelta, res)
	}

	req := genai.Request{
		System:  companion.SystemInstruction(s.userContext(ctx, userID, len(history)), s.now()),
		History: history,
		Prompt:  prompt,
	}

	started := false
	text, err := s.Model.Stream(ctx, req, func(delta string) error {
		started = true
		return onDelta(delta)
	})
	if err != nil && !started {
		observability.ChatStream(observability.StreamFailed)
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	res.Reply = text
	res.Completed = err == nil
	switch {
	case !res.Completed:
		zerolog.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Int("delivered_runes", utf8.RuneCountInString(text)).Msg("chat stream interrupted")
		observability.ChatStream(observability.StreamPartial)
	case s.offline():
		observability.ChatStream(observability.StreamOffline)
	default:
		observability.ChatStream(observability.StreamCompleted)
	}

	tctx, cancel := s.trailing(ctx)
	defer cancel()

	if conv != nil && text != "" {
		msg := domain.Message{ConversationID: conv.ID, Role: roleAssistant, Content: text, Partial: !res.Completed}
		if _, perr := repo.CreateMessage(tctx, s.DB, msg); perr != nil {
			s.trailingFailure(tctx, "persist_reply", perr)
		}
	}
	// An empty completion delivered nothing and earns nothing.
	if res.Completed && text != "" && s.Accrual != nil {
		out, aerr := s.Accrual.RecordTurn(tctx, userID)
		if aerr != nil {
			s.trailingFailure(tctx, "accrual", aerr)
		}
		res.CheckIn = out
	}
	return res, nil
}

func (s *ChatService) crisis(ctx context.Context, userID string, conv *domain.Conversation, prompt string, onDelta func(string) error, res *TurnResult) (*TurnResult, error) {
	zerolog.Ctx(ctx).Warn().
		Str("user_id", userID).
		Str("preview", safety.Preview(prompt, previewRunes)).
		Msg("crisis language detected")
	observability.Crisis()
	observability.ChatStream(observability.StreamCrisis)

	err := onDelta(safety.Response)
	res.Reply = safety.Response
	res.Crisis = true
	res.Completed = err == nil

	tctx, cancel := s.trailing(ctx)
	defer cancel()
	if conv != nil {
		msg := domain.Message{ConversationID: conv.ID, Role: roleAssistant, Content: safety.Response, Crisis: true}
		if _, perr := repo.CreateMessage(tctx, s.DB, msg); perr != nil {
			s.trailingFailure(tctx, "persist_crisis", perr)
		}
	}
	return res, nil
}

func (s *ChatService) validate(msgs []ChatMessage) (string, error) {
	if len(msgs) == 0 {
		return "", ErrEmptyMessages
	}
	last := msgs[len(msgs)-1]
	if last.Role != roleUser {
		return "", ErrLastNotUser
	}
	prompt := strings.TrimSpace(last.Content)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return "", ErrTooLong
	}
	return prompt, nil
}

// history converts everything before the final message into model turns.
// When the client sent only the new prompt for a stored conversation, the
// stored tail is used instead.
func (s *ChatService) history(ctx context.Context, conv *domain.Conversation, msgs []ChatMessage) []genai.Turn {
	prior := msgs[:len(msgs)-1]
	if len(prior) == 0 && conv != nil && s.MaxHistory > 0 {
		stored, err := repo.ListRecentMessages(ctx, s.DB, conv.ID, s.MaxHistory)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("conversation_id", conv.ID).Msg("load history failed")
		}
		for _, m := range stored {
			prior = append(prior, ChatMessage{Role: m.Role, Content: m.Content})
		}
	}

	turns := make([]genai.Turn, 0, len(prior))
	for _, m := range prior {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		switch m.Role {
		case roleUser:
			turns = append(turns, genai.Turn{Role: genai.RoleUser, Text: text})
		case roleAssistant:
			turns = append(turns, genai.Turn{Role: genai.RoleModel, Text: text})
		}
	}
	if s.MaxHistory > 0 && len(turns) > s.MaxHistory {
		turns = turns[len(turns)-s.MaxHistory:]
	}
	return turns
}

// persistPrompt stores the user message verbatim and, when autoTitle is set
// and this is the first prompt of a conversation with a placeholder title,
// derives a title from prompt. It returns the title the conversation ends
// up with.
func (s *ChatService) persistPrompt(ctx context.Context, conv *domain.Conversation, raw, prompt string, autoTitle bool) string {
	lg := zerolog.Ctx(ctx)
	if _, err := repo.CreateMessage(ctx, s.DB, domain.Message{ConversationID: conv.ID, Role: roleUser, Content: raw}); err != nil {
		lg.Error().Err(err).Str("conversation_id", conv.ID).Msg("persist user message failed")
		return conv.Title
	}
	if err := repo.TouchConversation(ctx, s.DB, conv.ID); err != nil {
		lg.Warn().Err(err).Str("conversation_id", conv.ID).Msg("touch conversation failed")
	}

	if !autoTitle {
		return conv.Title
	}
	if _, ok := placeholderTitles[strings.ToLower(strings.TrimSpace(conv.Title))]; !ok {
		return conv.Title
	}
	n, err := repo.CountMessagesByRole(ctx, s.DB, conv.ID, roleUser)
	if err != nil || n != 1 {
		return conv.Title
	}
	title := s.titleFromPrompt(prompt)
	if title == "" {
		return conv.Title
	}
	if err := repo.UpdateConversationTitle(ctx, s.DB, conv.ID, conv.UserID, title); err != nil {
		lg.Warn().Err(err).Str("conversation_id", conv.ID).Msg("auto-title failed")
		return conv.Title
	}
	return title
}

func (s *ChatService) userContext(ctx context.Context, userID string, prior int) *companion.UserContext {
	p, err := repo.GetProfile(ctx, s.DB, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("load profile failed")
		}
		return &companion.UserContext{PriorMessages: prior, DaysAway: -1}
	}
	unlocks, err := repo.RecentUnlockNames(ctx, s.DB, userID, recentUnlocks)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("load unlocks failed")
	}
	return &companion.UserContext{
		DisplayName:   p.DisplayName,
		CurrentStreak: p.CurrentStreak,
		TotalPoints:   p.TotalPoints,
		Level:         p.Level(),
		PriorMessages: prior,
		DaysAway:      accrual.DaysSince(p.LastActiveDate, s.now()),
		RecentUnlocks: unlocks,
	}
}

func (s *ChatService) trailing(ctx context.Context) (context.Context, context.CancelFunc) {
	d := s.PersistTimeout
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}

func (s *ChatService) trailingFailure(ctx context.Context, step string, err error) {
	lg := zerolog.Ctx(ctx)
	if lg.GetLevel() == zerolog.Disabled {
		lg = &log.Logger
	}
	lg.Error().Err(err).Str("step", step).Msg("chat trailing step failed")
	observability.TrailingFailure(step)
}

func (s *ChatService) offline() bool {
	_, ok := s.Model.(*companion.Fallback)
	return ok
}

// titleFromPrompt derives a concise title from the prompt.
func (s *ChatService) titleFromPrompt(prompt string) string {
	toks := titleWordRE.FindAllString(strings.ToLower(prompt), -1)
	if len(toks) == 0 {
		return ""
	}
	loc := s.TitleLocale
	if loc == language.Und {
		loc = language.English
	}
	caser := cases.Title(loc)

	out := make([]string, 0, 8)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, caser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	if len(out) == 0 {
		return ""
	}
	limit := s.TitleMaxLen
	if limit <= 0 {
		limit = 60
	}
	return clipRunes(strings.Join(out, " "), limit)
}

// Letters with optional trailing digits.
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
	"i": {}, "im": {}, "my": {}, "me": {}, "so": {}, "just": {}, "feel": {},
	"feeling": {}, "today": {}, "really": {},
}
