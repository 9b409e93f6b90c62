// Package services – ConversationService
//
// This file implements the ConversationService, which manages the lifecycle
// of journaling conversations. It validates and normalizes titles, enforces
// ownership rules, and coordinates repository operations for creating,
// listing (with pagination), renaming, and reading the message history of a
// conversation. Automatic titling from the first user message is performed
// by ChatService.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/bloom-backend/internal/domain"
)

// ConversationRepo defines the repository contract required by
// ConversationService.
type ConversationRepo interface {
	// CreateConversation inserts a new conversation row for the given user.
	CreateConversation(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Conversation, error)

	// GetConversation fetches a conversation by ID ensuring it belongs to the user.
	GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error)

	// UpdateConversationTitle renames a conversation owned by the user.
	UpdateConversationTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error

	// CountConversations returns the total number of conversations for pagination.
	CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListConversationsPage returns a page of the user's conversations.
	ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error)

	// ConversationsStats returns the row count and latest update for ETags.
	ConversationsStats(ctx context.Context, db *gorm.DB, userID string) (int64, *time.Time, error)

	// CountMessages returns the number of messages in a conversation.
	CountMessages(ctx context.Context, db *gorm.DB, conversationID string) (int64, error)

	// ListMessagesPage returns a page of messages in chronological order.
	ListMessagesPage(ctx context.Context, db *gorm.DB, conversationID string, offset, limit int) ([]domain.Message, error)

	// MessagesStats returns the message count and latest update for ETags.
	MessagesStats(ctx context.Context, db *gorm.DB, conversationID string) (int64, *time.Time, error)
}

// ConversationService provides conversation-level operations.
type ConversationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the conversation repository used by this service.
	Repo ConversationRepo

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
}

// NewConversationService constructs a ConversationService with default title handling.
func NewConversationService(db *gorm.DB, r ConversationRepo) *ConversationService {
	return &ConversationService{DB: db, Repo: r, TitleMaxLen: 120}
}

// Create inserts a new conversation owned by userID. A blank title stores
// the placeholder, which keeps the conversation eligible for auto-titling.
func (s *ConversationService) Create(ctx context.Context, userID, title string) (*domain.Conversation, error) {
	ctx, span := otel.Tracer("services/ConversationService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	title = normalizeTitle(title)
	if title == "" {
		title = domain.DefaultConversationTitle
	}
	return s.Repo.CreateConversation(ctx, s.DB, userID, s.clip(title))
}

// ListPage returns a page of conversations for a user and the total count.
func (s *ConversationService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error) {
	ctx, span := otel.Tracer("services/ConversationService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	page, pageSize = normPage(page, pageSize)
	total, err := s.Repo.CountConversations(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Conversation{}, 0, nil
	}
	items, err := s.Repo.ListConversationsPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Stats reports the user's conversation count and latest update time.
func (s *ConversationService) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return s.Repo.ConversationsStats(ctx, s.DB, userID)
}

// UpdateTitle renames a conversation owned by userID. A blank title falls
// back to "Untitled".
func (s *ConversationService) UpdateTitle(ctx context.Context, userID, conversationID, title string) error {
	title = normalizeTitle(title)
	if title == "" {
		title = "Untitled"
	}
	if _, err := s.owned(ctx, userID, conversationID); err != nil {
		return err
	}
	return s.Repo.UpdateConversationTitle(ctx, s.DB, conversationID, userID, s.clip(title))
}

// Messages returns a page of a conversation's messages in chronological order.
func (s *ConversationService) Messages(ctx context.Context, userID, conversationID string, page, pageSize int) ([]domain.Message, int64, error) {
	ctx, span := otel.Tracer("services/ConversationService").Start(ctx, "Messages",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if _, err := s.owned(ctx, userID, conversationID); err != nil {
		return nil, 0, err
	}
	page, pageSize = normPage(page, pageSize)
	total, err := s.Repo.CountMessages(ctx, s.DB, conversationID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}
	items, err := s.Repo.ListMessagesPage(ctx, s.DB, conversationID, (page-1)*pageSize, pageSize)
	return items, total, err
}

// MessageStats reports the message count and latest update of a
// conversation owned by userID.
func (s *ConversationService) MessageStats(ctx context.Context, userID, conversationID string) (int64, *time.Time, error) {
	if _, err := s.owned(ctx, userID, conversationID); err != nil {
		return 0, nil, err
	}
	return s.Repo.MessagesStats(ctx, s.DB, conversationID)
}

func (s *ConversationService) owned(ctx context.Context, userID, conversationID string) (*domain.Conversation, error) {
	c, err := s.Repo.GetConversation(ctx, s.DB, conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return c, nil
}

// clip truncates a title to the configured maximum rune length.
func (s *ConversationService) clip(title string) string {
	return clipRunes(title, s.TitleMaxLen)
}

func clipRunes(s string, n int) string {
	if n > 0 && utf8.RuneCountInString(s) > n {
		return string([]rune(s)[:n])
	}
	return s
}

func normPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return page, pageSize
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
