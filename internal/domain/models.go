// Package domain defines the persistence models for conversations, messages,
// gamification state, and the room/inventory catalog. These types are mapped
// with GORM and form the core data layer of the companion backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultConversationTitle is assigned when a conversation is created without
// a title. It is also treated as a placeholder eligible for auto-titling.
const DefaultConversationTitle = "New Conversation"

// Conversation represents a journaling session owned by a user.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the owner (the authenticated principal).
//   - Title: human-readable title, derived from the first message when left
//     as the placeholder.
//   - DeletedAt: soft deletion marker.
type Conversation struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_conversations"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null;default:'New Conversation'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message is a single utterance within a conversation, authored by the user
// or by the companion.
//
// Crisis marks the fixed safety response that replaced model generation.
// Partial marks an assistant reply whose stream ended before completion.
type Message struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string         `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conversation_msgs,priority:1"`
	Role           string         `json:"role"            gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content        string         `json:"content"         gorm:"type:text;not null"`
	Crisis         bool           `json:"crisis,omitempty"  gorm:"not null;default:false"`
	Partial        bool           `json:"partial,omitempty" gorm:"not null;default:false"`
	CreatedAt      time.Time      `json:"created_at"      gorm:"index:idx_conversation_msgs,priority:2"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"               gorm:"index"`

	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Profile holds per-user gamification state.
//
// CurrentPoints is the spendable balance and never goes negative.
// TotalPoints is a lifetime-earned counter; spending never decreases it.
// LastActiveDate is a UTC calendar day formatted as YYYY-MM-DD.
// Level is not stored; see Level().
type Profile struct {
	UserID         string    `json:"user_id"          gorm:"type:varchar(64);primaryKey"`
	DisplayName    string    `json:"display_name"     gorm:"type:varchar(120);not null;default:''"`
	CurrentPoints  int       `json:"current_points"   gorm:"not null;default:0;check:current_points >= 0"`
	TotalPoints    int       `json:"total_points"     gorm:"not null;default:0"`
	CurrentStreak  int       `json:"current_streak"   gorm:"not null;default:0"`
	LongestStreak  int       `json:"longest_streak"   gorm:"not null;default:0"`
	LastActiveDate *string   `json:"last_active_date" gorm:"type:varchar(10)"`
	XP             int       `json:"xp"               gorm:"not null;default:0"`
	MessagesSent   int       `json:"messages_sent"    gorm:"not null;default:0"`
	IsPremium      bool      `json:"is_premium"       gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// Level derives the user's level from XP: floor(xp/100) + 1.
func (p Profile) Level() int {
	if p.XP <= 0 {
		return 1
	}
	return p.XP/100 + 1
}

// Activity types recorded in the activity log.
const (
	ActivityDailyCheckIn = "daily_checkin"
	ActivityPurchase     = "purchase"
	ActivityMessage      = "message"
)

// ActivityLog is an append-only audit record of point-affecting events.
// Rows are never updated or deleted by the application.
type ActivityLog struct {
	ID           string            `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID       string            `json:"user_id"       gorm:"type:varchar(64);not null;index:idx_user_activity,priority:1"`
	ActivityType string            `json:"activity_type" gorm:"type:varchar(32);not null"`
	PointsEarned int               `json:"points_earned" gorm:"not null;default:0"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"    gorm:"index:idx_user_activity,priority:2"`
}

// TableName returns the database table name for ActivityLog.
func (ActivityLog) TableName() string { return "activity_log" }
