// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides profile access and the conditional
// balance updates that keep concurrent writers from losing points.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/bloom-backend/internal/domain"
)

// ErrInsufficientPoints is returned by DebitPoints when the balance would go
// negative.
var ErrInsufficientPoints = errors.New("insufficient points")

// GetOrCreateProfile returns the user's profile, creating a zeroed one on
// first access.
func GetOrCreateProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	now := time.Now().UTC()
	seed := domain.Profile{UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seed).Error; err != nil {
		return nil, err
	}
	return GetProfile(ctx, db, userID)
}

// GetProfile returns the profile or ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveCheckIn persists the accrual fields of p only if last_active_date still
// equals prevDay (nil meaning never active). A concurrent check-in that got
// there first makes this return ErrConflict.
func SaveCheckIn(ctx context.Context, db *gorm.DB, p *domain.Profile, prevDay *string) error {
	q := db.WithContext(ctx).Model(&domain.Profile{}).Where("user_id = ?", p.UserID)
	if prevDay == nil {
		q = q.Where("last_active_date IS NULL")
	} else {
		q = q.Where("last_active_date = ?", *prevDay)
	}
	res := q.Updates(map[string]any{
		"current_points":   p.CurrentPoints,
		"total_points":     p.TotalPoints,
		"current_streak":   p.CurrentStreak,
		"longest_streak":   p.LongestStreak,
		"last_active_date": p.LastActiveDate,
		"updated_at":       time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// DebitPoints subtracts amount from the spendable balance in one statement.
// It returns ErrInsufficientPoints when the balance is lower than amount.
// TotalPoints is never touched.
func DebitPoints(ctx context.Context, db *gorm.DB, userID string, amount int) error {
	if amount <= 0 {
		return nil
	}
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("user_id = ? AND current_points >= ?", userID, amount).
		Updates(map[string]any{
			"current_points": gorm.Expr("current_points - ?", amount),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientPoints
	}
	return nil
}

// RecordMessageStats credits one completed chat turn.
func RecordMessageStats(ctx context.Context, db *gorm.DB, userID string, xp int) error {
	return db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"messages_sent": gorm.Expr("messages_sent + 1"),
			"xp":            gorm.Expr("xp + ?", xp),
			"updated_at":    time.Now().UTC(),
		}).Error
}

// UpdateDisplayName sets the profile's display name.
func UpdateDisplayName(ctx context.Context, db *gorm.DB, userID, name string) error {
	return db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"display_name": name, "updated_at": time.Now().UTC()}).Error
}
