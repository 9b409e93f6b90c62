// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the append-only activity log.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/bloom-backend/internal/domain"
)

// AppendActivity writes one audit row.
func AppendActivity(ctx context.Context, db *gorm.DB, userID, kind string, points int, meta map[string]any) (*domain.ActivityLog, error) {
	a := &domain.ActivityLog{
		ID:           uuid.NewString(),
		UserID:       userID,
		ActivityType: kind,
		PointsEarned: points,
		CreatedAt:    time.Now().UTC(),
	}
	if len(meta) > 0 {
		a.Metadata = datatypes.JSONMap(meta)
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// ListActivity returns the newest activity first, up to limit rows.
func ListActivity(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []domain.ActivityLog
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
