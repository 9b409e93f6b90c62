// Package services – AccrualService
//
// This file implements the gamification write path: the daily check-in gate,
// per-turn XP, and profile reads. The arithmetic lives in package accrual;
// this service loads the profile, applies a rule and persists the result with
// the matching activity-log row in one transaction.
//
// The check-in write is conditional on the last_active_date that was read, so
// two concurrent check-ins on the same day cannot both award points: the
// loser re-reads the profile and observes the day as already claimed.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/bloom-backend/internal/accrual"
	"github.com/tbourn/bloom-backend/internal/domain"
	"github.com/tbourn/bloom-backend/internal/observability"
	"github.com/tbourn/bloom-backend/internal/repo"
)

// ActionDailyCheckIn is the only action accepted by the points endpoint.
const ActionDailyCheckIn = "daily_checkin"

// checkInAttempts bounds re-reads after losing a conditional update.
const checkInAttempts = 3

// AccrualService applies accrual rules to stored profiles.
type AccrualService struct {
	DB    *gorm.DB
	Rules accrual.Rules

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// CheckInOutcome is the result of a check-in together with the stored
// profile after it.
type CheckInOutcome struct {
	accrual.CheckInResult
	Profile domain.Profile
}

func (s *AccrualService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Profile returns the user's profile, creating it with zero defaults on
// first access.
func (s *AccrualService) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	return repo.GetOrCreateProfile(ctx, s.DB, userID)
}

// Rename sets the name the companion addresses the user by.
func (s *AccrualService) Rename(ctx context.Context, userID, name string) (*domain.Profile, error) {
	if _, err := repo.GetOrCreateProfile(ctx, s.DB, userID); err != nil {
		return nil, err
	}
	if err := repo.UpdateDisplayName(ctx, s.DB, userID, name); err != nil {
		return nil, err
	}
	return repo.GetProfile(ctx, s.DB, userID)
}

// Activity returns the most recent activity-log rows.
func (s *AccrualService) Activity(ctx context.Context, userID string, limit int) ([]domain.ActivityLog, error) {
	return repo.ListActivity(ctx, s.DB, userID, limit)
}

// Apply runs a points action. Only ActionDailyCheckIn is supported.
func (s *AccrualService) Apply(ctx context.Context, userID, action string) (*CheckInOutcome, error) {
	if action != ActionDailyCheckIn {
		return nil, ErrUnknownAction
	}
	return s.CheckIn(ctx, userID)
}

// CheckIn applies the daily check-in. A second call on the same UTC day
// reports AlreadyClaimed and changes nothing.
func (s *AccrualService) CheckIn(ctx context.Context, userID string) (*CheckInOutcome, error) {
	ctx, span := otel.Tracer("services/AccrualService").Start(ctx, "CheckIn",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	var out *CheckInOutcome
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = s.checkIn(ctx, tx, userID, s.now())
		return err
	})
	if err != nil {
		observability.CheckIn(observability.OutcomeError, 0)
		return nil, err
	}
	recordCheckIn(out)
	span.SetAttributes(attribute.Int("streak", out.Streak), attribute.Int("awarded", out.Awarded))
	return out, nil
}

// RecordTurn credits a completed chat turn: XP and messages_sent are
// incremented and the daily check-in runs in the same transaction, so the
// first completed turn of a day also extends the streak.
func (s *AccrualService) RecordTurn(ctx context.Context, userID string) (*CheckInOutcome, error) {
	ctx, span := otel.Tracer("services/AccrualService").Start(ctx, "RecordTurn",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	var out *CheckInOutcome
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetOrCreateProfile(ctx, tx, userID); err != nil {
			return err
		}
		if err := repo.RecordMessageStats(ctx, tx, userID, s.Rules.XPPerMessage); err != nil {
			return err
		}
		if _, err := repo.AppendActivity(ctx, tx, userID, domain.ActivityMessage, 0, map[string]any{"xp": s.Rules.XPPerMessage}); err != nil {
			return err
		}
		var err error
		out, err = s.checkIn(ctx, tx, userID, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	recordCheckIn(out)
	return out, nil
}

func (s *AccrualService) checkIn(ctx context.Context, tx *gorm.DB, userID string, now time.Time) (*CheckInOutcome, error) {
	for range checkInAttempts {
		p, err := repo.GetOrCreateProfile(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		prev := p.LastActiveDate
		res := s.Rules.CheckIn(p, now)
		if res.AlreadyClaimed {
			return &CheckInOutcome{CheckInResult: res, Profile: *p}, nil
		}

		err = repo.SaveCheckIn(ctx, tx, p, prev)
		if errors.Is(err, repo.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		meta := map[string]any{"streak": res.Streak, "day": res.Today}
		if _, err := repo.AppendActivity(ctx, tx, userID, domain.ActivityDailyCheckIn, res.Awarded, meta); err != nil {
			return nil, err
		}
		return &CheckInOutcome{CheckInResult: res, Profile: *p}, nil
	}
	return nil, ErrBusy
}

func recordCheckIn(out *CheckInOutcome) {
	if out.AlreadyClaimed {
		observability.CheckIn("already_claimed", 0)
		return
	}
	observability.CheckIn("awarded", out.Awarded)
}
