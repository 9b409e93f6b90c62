// Package accrual implements the gamification arithmetic: the daily check-in
// streak gate, the check-in award, per-message XP and the XP-to-level curve.
//
// Every function here is pure. Callers load the current Profile, apply a rule
// and persist the result inside one transaction.
package accrual

import (
	"time"

	"github.com/tbourn/bloom-backend/internal/domain"
)

// DayLayout formats a calendar day as stored in Profile.LastActiveDate.
const DayLayout = "2006-01-02"

// Rules are the tunable accrual constants.
type Rules struct {
	CheckInBase        int
	CheckInStreakBonus int
	XPPerMessage       int
}

// DefaultRules returns the product defaults: 50 + 10 per streak day and
// 10 XP per completed chat turn.
func DefaultRules() Rules {
	return Rules{CheckInBase: 50, CheckInStreakBonus: 10, XPPerMessage: 10}
}

// Award is the points granted for a check-in that brings the streak to streak.
func (r Rules) Award(streak int) int {
	if streak < 1 {
		streak = 1
	}
	return r.CheckInBase + r.CheckInStreakBonus*streak
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// CheckInResult describes the outcome of applying the daily gate.
type CheckInResult struct {
	AlreadyClaimed bool
	Streak         int
	Awarded        int
	Today          string
}

// CheckIn applies the daily check-in rule to p for the day containing now.
//
// The profile is mutated only when the day has not been claimed yet: the
// streak extends when the last active day was yesterday and restarts at 1
// otherwise, the award is added to both balances, and LastActiveDate moves
// to today. A second call on the same day reports AlreadyClaimed and leaves
// p untouched.
func (r Rules) CheckIn(p *domain.Profile, now time.Time) CheckInResult {
	today := Day(now)
	if p.LastActiveDate != nil && *p.LastActiveDate == today {
		return CheckInResult{AlreadyClaimed: true, Streak: p.CurrentStreak, Today: today}
	}

	yesterday := Day(now.UTC().AddDate(0, 0, -1))
	streak := 1
	if p.LastActiveDate != nil && *p.LastActiveDate == yesterday {
		streak = p.CurrentStreak + 1
	}
	award := r.Award(streak)

	p.CurrentStreak = streak
	if streak > p.LongestStreak {
		p.LongestStreak = streak
	}
	p.CurrentPoints += award
	p.TotalPoints += award
	p.LastActiveDate = &today

	return CheckInResult{Streak: streak, Awarded: award, Today: today}
}

// RecordMessage credits one completed chat turn.
func (r Rules) RecordMessage(p *domain.Profile) {
	p.MessagesSent++
	p.XP += r.XPPerMessage
}

// LevelForXP is floor(xp/100)+1, clamped at level 1 for non-positive xp.
func LevelForXP(xp int) int {
	return domain.Profile{XP: xp}.Level()
}

// DaysSince returns whole UTC days between the stored day and now, or -1
// when day is nil or unparsable.
func DaysSince(day *string, now time.Time) int {
	if day == nil {
		return -1
	}
	d, err := time.Parse(DayLayout, *day)
	if err != nil {
		return -1
	}
	today, _ := time.Parse(DayLayout, Day(now))
	return int(today.Sub(d).Hours() / 24)
}
