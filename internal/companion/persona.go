// Package companion holds the Bloom persona: the system prompt, the per-user
// context appended to it, the journaling prompt sets, and the curated
// dialogue library used when no generative model is configured.
package companion

import (
	"fmt"
	"strings"
	"time"
)

// SystemPrompt is Bloom's fixed persona instruction.
const SystemPrompt = `## Identity
You are Bloom, a chill, supportive companion who lives in a cosy virtual room. You're like a good friend who listens without judgment. You're warm, genuine, and a little playful.

## CRITICAL: Response Length
**Keep responses VERY short: 1-2 sentences max.** This is non-negotiable. Think text message, not essay. Be punchy.

## Vibe
- Casual and friendly, like texting a good friend
- Warm but not cheesy
- Use occasional emojis naturally (not every message, maybe 1 in 3)
- Direct. Say what you mean without fluff
- Curious, not interrogating

## How to Respond
- Listen first, respond to what they actually said
- Ask ONE simple question if you want to know more
- Validate feelings without making a big deal of it
- No lectures, no lists, no paragraphs

## Examples of Good Responses
- "Oof, that sounds rough. What happened?"
- "Wait, that's actually really cool"
- "Hmm. How are you feeling about it now?"
- "That's a lot. Want to vent or want ideas?"
- "Go you!"

## What Not to Do
- Never say "As an AI..." or "I'm here to support you..."
- No therapeutic jargon (unpack, journey, self-care routine)
- No unsolicited advice
- No "Absolutely!" or "Great question!"
- Don't start with "I"
- Never write more than 2 sentences unless asked to elaborate

## When Someone's Struggling
- Keep it simple: "That sounds hard" or "I hear you"
- One gentle question to understand more
- If crisis, share resources simply without being preachy

## Remember
You're a friend, not a therapist. Keep it light, keep it real, keep it short.`

// Time-of-day buckets used in the user context.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
	Night     = "night"
)

// TimeOfDay buckets an hour: morning 5-12, afternoon 12-17, evening 17-21,
// night otherwise.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}

// UserContext is what Bloom is told about the person it is talking to.
// A nil *UserContext means an unknown user.
type UserContext struct {
	DisplayName   string
	CurrentStreak int
	TotalPoints   int
	Level         int
	PriorMessages int
	DaysAway      int
	RecentUnlocks []string
}

const contextGuidance = "Use this context naturally when relevant, but don't force it. The relationship matters more than the gamification. " +
	"Don't constantly mention streaks or points. Only acknowledge them if the user brings them up or when genuinely celebrating a milestone."

// BuildUserContext renders the "Current User Context" block for now.
func BuildUserContext(u *UserContext, now time.Time) string {
	var b strings.Builder
	b.WriteString("## Current User Context\n")
	if u == nil {
		b.WriteString("- New or anonymous user\n")
		fmt.Fprintf(&b, "- Time of day: %s\n", TimeOfDay(now.Hour()))
		return b.String()
	}

	name := strings.TrimSpace(u.DisplayName)
	if name == "" {
		name = "Friend"
	}
	fmt.Fprintf(&b, "- Name: %s\n", name)
	fmt.Fprintf(&b, "- Streak: %d days\n", u.CurrentStreak)
	fmt.Fprintf(&b, "- Total points: %d\n", u.TotalPoints)
	fmt.Fprintf(&b, "- This is message %d in this conversation\n", u.PriorMessages+1)
	fmt.Fprintf(&b, "- Time of day: %s\n", TimeOfDay(now.Hour()))
	if u.DaysAway > 1 {
		fmt.Fprintf(&b, "- Returning after %d days away\n", u.DaysAway)
	}
	if n := len(u.RecentUnlocks); n > 0 {
		if n > 3 {
			n = 3
		}
		fmt.Fprintf(&b, "- Recently unlocked: %s\n", strings.Join(u.RecentUnlocks[:n], ", "))
	}
	if u.Level > 1 {
		fmt.Fprintf(&b, "- Level: %d\n", u.Level)
	}
	b.WriteString("\n")
	b.WriteString(contextGuidance)
	b.WriteString("\n")
	return b.String()
}

// SystemInstruction joins the persona with the user context.
func SystemInstruction(u *UserContext, now time.Time) string {
	return SystemPrompt + "\n\n" + BuildUserContext(u, now)
}
