package companion

import (
	"math/rand/v2"
	"time"
)

// Journal prompt categories.
const (
	CategoryCheckIn    = "check-in"
	CategoryGratitude  = "gratitude"
	CategoryGoals      = "goals"
	CategoryReflection = "reflection"
	CategoryMood       = "mood"
)

// JournalPrompt is a suggested journaling opener shown to the user.
type JournalPrompt struct {
	ID           string   `json:"id"`
	Category     string   `json:"category"`
	Text         string   `json:"text"`
	FollowUps    []string `json:"follow_ups,omitempty"`
	PointsReward int      `json:"points_reward"`
	Icon         string   `json:"icon"`
}

var morningPrompts = []JournalPrompt{
	{ID: "morning-1", Category: CategoryCheckIn, Text: "Good morning! What's one thing you want to accomplish today?", FollowUps: []string{"What would make today a success?", "Any obstacles you anticipate?"}, PointsReward: 15, Icon: "☀️"},
	{ID: "morning-2", Category: CategoryGoals, Text: "What are your top 3 priorities for today?", FollowUps: []string{"Which one feels most important?", "How will you tackle them?"}, PointsReward: 20, Icon: "🎯"},
	{ID: "morning-3", Category: CategoryMood, Text: "How are you feeling this morning?", FollowUps: []string{"What's contributing to that feeling?", "What do you need right now?"}, PointsReward: 10, Icon: "💭"},
	{ID: "morning-4", Category: CategoryGratitude, Text: "What's one thing you're looking forward to today?", PointsReward: 10, Icon: "🙏"},
}

var afternoonPrompts = []JournalPrompt{
	{ID: "afternoon-1", Category: CategoryCheckIn, Text: "How's your day going so far? Any wins to celebrate?", FollowUps: []string{"Even small wins count!", "What's next on your list?"}, PointsReward: 15, Icon: "🌤️"},
	{ID: "afternoon-2", Category: CategoryReflection, Text: "What's been the most interesting part of your day?", PointsReward: 15, Icon: "✨"},
	{ID: "afternoon-3", Category: CategoryMood, Text: "Quick energy check! How are you feeling right now?", FollowUps: []string{"Need a break?", "What would help you recharge?"}, PointsReward: 10, Icon: "⚡"},
}

var eveningPrompts = []JournalPrompt{
	{ID: "evening-1", Category: CategoryReflection, Text: "What went well today? Tell me about a win, big or small.", FollowUps: []string{"How did that make you feel?", "What helped you succeed?"}, PointsReward: 20, Icon: "🌙"},
	{ID: "evening-2", Category: CategoryGratitude, Text: "What are 3 things you're grateful for today?", FollowUps: []string{"Why do these stand out?", "Who made your day better?"}, PointsReward: 20, Icon: "🙏"},
	{ID: "evening-3", Category: CategoryGoals, Text: "Did you accomplish what you wanted today? Let's reflect.", FollowUps: []string{"What will you carry into tomorrow?", "What would you do differently?"}, PointsReward: 15, Icon: "📝"},
	{ID: "evening-4", Category: CategoryMood, Text: "How are you winding down? What does your evening look like?", PointsReward: 10, Icon: "🌃"},
}

var weekendPrompts = []JournalPrompt{
	{ID: "weekend-1", Category: CategoryReflection, Text: "It's the weekend! What are you doing for yourself today?", PointsReward: 15, Icon: "🌈"},
	{ID: "weekend-2", Category: CategoryGratitude, Text: "What's been the highlight of your week?", PointsReward: 15, Icon: "⭐"},
	{ID: "weekend-3", Category: CategoryGoals, Text: "Any goals or intentions for the coming week?", PointsReward: 20, Icon: "🚀"},
}

var modePrompts = map[string][]JournalPrompt{
	CategoryCheckIn: {
		{ID: "ci-1", Category: CategoryCheckIn, Text: "How are you today? What's on your mind?", PointsReward: 10, Icon: "☀️"},
		{ID: "ci-2", Category: CategoryCheckIn, Text: "Let's do a quick check-in. How are you feeling?", PointsReward: 10, Icon: "💬"},
	},
	CategoryGratitude: {
		{ID: "gr-1", Category: CategoryGratitude, Text: "What are 3 things you're grateful for right now?", PointsReward: 20, Icon: "🙏"},
		{ID: "gr-2", Category: CategoryGratitude, Text: "Who made a positive impact on your day? Why?", PointsReward: 15, Icon: "💝"},
	},
	CategoryGoals: {
		{ID: "go-1", Category: CategoryGoals, Text: "What's one goal you're working towards?", PointsReward: 15, Icon: "🎯"},
		{ID: "go-2", Category: CategoryGoals, Text: "What small step can you take today towards your dreams?", PointsReward: 15, Icon: "🚀"},
	},
	CategoryMood: {
		{ID: "mo-1", Category: CategoryMood, Text: "How are you feeling on a scale of 1-5? Let's talk about it.", PointsReward: 10, Icon: "💭"},
		{ID: "mo-2", Category: CategoryMood, Text: "What emotions are present for you right now?", PointsReward: 10, Icon: "🌊"},
	},
}

// Modes lists the journal modes accepted by ModePrompt.
func Modes() []string {
	return []string{CategoryCheckIn, CategoryGratitude, CategoryGoals, CategoryMood}
}

// TimeBasedPrompts returns the prompt set for now: weekend prompts on
// Saturday and Sunday, otherwise morning 6-12, afternoon 12-18, evening.
func TimeBasedPrompts(now time.Time) []JournalPrompt {
	var set []JournalPrompt
	switch wd, h := now.Weekday(), now.Hour(); {
	case wd == time.Saturday || wd == time.Sunday:
		set = weekendPrompts
	case h >= 6 && h < 12:
		set = morningPrompts
	case h >= 12 && h < 18:
		set = afternoonPrompts
	default:
		set = eveningPrompts
	}
	out := make([]JournalPrompt, len(set))
	copy(out, set)
	return out
}

// DailyPrompt rotates through the current set by day of month.
func DailyPrompt(now time.Time) JournalPrompt {
	set := TimeBasedPrompts(now)
	return set[now.Day()%len(set)]
}

// ModePrompt picks one prompt of the mode. pick receives the set size and
// returns an index; nil picks at random. The boolean is false for unknown
// modes.
func ModePrompt(mode string, pick func(n int) int) (JournalPrompt, bool) {
	set, ok := modePrompts[mode]
	if !ok || len(set) == 0 {
		return JournalPrompt{}, false
	}
	if pick == nil {
		pick = rand.IntN
	}
	i := pick(len(set))
	if i < 0 || i >= len(set) {
		i = 0
	}
	return set[i], true
}
