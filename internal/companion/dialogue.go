package companion

import (
	"math/rand/v2"
	"time"
)

// Dialogue library categories.
const (
	DialogueMorning    = "morning_greeting"
	DialogueEvening    = "evening_reflection"
	DialogueReturning  = "returning_user"
	DialogueReflection = "reflection"
	DialogueValues     = "values"
	DialogueGoal       = "goal"
	DialogueEmotion    = "difficult_emotion"
	DialogueTransition = "transition"
	DialogueDeepening  = "deepening"
	DialogueClosing    = "closing"
)

// afternoonOpener is the neutral greeting outside the morning and evening windows.
const afternoonOpener = "Hey. What's on your mind?"

var dialogue = map[string][]string{
	DialogueMorning: {
		"Morning. What's the shape of today looking like?",
		"Hey, sleep okay? What's on your mind as the day starts?",
		"New day. Anything you're carrying over from yesterday, or starting fresh?",
		"Morning. What's one thing you're hoping to do today?",
		"Hey. How'd you wake up feeling?",
		"What's on the docket? Or are we figuring that out together?",
		"Morning. Any thoughts about what you want today to feel like?",
	},
	DialogueEvening: {
		"Day's wrapping up. How did it go?",
		"What's sitting with you from today?",
		"Anything happen today that surprised you?",
		"How are you feeling about how you spent your energy today?",
		"Before you wind down, anything you want to get out of your head?",
		"What's one thing from today you'd want to remember?",
		"Ready to call it? Or still processing?",
	},
	DialogueReturning: {
		"Hey, welcome back. Everything okay?",
		"Been a little while. What brought you back today?",
		"Good to see you. How have things been?",
		"I noticed you've been away. No pressure, just glad you're here.",
		"Back again. Anything you want to catch me up on?",
		"Hey. Take your time, I'm here when you're ready to chat.",
	},
	DialogueReflection: {
		"What's something that took effort today, whether or not it went well?",
		"Was there a moment today where you surprised yourself?",
		"What drained your energy today? What restored it?",
		"If you could do one thing differently tomorrow, what would it be?",
		"What's something small that went right today?",
		"Who or what are you grateful for right now?",
		"What did you learn about yourself today?",
		"What's one thing you did today that your past self would be proud of?",
		"Where did you show up for yourself today, even in a small way?",
		"What emotion showed up most today? What was it trying to tell you?",
	},
	DialogueValues: {
		"What matters to you more than people might realise?",
		"When you're at your best, what values are you living?",
		"What kind of person do you want to be? Not what you want to achieve, but who?",
		"What would you regret not doing or becoming?",
		"What are you unwilling to compromise on?",
		"When have you felt most aligned with who you want to be?",
		"What would someone who knows you well say you care about most?",
	},
	DialogueGoal: {
		"What's something you've been putting off that actually matters to you?",
		"What would change if you accomplished that goal? How would it feel?",
		"What's getting in the way right now? Not excuses, real barriers.",
		"What's the next small step you could take? Just one.",
		"What support would make this easier?",
		"What's your 'why' behind this goal? Keep asking 'why' until you hit something that moves you.",
		"If you knew you couldn't fail, what would you try?",
		"What are you willing to give up to make this happen?",
	},
	DialogueEmotion: {
		"What's heavy right now? You don't have to solve it, just name it.",
		"What are you avoiding feeling? Sometimes naming it loosens its grip.",
		"If this emotion could talk, what would it be trying to tell you?",
		"What do you need right now that you're not getting?",
		"Where in your body do you feel this emotion? Can you stay with it for a moment?",
		"What would compassion toward yourself sound like right now?",
		"Who could you reach out to about this? Even just to be heard?",
	},
	DialogueTransition: {
		"Okay, let's shift gears for a second...",
		"Before we move on, anything else on that?",
		"That's a lot to sit with. Want to stay here or talk about something else?",
		"I'm curious about something else you mentioned earlier...",
		"We can come back to this. What else is on your mind?",
		"Is there something specific you want to dig into?",
	},
	DialogueDeepening: {
		"Say more about that.",
		"What's underneath that?",
		"Keep going, I'm listening.",
		"What do you mean when you say that?",
		"That feels important. Can we stay there?",
		"I'm curious what else is connected to that.",
		"There's something there. What is it?",
	},
	DialogueClosing: {
		"That feels like a good place to pause. How are you feeling?",
		"We covered a lot. Anything you want to remember from this?",
		"Take care of yourself tonight. I'll be here.",
		"Rest up. We can pick this up whenever you want.",
		"Before you go, is there anything else sitting with you?",
		"I'm glad you shared that. See you next time.",
	},
}

// Lines returns a copy of one dialogue category, or nil when unknown.
func Lines(category string) []string {
	src, ok := dialogue[category]
	if !ok {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Picker chooses an index in [0, n). Tests pass a deterministic one.
type Picker func(n int) int

func (p Picker) from(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	if p == nil {
		p = rand.IntN
	}
	i := p(len(lines))
	if i < 0 || i >= len(lines) {
		i = 0
	}
	return lines[i]
}

// Greeting opens a conversation. Users returning after more than a day get
// a welcome-back line; otherwise mornings (5-12) and evenings (17-5) get
// their own sets and the afternoon gets a neutral opener.
func Greeting(now time.Time, daysAway int, pick Picker) string {
	if daysAway > 1 {
		return pick.from(dialogue[DialogueReturning])
	}
	h := now.Hour()
	switch {
	case h >= 5 && h < 12:
		return pick.from(dialogue[DialogueMorning])
	case h >= 17 || h < 5:
		return pick.from(dialogue[DialogueEvening])
	}
	return afternoonOpener
}
