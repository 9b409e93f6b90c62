package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values shared by the domain counters.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Chat stream outcomes.
const (
	StreamCompleted = "completed"
	StreamPartial   = "partial"
	StreamFailed    = "failed"
	StreamCrisis    = "crisis"
	StreamOffline   = "offline"
)

var (
	purchases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloom_purchases_total",
			Help: "Shop purchases by outcome (ok, or the rejection reason).",
		},
		[]string{"outcome"},
	)

	placements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloom_room_mutations_total",
			Help: "Room mutations by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	checkIns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloom_checkins_total",
			Help: "Daily check-ins by outcome (awarded, already_claimed, error).",
		},
		[]string{"outcome"},
	)

	pointsAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bloom_points_awarded_total",
			Help: "Points granted by daily check-ins.",
		},
	)

	crisis = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bloom_crisis_interventions_total",
			Help: "Chat turns answered with the fixed crisis resource text.",
		},
	)

	streams = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloom_chat_streams_total",
			Help: "Chat turns by stream outcome.",
		},
		[]string{"outcome"},
	)

	trailingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloom_chat_trailing_failures_total",
			Help: "Post-stream writes that failed after the reply was delivered.",
		},
		[]string{"step"},
	)
)

func init() {
	prometheus.MustRegister(purchases, placements, checkIns, pointsAwarded, crisis, streams, trailingFailures)
}

// Purchase records a purchase attempt.
func Purchase(outcome string) { purchases.WithLabelValues(outcome).Inc() }

// RoomMutation records a place, remove, wallpaper or sync attempt.
func RoomMutation(op, outcome string) { placements.WithLabelValues(op, outcome).Inc() }

// CheckIn records a check-in attempt and the points it granted.
func CheckIn(outcome string, awarded int) {
	checkIns.WithLabelValues(outcome).Inc()
	if awarded > 0 {
		pointsAwarded.Add(float64(awarded))
	}
}

// Crisis records one crisis short-circuit.
func Crisis() { crisis.Inc() }

// ChatStream records how a chat turn's stream ended.
func ChatStream(outcome string) { streams.WithLabelValues(outcome).Inc() }

// TrailingFailure records a failed post-stream step (persist, accrual, title).
func TrailingFailure(step string) { trailingFailures.WithLabelValues(step).Inc() }
