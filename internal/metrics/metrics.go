package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	suggestions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trainbook",
			Name:      "suggestions_total",
			Help:      "Seat suggestions by outcome (row_scan, flat_scan, partial, empty).",
		},
		[]string{"outcome"},
	)

	toggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trainbook",
			Name:      "toggles_total",
			Help:      "Manual seat toggles by result (selected, deselected, rejected).",
		},
		[]string{"result"},
	)

	commits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "trainbook",
			Name:      "commits_total",
			Help:      "Successfully committed bookings.",
		},
	)

	commitConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "trainbook",
			Name:      "commit_conflicts_total",
			Help:      "Commits rejected by the store because a seat was already booked.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(suggestions, toggles, commits, commitConflicts)
	})
}

// IncSuggestion increments the suggestion counter for an outcome label.
func IncSuggestion(outcome string) {
	suggestions.WithLabelValues(outcome).Inc()
}

// IncToggle increments the toggle counter for a result label.
func IncToggle(result string) {
	toggles.WithLabelValues(result).Inc()
}

// IncCommit increments the committed-bookings counter.
func IncCommit() {
	commits.Inc()
}

// IncCommitConflict increments the conflict counter.
func IncCommitConflict() {
	commitConflicts.Inc()
}
