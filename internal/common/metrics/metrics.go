// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DiagnosesSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnosis_submissions_total",
			Help: "Total number of diagnosis submissions by outcome",
		},
		[]string{"outcome"},
	)

	MatchingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "diagnosis_matching_duration_seconds",
			Help: "Duration of scoring service calls in seconds",
		},
	)

	SessionPurges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnosis_session_purges_total",
			Help: "Total number of session purges by trigger",
		},
		[]string{"trigger"},
	)

	HostMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnosis_host_messages_total",
			Help: "Total number of host notification messages by type and status",
		},
		[]string{"type", "status"},
	)

	PayloadDecodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diagnosis_payload_decodes_total",
			Help: "Total number of transport payload decodes by form and status",
		},
		[]string{"form", "status"},
	)
)
