// Package metrics holds the Prometheus collectors for the generation pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamebible_upstream_attempts_total",
			Help: "Upstream inference attempts by model and outcome",
		},
		[]string{"model", "outcome"},
	)

	UpstreamWaitSeconds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamebible_upstream_wait_seconds_total",
			Help: "Time spent waiting between upstream attempts",
		},
		[]string{"model", "reason"},
	)

	TextGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamebible_text_generations_total",
			Help: "Game bible generations by the path that produced the result",
		},
		[]string{"source"},
	)

	ImageGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamebible_image_generations_total",
			Help: "Concept image generations by outcome",
		},
		[]string{"outcome"},
	)

	QuotaDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamebible_quota_decisions_total",
			Help: "Daily quota checks by decision",
		},
		[]string{"decision"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gamebible_generation_duration_seconds",
			Help:    "Duration of full project generation",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"flow"},
	)
)
