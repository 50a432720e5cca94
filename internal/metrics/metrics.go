// Package metrics exposes Prometheus instrumentation for the vault core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConsentDenials counts failed token verifications by reason.
	ConsentDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consentvault_consent_denials_total",
			Help: "Number of consent token verifications denied",
		},
		[]string{"reason"},
	)

	// VaultWrites counts records written to the vault.
	VaultWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consentvault_vault_writes_total",
			Help: "Number of vault records written",
		},
		[]string{"category"},
	)

	// IntegrityViolations counts records that failed tag verification on read.
	IntegrityViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consentvault_integrity_violations_total",
			Help: "Number of vault records failing authenticated decryption",
		},
		[]string{"category"},
	)

	// SweepRemovals counts records removed by the expiry sweep.
	SweepRemovals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consentvault_sweep_removals_total",
			Help: "Number of expired vault records removed by the sweep",
		},
	)

	// RecommendationsServed counts recommendations returned to callers.
	RecommendationsServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "consentvault_recommendations_served_total",
			Help: "Number of recommendations returned",
		},
	)
)
