// Copyright 2024 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package candidatevalidation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	validationVerdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parachain",
		Subsystem: "candidate_validation",
		Name:      "verdicts_total",
		Help:      "count of candidate validation verdicts by outcome",
	}, []string{"verdict"})

	validationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "parachain",
		Subsystem: "candidate_validation",
		Name:      "validation_duration_seconds",
		Help:      "time spent validating a candidate, including preparation and retries",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	precheckOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parachain",
		Subsystem: "candidate_validation",
		Name:      "precheck_outcomes_total",
		Help:      "count of validation code pre-check outcomes by vote",
	}, []string{"outcome"})
)

func observeVerdict(result ValidationResult) {
	if result.IsValid() {
		validationVerdicts.WithLabelValues("valid").Inc()
		return
	}
	validationVerdicts.WithLabelValues("invalid").Inc()
}

func observePrecheckOutcome(outcome PreCheckOutcome) {
	precheckOutcomes.WithLabelValues(outcome.String()).Inc()
}

func validationDurationTimer() func() {
	start := time.Now()
	return func() {
		validationDuration.Observe(time.Since(start).Seconds())
	}
}
