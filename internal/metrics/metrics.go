// Copyright (c) Yatima, Inc.
// SPDX-License-Identifier: Apache-2.0, MIT

// Package metrics exposes the pipeline's Prometheus instrumentation:
// queue depth, admission-token occupancy, proof outcomes and the
// client's current epoch.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the light client's pipeline gauges and counters.
type Metrics struct {
	QueueDepth       prometheus.Gauge
	AdmissionHeld    *prometheus.GaugeVec
	ProofsVerified   *prometheus.CounterVec
	ProofsRejected   *prometheus.CounterVec
	CurrentEpoch     prometheus.Gauge
}

// New registers and returns the light client's metrics against reg. Use
// prometheus.NewRegistry() for test isolation or
// prometheus.DefaultRegisterer for the process-wide registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aptos_light_client",
			Name:      "queue_depth",
			Help:      "Number of tasks currently queued for the verifier.",
		}),
		AdmissionHeld: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "aptos_light_client",
			Name:      "admission_token_held",
			Help:      "Whether an admission token is currently checked out, by task class.",
		}, []string{"class"}),
		ProofsVerified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aptos_light_client",
			Name:      "proofs_verified_total",
			Help:      "Proofs that verified successfully, by task class.",
		}, []string{"class"}),
		ProofsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aptos_light_client",
			Name:      "proofs_rejected_total",
			Help:      "Proofs dropped due to a proving failure, verifier rejection, malformed public values or a committee-hash mismatch, by reason.",
		}, []string{"reason"}),
		CurrentEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aptos_light_client",
			Name:      "current_epoch",
			Help:      "Epoch number of the client's current trusted state.",
		}),
	}
	reg.MustRegister(m.QueueDepth, m.AdmissionHeld, m.ProofsVerified, m.ProofsRejected, m.CurrentEpoch)
	return m
}
