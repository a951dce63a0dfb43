// Copyright 2025 The Witness Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes scan events as Prometheus metrics.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/in-toto/go-patchscan/analyzer"
	"github.com/in-toto/go-patchscan/detector"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "patchscan"

// Collector implements analyzer.Observer. Metrics live on their own
// registry, nothing is registered globally.
type Collector struct {
	Registry *prometheus.Registry

	SecretsTotal       *prometheus.CounterVec
	BlacklistedTotal   *prometheus.CounterVec
	ParseFailuresTotal prometheus.Counter
	DetectorFailures   *prometheus.CounterVec
	VerifyDuration     *prometheus.HistogramVec
	VerificationsTotal *prometheus.CounterVec
}

var _ analyzer.Observer = (*Collector)(nil)

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		Registry: reg,

		SecretsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "secrets_total",
			Help:      "Secrets reported, by type and verification outcome.",
		}, []string{"type", "verified"}),

		BlacklistedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "blacklisted_total",
			Help:      "Candidates suppressed by the blacklist.",
		}, []string{"type"}),

		ParseFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "parse_failures_total",
			Help:      "Patches that could not be parsed.",
		}),

		DetectorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "failures_total",
			Help:      "Detector errors isolated during scans, by stage.",
		}, []string{"detector", "stage"}),

		VerifyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "verify_duration_seconds",
			Help:      "Verification call duration in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"detector"}),

		VerificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detector",
			Name:      "verifications_total",
			Help:      "Verification outcomes.",
		}, []string{"detector", "result"}),
	}

	reg.MustRegister(
		c.SecretsTotal,
		c.BlacklistedTotal,
		c.ParseFailuresTotal,
		c.DetectorFailures,
		c.VerifyDuration,
		c.VerificationsTotal,
	)

	return c
}

func (c *Collector) ParseFailed(error) {
	c.ParseFailuresTotal.Inc()
}

func (c *Collector) SecretFound(s analyzer.Secret) {
	c.SecretsTotal.WithLabelValues(s.Type, strconv.FormatBool(s.Verified)).Inc()
}

func (c *Collector) CandidateBlacklisted(cand detector.Candidate) {
	c.BlacklistedTotal.WithLabelValues(cand.Type).Inc()
}

func (c *Collector) DetectorFailed(f analyzer.Failure) {
	c.DetectorFailures.WithLabelValues(f.Detector, string(f.Stage)).Inc()
}

func (c *Collector) VerifyCompleted(name string, result detector.VerifyResult, elapsed time.Duration) {
	c.VerifyDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	c.VerificationsTotal.WithLabelValues(name, result.String()).Inc()
}

// WriteTextfile writes the current metrics in the text exposition format,
// as read by the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.Registry); err != nil {
		return fmt.Errorf("error writing metrics to %s: %w", path, err)
	}

	return nil
}
