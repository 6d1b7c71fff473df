/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package reputation

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the optional Prometheus registration surface for reputation
// state: pure observability, distinct from the out-of-scope bandwidth
// throttling token bucket.
type Metrics struct {
	ExtendOK      *prometheus.CounterVec
	ExtendFail    *prometheus.CounterVec
	UptimeSeconds *prometheus.GaugeVec
	DowntimeSecs  *prometheus.GaugeVec
	BandwidthRate prometheus.Gauge
}

// NewMetrics builds the reputation metric series under namespace "torrelay"
// and subsystem "reputation". It does not register them; call Register.
func NewMetrics() *Metrics {
	return &Metrics{
		ExtendOK: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "torrelay",
			Subsystem: "reputation",
			Name:      "extend_success_total",
			Help:      "Count of successful circuit-extend attempts, by peer identity digest.",
		}, []string{"identity"}),
		ExtendFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "torrelay",
			Subsystem: "reputation",
			Name:      "extend_fail_total",
			Help:      "Count of failed circuit-extend attempts, by peer identity digest.",
		}, []string{"identity"}),
		UptimeSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "torrelay",
			Subsystem: "reputation",
			Name:      "uptime_seconds",
			Help:      "Accumulated uptime seconds, by peer identity digest.",
		}, []string{"identity"}),
		DowntimeSecs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "torrelay",
			Subsystem: "reputation",
			Name:      "downtime_seconds",
			Help:      "Accumulated downtime seconds, by peer identity digest.",
		}, []string{"identity"}),
		BandwidthRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "torrelay",
			Subsystem: "reputation",
			Name:      "bandwidth_assessment_bytes_per_second",
			Help:      "Conservative steady-state bandwidth assessment, in bytes per second.",
		}),
	}
}

// Register adds every reputation metric series to reg.
func (m *Metrics) Register(reg *prometheus.Registry) error {
	for _, c := range []prometheus.Collector{m.ExtendOK, m.ExtendFail, m.UptimeSeconds, m.DowntimeSecs, m.BandwidthRate} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Observe syncs the metric series from the current link/OR history and
// bandwidth state for one tracked router.
func (m *Metrics) Observe(digest string, r *ORHistory, assessment uint64) {
	if m == nil || r == nil {
		return
	}

	m.UptimeSeconds.WithLabelValues(digest).Set(r.Uptime.Seconds())
	m.DowntimeSecs.WithLabelValues(digest).Set(r.Downtime.Seconds())
	m.BandwidthRate.Set(float64(assessment))
}

// ObserveExtend records one extend-result observation, labelled by the
// target's identity digest.
func (m *Metrics) ObserveExtend(target string, ok bool) {
	if m == nil {
		return
	}

	if ok {
		m.ExtendOK.WithLabelValues(target).Inc()
	} else {
		m.ExtendFail.WithLabelValues(target).Inc()
	}
}
