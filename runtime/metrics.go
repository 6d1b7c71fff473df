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

package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ServiceMetrics is the per-service-intro-point-count half of the metrics
// snapshot a Prometheus collector projects: distinct from reputation.Metrics
// (OR-history/bandwidth) but registered the same way.
type ServiceMetrics struct {
	IntroPoints *prometheus.GaugeVec
}

// NewServiceMetrics builds the service-level metric series under namespace
// "torrelay" and subsystem "hiddenservice". It does not register them; call
// Register.
func NewServiceMetrics() *ServiceMetrics {
	return &ServiceMetrics{
		IntroPoints: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "torrelay",
			Subsystem: "hiddenservice",
			Name:      "intro_points",
			Help:      "Current introduction-point count, by hidden-service identifier.",
		}, []string{"service_id"}),
	}
}

// Register adds every service metric series to reg.
func (m *ServiceMetrics) Register(reg *prometheus.Registry) error {
	return reg.Register(m.IntroPoints)
}

// Observe syncs the intro-point gauge from the runtime's current service
// list (spec.md §3 Data Model "Metrics snapshot"): a read-only projection,
// never consulted by introduce()/upload scheduling itself.
func (m *ServiceMetrics) Observe(r *Runtime) {
	if m == nil {
		return
	}
	for _, svc := range r.Services() {
		m.IntroPoints.WithLabelValues(svc.ServiceID).Set(float64(len(svc.IntroPoints())))
	}
}
