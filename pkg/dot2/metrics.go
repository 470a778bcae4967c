// Copyright 2026 The dot2 Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dot2

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openv2x/dot2/pkg/engine"
	"github.com/openv2x/dot2/pkg/metrics"
	"github.com/openv2x/dot2/pkg/precompute"
	"github.com/openv2x/dot2/pkg/store"
	"github.com/openv2x/dot2/private/periodic"
	"github.com/openv2x/dot2/private/storage/cleaner"
	"github.com/openv2x/dot2/private/storage/trust"
)

// contextMetrics bundles the metrics of all components. The zero value
// disables metrics.
type contextMetrics struct {
	Engine     engine.Metrics
	Precompute precompute.Metrics
	Store      store.Metrics
	Cleaner    cleaner.Metrics
	Trust      trust.Metrics
	Periodic   func(task string) *periodic.Metrics
}

func newContextMetrics(f metrics.Factory) contextMetrics {
	spdus := f.NewCounterVec(prometheus.CounterOpts{
		Name: "spdus_total",
		Help: "Number of SPDUs handled, by operation and result.",
	}, []string{"op", "result"})
	trustQueries := f.NewCounterVec(prometheus.CounterOpts{
		Name: "trustdb_queries_total",
		Help: "Number of trust store queries, by operation and result.",
	}, []string{"op", "result"})
	periodicEvents := f.NewCounterVec(prometheus.CounterOpts{
		Name: "periodic_events_total",
		Help: "Events of the background tasks.",
	}, []string{"task", "event"})
	periodicGauges := f.NewGaugeVec(prometheus.GaugeOpts{
		Name: "periodic_seconds",
		Help: "Period, last runtime and start time of the background tasks.",
	}, []string{"task", "kind"})

	return contextMetrics{
		Engine: engine.Metrics{
			Processed: func(result string) metrics.Counter {
				return spdus.WithLabelValues("process", result)
			},
			Constructed: func(result string) metrics.Counter {
				return spdus.WithLabelValues("construct", result)
			},
		},
		Precompute: precompute.Metrics{
			QueueLength: f.NewGauge(prometheus.GaugeOpts{
				Name: "precompute_queue_length",
				Help: "Number of queued signing parameters.",
			}),
			Generated: f.NewCounter(prometheus.CounterOpts{
				Name: "precompute_generated_total",
				Help: "Number of signing parameters generated in the background.",
			}),
			Inline: f.NewCounter(prometheus.CounterOpts{
				Name: "precompute_inline_total",
				Help: "Number of signing parameters computed on demand.",
			}),
		},
		Store: store.Metrics{
			SCCCerts: f.NewGauge(prometheus.GaugeOpts{
				Name: "scc_certificates",
				Help: "Number of certificates in the SCC table.",
			}),
			EECacheSize: f.NewGauge(prometheus.GaugeOpts{
				Name: "ee_cache_entries",
				Help: "Number of certificates in the EE cache.",
			}),
		},
		Cleaner: cleaner.Metrics{
			RunsTotal: f.NewCounter(prometheus.CounterOpts{
				Name: "ee_cache_sweeps_total",
				Help: "Number of EE cache sweeps.",
			}),
			DeletedTotal: f.NewCounter(prometheus.CounterOpts{
				Name: "ee_cache_swept_total",
				Help: "Number of EE cache entries removed by sweeps.",
			}),
		},
		Trust: trust.Metrics{
			Queries: func(op, result string) metrics.Counter {
				return trustQueries.WithLabelValues(op, result)
			},
		},
		Periodic: func(task string) *periodic.Metrics {
			return &periodic.Metrics{
				Events: func(event string) metrics.Counter {
					return periodicEvents.WithLabelValues(task, event)
				},
				Period:    periodicGauges.WithLabelValues(task, "period"),
				Runtime:   periodicGauges.WithLabelValues(task, "runtime"),
				StartTime: periodicGauges.WithLabelValues(task, "start_time"),
			}
		},
	}
}
