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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric registered by the library.
const Namespace = "dot2"

type Option func(*Options)

// Options configures a Factory. Construct it with ApplyOptions.
type Options struct {
	registry prometheus.Registerer
}

// WithRegistry registers the metrics with registry instead of the default
// prometheus registerer.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(o *Options) {
		o.registry = registry
	}
}

func ApplyOptions(options ...Option) Options {
	opts := Options{}
	for _, option := range options {
		option(&opts)
	}
	return opts
}

// Auto creates a Factory registering with the configured registry.
func (o Options) Auto() Factory {
	reg := o.registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return Factory{reg: reg}
}

// Factory creates and registers prometheus collectors.
type Factory struct {
	reg prometheus.Registerer
}

func (f Factory) NewCounterVec(opts prometheus.CounterOpts,
	labelNames []string) *prometheus.CounterVec {

	opts.Namespace = Namespace
	c := prometheus.NewCounterVec(opts, labelNames)
	f.reg.MustRegister(c)
	return c
}

func (f Factory) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	opts.Namespace = Namespace
	c := prometheus.NewCounter(opts)
	f.reg.MustRegister(c)
	return c
}

func (f Factory) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	opts.Namespace = Namespace
	g := prometheus.NewGauge(opts)
	f.reg.MustRegister(g)
	return g
}

func (f Factory) NewGaugeVec(opts prometheus.GaugeOpts,
	labelNames []string) *prometheus.GaugeVec {

	opts.Namespace = Namespace
	g := prometheus.NewGaugeVec(opts, labelNames)
	f.reg.MustRegister(g)
	return g
}
