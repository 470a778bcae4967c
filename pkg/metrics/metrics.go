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

// Package metrics provides the metric interfaces used throughout the
// library, prometheus backed constructors and fakes for tests.
//
// Components take Counter and Gauge values in their Metrics structs. Unset
// metrics are nil and the helpers in this package ignore them, so metrics
// are always optional.
package metrics

// Counter is the subset of prometheus.Counter the library needs.
type Counter interface {
	Add(float64)
}

// Gauge is the subset of prometheus.Gauge the library needs.
type Gauge interface {
	Set(float64)
	Add(float64)
}

// CounterInc increments c if it is not nil.
func CounterInc(c Counter) {
	if c != nil {
		c.Add(1)
	}
}

// CounterAdd adds v to c if it is not nil.
func CounterAdd(c Counter, v float64) {
	if c != nil {
		c.Add(v)
	}
}

// GaugeSet sets g to v if it is not nil.
func GaugeSet(g Gauge, v float64) {
	if g != nil {
		g.Set(v)
	}
}

// GaugeAdd adds v to g if it is not nil.
func GaugeAdd(g Gauge, v float64) {
	if g != nil {
		g.Add(v)
	}
}

// Result label values.
const (
	OkSuccess   = "ok_success"
	ErrParse    = "err_parse"
	ErrVerify   = "err_verify"
	ErrPolicy   = "err_policy"
	ErrDB       = "err_db"
	ErrNotFound = "err_not_found"
	ErrInternal = "err_internal"
	ErrTimeout  = "err_timeout"
)
