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
	"sync"
)

type node struct {
	mtx sync.Mutex
	v   float64
}

func (n *node) add(delta float64, canBeNegative bool) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if !canBeNegative && delta < 0 {
		panic("counter increment value is < 0")
	}
	n.v += delta
}

func (n *node) set(v float64) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	n.v = v
}

func (n *node) value() float64 {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return n.v
}

// TestCounter is a counter for use in tests.
type TestCounter struct {
	*node
}

func NewTestCounter() *TestCounter {
	return &TestCounter{node: &node{}}
}

// Add panics on negative deltas like a prometheus counter.
func (c *TestCounter) Add(delta float64) {
	c.add(delta, false)
}

// CounterValue extracts the value of a *TestCounter. It panics for other
// counter types.
func CounterValue(c Counter) float64 {
	return c.(*TestCounter).value()
}

// TestGauge is a gauge for use in tests.
type TestGauge struct {
	*node
}

func NewTestGauge() *TestGauge {
	return &TestGauge{node: &node{}}
}

func (g *TestGauge) Set(v float64) {
	g.set(v)
}

func (g *TestGauge) Add(delta float64) {
	g.add(delta, true)
}

// GaugeValue extracts the value of a *TestGauge. It panics for other gauge
// types.
func GaugeValue(g Gauge) float64 {
	return g.(*TestGauge).value()
}

// TestCounterVec hands out one TestCounter per label value.
type TestCounterVec struct {
	mtx      sync.Mutex
	counters map[string]*TestCounter
}

func NewTestCounterVec() *TestCounterVec {
	return &TestCounterVec{counters: map[string]*TestCounter{}}
}

// With returns the counter for label.
func (v *TestCounterVec) With(label string) Counter {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	c, ok := v.counters[label]
	if !ok {
		c = NewTestCounter()
		v.counters[label] = c
	}
	return c
}

// Value returns the value of the counter for label, zero if it was never
// requested.
func (v *TestCounterVec) Value(label string) float64 {
	v.mtx.Lock()
	c, ok := v.counters[label]
	v.mtx.Unlock()
	if !ok {
		return 0
	}
	return c.value()
}
