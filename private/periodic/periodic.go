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

// Package periodic runs a task on a fixed period in a dedicated goroutine.
package periodic

import (
	"context"
	"time"

	"github.com/scionproto/scion/pkg/log"

	"github.com/openv2x/dot2/pkg/metrics"
)

// Event labels reported through Metrics.Events.
const (
	EventStop    = "stop"
	EventKill    = "kill"
	EventTrigger = "triggered"
)

// A Task that has to be periodically executed.
type Task interface {
	// Run executes the task once, it should return within the context's timeout.
	Run(context.Context)
	// Name returns the task name used in logs.
	Name() string
}

// Metrics of a Runner. All fields are optional.
type Metrics struct {
	Events    func(string) metrics.Counter
	Period    metrics.Gauge
	Runtime   metrics.Gauge
	StartTime metrics.Gauge
}

func (m *Metrics) event(e string) {
	if m == nil || m.Events == nil {
		return
	}
	metrics.CounterInc(m.Events(e))
}

// Runner runs a task periodically.
type Runner struct {
	task         Task
	ticker       *time.Ticker
	timeout      time.Duration
	stop         chan struct{}
	loopFinished chan struct{}
	ctx          context.Context
	cancelF      context.CancelFunc
	trigger      chan struct{}
	metrics      *Metrics
}

// Start creates and starts a new Runner to run the given task periodically.
// The timeout is used for the context timeout of the task. It can be larger
// than the period, a task that takes long is retriggered immediately.
func Start(task Task, period, timeout time.Duration) *Runner {
	return StartWithMetrics(task, nil, period, timeout)
}

// StartWithMetrics is Start with metrics reporting. m may be nil.
func StartWithMetrics(task Task, m *Metrics, period, timeout time.Duration) *Runner {
	ctx, cancelF := context.WithCancel(context.Background())
	logger := log.New("task", task.Name())
	ctx = log.CtxWith(ctx, logger)
	r := &Runner{
		task:         task,
		ticker:       time.NewTicker(period),
		timeout:      timeout,
		stop:         make(chan struct{}),
		loopFinished: make(chan struct{}),
		ctx:          ctx,
		cancelF:      cancelF,
		trigger:      make(chan struct{}),
		metrics:      m,
	}
	if m != nil {
		metrics.GaugeSet(m.Period, period.Seconds())
		metrics.GaugeSet(m.StartTime, float64(time.Now().Unix()))
	}
	logger.Debug("Starting periodic task", "period", period)
	go func() {
		defer log.HandlePanic()
		r.runLoop()
	}()
	return r
}

// Stop stops the periodic execution of the Runner.
// If the task is currently running this method will block until it is done.
func (r *Runner) Stop() {
	r.ticker.Stop()
	close(r.stop)
	<-r.loopFinished
	r.metrics.event(EventStop)
}

// Kill is like stop but it also cancels the context of the current running method.
func (r *Runner) Kill() {
	if r == nil {
		return
	}
	r.ticker.Stop()
	close(r.stop)
	r.cancelF()
	<-r.loopFinished
	r.metrics.event(EventKill)
}

// TriggerRun triggers the periodic task to run now. It does not shift the
// period. The method blocks until either the triggered run was started or
// the runner was stopped.
func (r *Runner) TriggerRun() {
	select {
	case <-r.stop:
	case r.trigger <- struct{}{}:
		r.metrics.event(EventTrigger)
	}
}

func (r *Runner) runLoop() {
	defer close(r.loopFinished)
	defer r.cancelF()
	for {
		select {
		case <-r.stop:
			return
		case <-r.ticker.C:
			r.onTick()
		case <-r.trigger:
			r.onTick()
		}
	}
}

func (r *Runner) onTick() {
	select {
	// Make sure that stop case is evaluated first,
	// so that when we kill and both channels are ready we always go into stop first.
	case <-r.stop:
		return
	default:
		ctx, cancelF := context.WithTimeout(r.ctx, r.timeout)
		start := time.Now()
		r.task.Run(ctx)
		if r.metrics != nil {
			metrics.GaugeSet(r.metrics.Runtime, time.Since(start).Seconds())
		}
		cancelF()
	}
}
