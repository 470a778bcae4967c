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

// Package precompute keeps a queue of ECDSA ephemeral parameters filled by a
// background task so that signing does not pay for a scalar multiplication.
package precompute

import (
	"context"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/scionproto/scion/pkg/log"
	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/metrics"
	"github.com/openv2x/dot2/private/periodic"
)

// Disabled as interval turns off background precomputation.
const Disabled time.Duration = 0

const (
	DefaultMaxEntries = 100
	DefaultBatchSize  = 10
)

// Params are the ephemeral values of one ECDSA signature.
type Params struct {
	K    *big.Int
	KInv *big.Int
	// R is K·G.
	R ecc.Point
	// RX is the x coordinate of R modulo n.
	RX *big.Int
}

func (p Params) clone() Params {
	return Params{
		K:    new(big.Int).Set(p.K),
		KInv: new(big.Int).Set(p.KInv),
		R:    p.R,
		RX:   new(big.Int).Set(p.RX),
	}
}

// Generate computes a fresh parameter set.
func Generate(rand io.Reader) (Params, error) {
	for {
		k, err := ecc.RandomScalar(rand)
		if err != nil {
			return Params{}, err
		}
		r := ecc.BaseMul(k)
		x := r.X()
		rx := ecc.ScalarFromBytes(x[:])
		if rx.Sign() == 0 {
			continue
		}
		kInv, err := ecc.ModInverse(k)
		if err != nil {
			return Params{}, err
		}
		return Params{K: k, KInv: kInv, R: r, RX: rx}, nil
	}
}

// Config configures a Pipeline.
type Config struct {
	// Interval between refills. Disabled turns the background task off.
	Interval time.Duration
	// MaxEntries bounds the queue length.
	MaxEntries int
	// BatchSize is the number of entries added per refill at most.
	BatchSize int
}

// Metrics of a Pipeline. All fields are optional.
type Metrics struct {
	QueueLength metrics.Gauge
	Generated   metrics.Counter
	Inline      metrics.Counter
}

// Stats is a snapshot of the pipeline state.
type Stats struct {
	Queued    int
	Generated uint64
	Consumed  uint64
	Inline    uint64
}

// Pipeline is a bounded FIFO of precomputed parameters. It is safe for
// concurrent use.
type Pipeline struct {
	cfg     Config
	rand    io.Reader
	metrics Metrics

	mtx    sync.Mutex
	queue  []Params
	stats  Stats
	runner *periodic.Runner
}

// New creates a pipeline and starts the background task unless the interval
// is Disabled. rand must be safe for concurrent use.
func New(cfg Config, rand io.Reader, m Metrics) *Pipeline {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	p := &Pipeline{
		cfg:     cfg,
		rand:    rand,
		metrics: m,
		queue:   make([]Params, 0, cfg.MaxEntries),
	}
	if cfg.Interval != Disabled {
		p.runner = periodic.Start(p, cfg.Interval, cfg.Interval)
	}
	return p
}

// Name implements periodic.Task.
func (p *Pipeline) Name() string {
	return "dot2_precompute"
}

// Run adds up to BatchSize entries while the queue is below MaxEntries. It
// implements periodic.Task.
func (p *Pipeline) Run(ctx context.Context) {
	for i := 0; i < p.cfg.BatchSize; i++ {
		if ctx.Err() != nil || p.Len() >= p.cfg.MaxEntries {
			return
		}
		// The scalar multiplication runs outside the lock.
		params, err := Generate(p.rand)
		if err != nil {
			log.FromCtx(ctx).Error("Generating signing parameters", "err", err)
			return
		}
		if !p.push(params) {
			return
		}
	}
}

func (p *Pipeline) push(params Params) bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if len(p.queue) >= p.cfg.MaxEntries {
		return false
	}
	p.queue = append(p.queue, params)
	p.stats.Generated++
	metrics.CounterInc(p.metrics.Generated)
	metrics.GaugeSet(p.metrics.QueueLength, float64(len(p.queue)))
	return true
}

// Next returns the oldest queued entry. When the queue is empty or the
// pipeline is disabled, a fresh entry is computed inline.
func (p *Pipeline) Next() (Params, error) {
	if params, ok := p.pop(); ok {
		return params, nil
	}
	params, err := Generate(p.rand)
	if err != nil {
		return Params{}, serrors.Wrap("generating signing parameters", err)
	}
	p.mtx.Lock()
	p.stats.Inline++
	p.mtx.Unlock()
	metrics.CounterInc(p.metrics.Inline)
	return params, nil
}

func (p *Pipeline) pop() (Params, bool) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if len(p.queue) == 0 {
		return Params{}, false
	}
	head := p.queue[0]
	p.queue[0] = Params{}
	p.queue = p.queue[1:]
	p.stats.Consumed++
	metrics.GaugeSet(p.metrics.QueueLength, float64(len(p.queue)))
	return head.clone(), true
}

// Len returns the number of queued entries.
func (p *Pipeline) Len() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.queue)
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() Stats {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	s := p.stats
	s.Queued = len(p.queue)
	return s
}

// Enabled reports whether the background task runs.
func (p *Pipeline) Enabled() bool {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.runner != nil
}

// Close stops the background task and then drains the queue. Next keeps
// working afterwards and computes inline.
func (p *Pipeline) Close() {
	p.mtx.Lock()
	r := p.runner
	p.runner = nil
	p.mtx.Unlock()
	if r != nil {
		r.Kill()
	}
	p.mtx.Lock()
	defer p.mtx.Unlock()
	for i := range p.queue {
		p.queue[i] = Params{}
	}
	p.queue = p.queue[:0]
	metrics.GaugeSet(p.metrics.QueueLength, 0)
}
