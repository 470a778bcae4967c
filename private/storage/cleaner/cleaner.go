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

// Package cleaner contains the periodic task that sweeps expired entries from
// the EE certificate cache.
package cleaner

import (
	"context"
	"fmt"

	"github.com/scionproto/scion/pkg/log"

	"github.com/openv2x/dot2/pkg/metrics"
	"github.com/openv2x/dot2/pkg/tai"
	"github.com/openv2x/dot2/private/periodic"
)

// Sweeper removes cache entries that expired at ref and reports how many
// were removed.
type Sweeper interface {
	RemoveExpiredEECertCache(ref tai.Time64) int
}

// Metrics of a cleaner. All fields are optional.
type Metrics struct {
	// RunsTotal counts sweeps.
	RunsTotal metrics.Counter
	// DeletedTotal counts removed entries.
	DeletedTotal metrics.Counter
}

var _ periodic.Task = (*Cleaner)(nil)

// Cleaner is a periodic.Task that sweeps a cache with the current time.
type Cleaner struct {
	sweeper   Sweeper
	now       func() tai.Time64
	subsystem string
	metrics   Metrics
}

// New returns a cleaner that sweeps s with the time returned by now.
func New(s Sweeper, now func() tai.Time64, subsystem string, m Metrics) *Cleaner {
	return &Cleaner{
		sweeper:   s,
		now:       now,
		subsystem: subsystem,
		metrics:   m,
	}
}

func (c *Cleaner) Name() string {
	return fmt.Sprintf("%s_cleaner", c.subsystem)
}

func (c *Cleaner) Run(ctx context.Context) {
	ref := c.now()
	count := c.sweeper.RemoveExpiredEECertCache(ref)
	if count > 0 {
		log.FromCtx(ctx).Debug("Removed expired EE certificates", "subsystem", c.subsystem,
			"count", count, "ref", ref)
		metrics.CounterAdd(c.metrics.DeletedTotal, float64(count))
	}
	metrics.CounterInc(c.metrics.RunsTotal)
}
