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

package store

import (
	"sync"
	"time"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/metrics"
	"github.com/openv2x/dot2/pkg/tai"
)

// DefaultEECacheLifetime is how long a verified signer certificate is kept
// when no lifetime is configured.
const DefaultEECacheLifetime = 10 * time.Minute

// EEEntry is a verified end-entity signer certificate.
type EEEntry struct {
	Cert   *cert.Certificate
	Public ecc.Point
	// ValidEnd is the end of the certificate validity.
	ValidEnd tai.Time64
	// Expiry is when the entry leaves the cache.
	Expiry tai.Time64
}

// Removal is the earlier of Expiry and ValidEnd.
func (e *EEEntry) Removal() tai.Time64 {
	return tai.Min(e.Expiry, e.ValidEnd)
}

// EECache caches verified signer certificates in 256 buckets keyed by the
// last byte of their HashedID8. It is safe for concurrent use.
type EECache struct {
	gauge metrics.Gauge

	mtx     sync.Mutex
	buckets [256]map[cert.HashedID8]*EEEntry
	n       int
}

func NewEECache(size metrics.Gauge) *EECache {
	return &EECache{gauge: size}
}

// Put inserts e under its certificate's HashedID8, replacing any existing
// entry.
func (c *EECache) Put(e *EEEntry) {
	h8 := e.Cert.H8()
	c.mtx.Lock()
	defer c.mtx.Unlock()
	b := &c.buckets[h8[7]]
	if *b == nil {
		*b = make(map[cert.HashedID8]*EEEntry)
	}
	if _, ok := (*b)[h8]; !ok {
		c.n++
	}
	(*b)[h8] = e
	metrics.GaugeSet(c.gauge, float64(c.n))
}

// Get returns the entry with the given HashedID8.
func (c *EECache) Get(h8 cert.HashedID8) (*EEEntry, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	e, ok := c.buckets[h8[7]][h8]
	return e, ok
}

// RemoveExpired removes every entry with ref >= min(Expiry, ValidEnd) and
// returns the number of removed entries.
func (c *EECache) RemoveExpired(ref tai.Time64) int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	removed := 0
	for _, b := range c.buckets {
		for h8, e := range b {
			if ref >= e.Removal() {
				delete(b, h8)
				removed++
			}
		}
	}
	c.n -= removed
	metrics.GaugeSet(c.gauge, float64(c.n))
	return removed
}

// Remove deletes the entry with the given HashedID8. It reports whether an
// entry was present.
func (c *EECache) Remove(h8 cert.HashedID8) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	b := c.buckets[h8[7]]
	if _, ok := b[h8]; !ok {
		return false
	}
	delete(b, h8)
	c.n--
	metrics.GaugeSet(c.gauge, float64(c.n))
	return true
}

// Flush removes every entry and returns how many were removed.
func (c *EECache) Flush() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	removed := c.n
	for i := range c.buckets {
		c.buckets[i] = nil
	}
	c.n = 0
	metrics.GaugeSet(c.gauge, 0)
	return removed
}

func (c *EECache) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.n
}
