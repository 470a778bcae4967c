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
	"context"
	"math/big"
	"sort"
	"sync"

	"github.com/scionproto/scion/pkg/log"
	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/tai"
)

// CMHEntry is a signing certificate with its private key.
type CMHEntry struct {
	Cert     *cert.Certificate
	Private  *big.Int
	Public   ecc.Point
	H8       cert.HashedID8
	IssuerH8 cert.HashedID8
	// Source is the CMHF the entry was loaded from. It is nil for slots of a
	// rotating set, whose source is kept on the set.
	Source []byte
}

// Usable reports whether the entry can sign for psid at t.
func (e *CMHEntry) Usable(psid uint32, t tai.Time64) bool {
	return e.Cert.ValidAt(t) && e.Cert.Permits(psid)
}

// SequentialCMHTable holds long-lived signing certificates in load order.
type SequentialCMHTable struct {
	mtx     sync.RWMutex
	entries []*CMHEntry
}

// Add inserts e, replacing an entry with the same HashedID8. The replaced
// entry is returned.
func (t *SequentialCMHTable) Add(e *CMHEntry) *CMHEntry {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	for i, existing := range t.entries {
		if existing.H8 == e.H8 {
			t.entries[i] = e
			return existing
		}
	}
	t.entries = append(t.entries, e)
	return nil
}

// Remove deletes the entry with the given HashedID8 and returns it.
func (t *SequentialCMHTable) Remove(h8 cert.HashedID8) (*CMHEntry, bool) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	for i, e := range t.entries {
		if e.H8 == h8 {
			t.entries = append(t.entries[:i:i], t.entries[i+1:]...)
			return e, true
		}
	}
	return nil, false
}

// Flush removes every entry and returns the removed entries in load order.
func (t *SequentialCMHTable) Flush() []*CMHEntry {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	removed := t.entries
	t.entries = nil
	return removed
}

// IssuedBy reports whether an entry was issued by the certificate with the
// given HashedID8.
func (t *SequentialCMHTable) IssuedBy(h8 cert.HashedID8) bool {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	for _, e := range t.entries {
		if e.IssuerH8 == h8 {
			return true
		}
	}
	return false
}

// Select returns the first entry usable for psid at now.
func (t *SequentialCMHTable) Select(psid uint32, now tai.Time64) (*CMHEntry, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	for _, e := range t.entries {
		if e.Usable(psid, now) {
			return e, true
		}
	}
	return nil, false
}

func (t *SequentialCMHTable) Len() int {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return len(t.entries)
}

// RotatingSet is the reconstructed material of butterfly batch I, keyed by
// slot index j.
type RotatingSet struct {
	I     uint32
	Slots map[uint32]*CMHEntry
	// Source is the CMHF the set was loaded from.
	Source []byte
}

// Indices returns the slot indices in ascending order.
func (s *RotatingSet) Indices() []uint32 {
	js := make([]uint32, 0, len(s.Slots))
	for j := range s.Slots {
		js = append(js, j)
	}
	sort.Slice(js, func(a, b int) bool { return js[a] < js[b] })
	return js
}

// RotatingCMHTable holds pseudonym certificate batches and the active slot.
// The active slot only changes through SetActive.
type RotatingCMHTable struct {
	mtx    sync.RWMutex
	sets   map[uint32]*RotatingSet
	active *CMHEntry
	i, j   uint32
}

// AddSet inserts s, replacing an existing set with the same batch index, and
// returns the replaced set. The active slot is kept if the new set still
// contains it, otherwise no slot is active afterwards.
func (t *RotatingCMHTable) AddSet(ctx context.Context, s *RotatingSet) *RotatingSet {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.sets == nil {
		t.sets = make(map[uint32]*RotatingSet)
	}
	replaced := t.sets[s.I]
	t.sets[s.I] = s
	if t.active != nil && t.i == s.I {
		if e, ok := s.Slots[t.j]; ok {
			t.active = e
		} else {
			log.FromCtx(ctx).Debug("Active slot missing from replacing set, deactivated",
				"i", t.i, "j", t.j)
			t.clearActive()
		}
	}
	return replaced
}

// RemoveSet deletes batch i and returns it. If the active slot belongs to
// the batch, no slot is active afterwards.
func (t *RotatingCMHTable) RemoveSet(i uint32) (*RotatingSet, bool) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	s, ok := t.sets[i]
	if !ok {
		return nil, false
	}
	delete(t.sets, i)
	if t.active != nil && t.i == i {
		t.clearActive()
	}
	return s, true
}

// Flush removes every batch and the active slot. The removed sets are
// returned in ascending batch order.
func (t *RotatingCMHTable) Flush() []*RotatingSet {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	removed := make([]*RotatingSet, 0, len(t.sets))
	for _, s := range t.sets {
		removed = append(removed, s)
	}
	sort.Slice(removed, func(a, b int) bool { return removed[a].I < removed[b].I })
	t.sets = nil
	t.clearActive()
	return removed
}

// IssuedBy reports whether a slot of any batch was issued by the certificate
// with the given HashedID8.
func (t *RotatingCMHTable) IssuedBy(h8 cert.HashedID8) bool {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	for _, s := range t.sets {
		for _, e := range s.Slots {
			if e.IssuerH8 == h8 {
				return true
			}
		}
	}
	return false
}

func (t *RotatingCMHTable) clearActive() {
	t.active, t.i, t.j = nil, 0, 0
}

// SetActive selects slot (i, j) for signing.
func (t *RotatingCMHTable) SetActive(i, j uint32) error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	s, ok := t.sets[i]
	if !ok {
		return serrors.JoinNoStack(dot2err.NoSuchCMHSlot, nil, "i", i, "j", j)
	}
	e, ok := s.Slots[j]
	if !ok {
		return serrors.JoinNoStack(dot2err.NoSuchCMHSlot, nil, "i", i, "j", j)
	}
	t.active, t.i, t.j = e, i, j
	return nil
}

// Active returns the active slot entry and its indices.
func (t *RotatingCMHTable) Active() (*CMHEntry, uint32, uint32, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.active, t.i, t.j, t.active != nil
}

// Set returns batch i.
func (t *RotatingCMHTable) Set(i uint32) (*RotatingSet, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	s, ok := t.sets[i]
	return s, ok
}

// Len returns the number of batches.
func (t *RotatingCMHTable) Len() int {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return len(t.sets)
}
