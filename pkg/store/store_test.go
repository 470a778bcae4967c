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

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openv2x/dot2/pkg/cert/certtest"
	"github.com/openv2x/dot2/pkg/cmhf"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/store"
	"github.com/openv2x/dot2/pkg/tai"
)

func newStore(t *testing.T, p pki) *store.Store {
	s := store.New(store.Config{}, store.Metrics{})
	for _, e := range []*certtest.Entity{p.Root, p.ICA, p.PCA, p.RA} {
		_, err := s.AddSCCCert(context.Background(), e.Cert.Raw)
		require.NoError(t, err)
	}
	return s
}

func TestLoadSequentialCMHF(t *testing.T) {
	ctx := context.Background()
	p := newPKI(t)
	explicit := p.ICA.IssueExplicit(t, certtest.AppTBS(0x20))
	implicit := p.PCA.IssueImplicit(t, certtest.AppTBS(0x26))

	s := newStore(t, p)
	assert.Equal(t, cmhf.None, s.CMHType())
	for _, e := range []*certtest.Entity{explicit, implicit} {
		l, err := s.LoadCMHF(ctx, certtest.SequentialCMHF(t, e))
		require.NoError(t, err)
		assert.Equal(t, cmhf.Sequential, l.Type)
		assert.Nil(t, l.Replaced)
	}
	assert.Equal(t, cmhf.Sequential, s.CMHType())
	assert.Equal(t, 2, s.Sequential.Len())

	now := certtest.ValidStart + 1
	e, ok := s.Sequential.Select(0x26, now)
	require.True(t, ok)
	assert.Equal(t, implicit.Cert.H8(), e.H8)
	assert.Equal(t, p.PCA.Cert.H8(), e.IssuerH8)
	assert.Equal(t, 0, implicit.Private.Cmp(e.Private))

	e, ok = s.Sequential.Select(0x20, now)
	require.True(t, ok)
	assert.Equal(t, explicit.Cert.H8(), e.H8)

	_, ok = s.Sequential.Select(0x87, now)
	assert.False(t, ok)
	_, ok = s.Sequential.Select(0x20, certtest.ValidEnd)
	assert.False(t, ok)

	t.Run("different type", func(t *testing.T) {
		b := certtest.NewButterfly(t)
		slots := p.PCA.IssueButterfly(t, certtest.AppTBS(0x20), ecc.BaseMul(b.Seed),
			b.ExpansionKey, 1, 0)
		_, err := s.LoadCMHF(ctx, certtest.RotatingCMHF(t, b, 1, slots))
		assert.ErrorIs(t, err, dot2err.DifferentCMHType)
		assert.Equal(t, 0, s.Rotating.Len())
	})
}

func TestLoadRotatingCMHF(t *testing.T) {
	ctx := context.Background()
	p := newPKI(t)
	s := newStore(t, p)
	b := certtest.NewButterfly(t)
	const i = 0x13a
	slots := p.PCA.IssueButterfly(t, certtest.AppTBS(0x20), ecc.BaseMul(b.Seed),
		b.ExpansionKey, i, 0, 1, 2, 3, 4, 5)

	l, err := s.LoadCMHF(ctx, certtest.RotatingCMHF(t, b, i, slots))
	require.NoError(t, err)
	assert.Equal(t, cmhf.Rotating, l.Type)

	set, ok := s.Rotating.Set(i)
	require.True(t, ok)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, set.Indices())
	for j, e := range set.Slots {
		assert.True(t, ecc.BaseMul(e.Private).Equal(e.Public), "j=%d", j)
	}

	_, _, _, ok = s.Rotating.Active()
	assert.False(t, ok, "no slot is active before SetActive")
	require.NoError(t, s.Rotating.SetActive(i, 3))
	e, gotI, gotJ, ok := s.Rotating.Active()
	require.True(t, ok)
	assert.Equal(t, uint32(i), gotI)
	assert.Equal(t, uint32(3), gotJ)
	assert.Same(t, set.Slots[3], e)

	assert.ErrorIs(t, s.Rotating.SetActive(i, 6), dot2err.NoSuchCMHSlot)
	assert.ErrorIs(t, s.Rotating.SetActive(i+1, 0), dot2err.NoSuchCMHSlot)
	_, gotI, gotJ, _ = s.Rotating.Active()
	assert.Equal(t, [2]uint32{i, 3}, [2]uint32{gotI, gotJ}, "failed SetActive keeps slot")

	explicit := p.ICA.IssueExplicit(t, certtest.AppTBS(0x20))
	_, err = s.LoadCMHF(ctx, certtest.SequentialCMHF(t, explicit))
	assert.ErrorIs(t, err, dot2err.DifferentCMHType)
}

func TestLoadCMHFErrors(t *testing.T) {
	ctx := context.Background()
	p := newPKI(t)
	explicit := p.ICA.IssueExplicit(t, certtest.AppTBS(0x20))
	implicit := p.PCA.IssueImplicit(t, certtest.AppTBS(0x20))
	orphan := certtest.NewRoot(t, certtest.CATBS("other", 0)).
		IssueImplicit(t, certtest.AppTBS(0x20))

	wrongKey := *explicit
	wrongKey.Private = implicit.Private
	wrongR := *implicit
	wrongR.R = explicit.Private

	b := certtest.NewButterfly(t)
	slots := p.PCA.IssueButterfly(t, certtest.AppTBS(0x20), ecc.BaseMul(b.Seed),
		b.ExpansionKey, 7, 0, 1)
	slots[1].R[31] ^= 1

	testCases := map[string]struct {
		Raw      []byte
		Expected error
	}{
		"garbage": {
			Raw:      []byte("CMHF"),
			Expected: dot2err.InvalidCMHF,
		},
		"explicit wrong key": {
			Raw:      certtest.SequentialCMHF(t, &wrongKey),
			Expected: dot2err.InvalidReconstructedKeyPair,
		},
		"implicit wrong reconstruction value": {
			Raw:      certtest.SequentialCMHF(t, &wrongR),
			Expected: dot2err.InvalidReconstructedKeyPair,
		},
		"implicit unknown issuer": {
			Raw:      certtest.SequentialCMHF(t, orphan),
			Expected: dot2err.NoIssuerCertInSCCTable,
		},
		"rotating bad slot": {
			Raw:      certtest.RotatingCMHF(t, b, 7, slots),
			Expected: dot2err.InvalidReconstructedKeyPair,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, p)
			_, err := s.LoadCMHF(ctx, tc.Raw)
			assert.ErrorIs(t, err, tc.Expected)
			assert.Equal(t, cmhf.None, s.CMHType(), "failed load locks no type")
			assert.Equal(t, 0, s.Sequential.Len()+s.Rotating.Len())
		})
	}
}

func TestCacheSigner(t *testing.T) {
	p := newPKI(t)
	s := store.New(store.Config{EECacheLifetime: 2_000_000}, store.Metrics{})
	var now tai.Time64 = certtest.ValidStart
	e := s.CacheSigner(p.RA.Cert, p.RA.Public(), now)
	assert.Equal(t, now+2_000, e.Expiry)
	assert.Equal(t, certtest.ValidEnd, e.ValidEnd)
	assert.Equal(t, 0, s.RemoveExpiredEECertCache(now+1_999))
	assert.Equal(t, 1, s.RemoveExpiredEECertCache(now+2_000))
}

func TestSigningCMH(t *testing.T) {
	ctx := context.Background()
	p := newPKI(t)
	now := certtest.ValidStart + 1

	t.Run("sequential", func(t *testing.T) {
		s := newStore(t, p)
		_, err := s.SigningCMH(0x20, now)
		assert.ErrorIs(t, err, dot2err.NoAvailableCMH)

		ee := p.PCA.IssueImplicit(t, certtest.AppTBS(0x20))
		_, err = s.LoadCMHF(ctx, certtest.SequentialCMHF(t, ee))
		require.NoError(t, err)
		e, err := s.SigningCMH(0x20, now)
		require.NoError(t, err)
		assert.Equal(t, ee.Cert.H8(), e.H8)
		_, err = s.SigningCMH(0x21, now)
		assert.ErrorIs(t, err, dot2err.NoAvailableCMH)
	})
	t.Run("rotating", func(t *testing.T) {
		s := newStore(t, p)
		b := certtest.NewButterfly(t)
		slots := p.PCA.IssueButterfly(t, certtest.AppTBS(0x20), ecc.BaseMul(b.Seed),
			b.ExpansionKey, 3, 0, 1)
		_, err := s.LoadCMHF(ctx, certtest.RotatingCMHF(t, b, 3, slots))
		require.NoError(t, err)

		_, err = s.SigningCMH(0x20, now)
		assert.ErrorIs(t, err, dot2err.NoAvailableCMH, "no active slot")
		require.NoError(t, s.Rotating.SetActive(3, 1))
		e, err := s.SigningCMH(0x20, now)
		require.NoError(t, err)
		set, _ := s.Rotating.Set(3)
		assert.Same(t, set.Slots[1], e)
		_, err = s.SigningCMH(0x26, now)
		assert.ErrorIs(t, err, dot2err.NoAvailableCMH)
	})
}

func TestRemoveSequentialCMH(t *testing.T) {
	ctx := context.Background()
	p := newPKI(t)
	s := newStore(t, p)
	a := p.PCA.IssueImplicit(t, certtest.AppTBS(0x20))
	b := p.ICA.IssueExplicit(t, certtest.AppTBS(0x20))
	rawA := certtest.SequentialCMHF(t, a)
	for _, raw := range [][]byte{rawA, certtest.SequentialCMHF(t, b)} {
		_, err := s.LoadCMHF(ctx, raw)
		require.NoError(t, err)
	}

	l, err := s.LoadCMHF(ctx, rawA)
	require.NoError(t, err)
	assert.Equal(t, rawA, l.Replaced, "reloading reports the replaced source")
	assert.Equal(t, 2, s.Sequential.Len())

	_, err = s.RemoveSCCCert(ctx, p.PCA.Cert.H8())
	assert.ErrorIs(t, err, dot2err.InvalidParams, "PCA issued a loaded CMH")

	e, err := s.RemoveSequentialCMH(ctx, a.Cert.H8())
	require.NoError(t, err)
	assert.Equal(t, rawA, e.Source)
	_, err = s.RemoveSequentialCMH(ctx, a.Cert.H8())
	assert.ErrorIs(t, err, dot2err.InvalidParams)
	sel, ok := s.Sequential.Select(0x20, certtest.ValidStart+1)
	require.True(t, ok)
	assert.Equal(t, b.Cert.H8(), sel.H8)
	assert.Equal(t, cmhf.Sequential, s.CMHType())

	_, err = s.RemoveSCCCert(ctx, p.PCA.Cert.H8())
	require.NoError(t, err)

	_, err = s.RemoveSequentialCMH(ctx, b.Cert.H8())
	require.NoError(t, err)
	assert.Equal(t, cmhf.None, s.CMHType(), "empty tables unlock the type")
	bt := certtest.NewButterfly(t)
	slots := p.ICA.IssueButterfly(t, certtest.AppTBS(0x20), ecc.BaseMul(bt.Seed),
		bt.ExpansionKey, 1, 0)
	_, err = s.LoadCMHF(ctx, certtest.RotatingCMHF(t, bt, 1, slots))
	assert.NoError(t, err)
}

func TestRemoveRotatingCMHSet(t *testing.T) {
	ctx := context.Background()
	p := newPKI(t)
	s := newStore(t, p)
	b := certtest.NewButterfly(t)
	for _, i := range []uint32{1, 2} {
		slots := p.PCA.IssueButterfly(t, certtest.AppTBS(0x20), ecc.BaseMul(b.Seed),
			b.ExpansionKey, i, 0, 1)
		_, err := s.LoadCMHF(ctx, certtest.RotatingCMHF(t, b, i, slots))
		require.NoError(t, err)
	}
	require.NoError(t, s.Rotating.SetActive(2, 1))

	_, err := s.RemoveRotatingCMHSet(ctx, 1)
	require.NoError(t, err)
	_, _, _, ok := s.Rotating.Active()
	assert.True(t, ok, "active slot of another set survives")

	_, err = s.RemoveRotatingCMHSet(ctx, 2)
	require.NoError(t, err)
	_, i, j, ok := s.Rotating.Active()
	assert.False(t, ok, "removing the active set clears the active slot")
	assert.Equal(t, [2]uint32{0, 0}, [2]uint32{i, j})
	_, err = s.SigningCMH(0x20, certtest.ValidStart+1)
	assert.ErrorIs(t, err, dot2err.NoAvailableCMH)

	_, err = s.RemoveRotatingCMHSet(ctx, 2)
	assert.ErrorIs(t, err, dot2err.NoSuchCMHSlot)
	assert.Equal(t, cmhf.None, s.CMHType())
}

func TestReplaceRotatingSet(t *testing.T) {
	ctx := context.Background()
	p := newPKI(t)
	b := certtest.NewButterfly(t)
	const i = 5
	issue := func(js ...uint32) []byte {
		slots := p.PCA.IssueButterfly(t, certtest.AppTBS(0x20), ecc.BaseMul(b.Seed),
			b.ExpansionKey, i, js...)
		return certtest.RotatingCMHF(t, b, i, slots)
	}
	first := issue(0, 1, 2, 3)

	t.Run("active slot kept", func(t *testing.T) {
		s := newStore(t, p)
		_, err := s.LoadCMHF(ctx, first)
		require.NoError(t, err)
		require.NoError(t, s.Rotating.SetActive(i, 1))
		l, err := s.LoadCMHF(ctx, issue(0, 1))
		require.NoError(t, err)
		assert.Equal(t, first, l.Replaced)
		e, gotI, gotJ, ok := s.Rotating.Active()
		require.True(t, ok)
		set, _ := s.Rotating.Set(i)
		assert.Same(t, set.Slots[1], e, "active slot points into the new set")
		assert.Equal(t, [2]uint32{i, 1}, [2]uint32{gotI, gotJ})
	})
	t.Run("active slot missing", func(t *testing.T) {
		s := newStore(t, p)
		_, err := s.LoadCMHF(ctx, first)
		require.NoError(t, err)
		require.NoError(t, s.Rotating.SetActive(i, 3))
		_, err = s.LoadCMHF(ctx, issue(0, 1))
		require.NoError(t, err)
		_, gotI, gotJ, ok := s.Rotating.Active()
		assert.False(t, ok)
		assert.Equal(t, [2]uint32{0, 0}, [2]uint32{gotI, gotJ}, "indices cleared")
		_, err = s.SigningCMH(0x20, certtest.ValidStart+1)
		assert.ErrorIs(t, err, dot2err.NoAvailableCMH)
	})
}

func TestRotatingSlotIndices(t *testing.T) {
	ctx := context.Background()
	p := newPKI(t)
	b := certtest.NewButterfly(t)
	issue := func(js ...uint32) []cmhf.RotatingSlot {
		return p.PCA.IssueButterfly(t, certtest.AppTBS(0x20), ecc.BaseMul(b.Seed),
			b.ExpansionKey, 9, js...)
	}
	dup := issue(0, 1)
	dup = append(dup, dup[1])

	testCases := map[string][]cmhf.RotatingSlot{
		"out of range": issue(0, cmhf.MaxSlots),
		"duplicate":    dup,
	}
	for name, slots := range testCases {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, p)
			_, err := s.LoadCMHF(ctx, certtest.RotatingCMHF(t, b, 9, slots))
			assert.ErrorIs(t, err, dot2err.InvalidCMHF)
			assert.Equal(t, 0, s.Rotating.Len())
		})
	}
	s := newStore(t, p)
	_, err := s.LoadCMHF(ctx, certtest.RotatingCMHF(t, b, 9, issue(0, cmhf.MaxSlots-1)))
	assert.NoError(t, err)
}

func TestFlush(t *testing.T) {
	ctx := context.Background()
	p := newPKI(t)
	s := newStore(t, p)
	ee := p.PCA.IssueImplicit(t, certtest.AppTBS(0x20))
	raw := certtest.SequentialCMHF(t, ee)
	_, err := s.LoadCMHF(ctx, raw)
	require.NoError(t, err)
	s.CacheSigner(p.RA.Cert, p.RA.Public(), certtest.ValidStart)

	_, err = s.FlushSCC(ctx)
	assert.ErrorIs(t, err, dot2err.InvalidParams, "CMH entries depend on the SCC table")
	assert.Equal(t, 4, s.SCC.Len())

	assert.Equal(t, [][]byte{raw}, s.FlushCMH(ctx))
	assert.Equal(t, 0, s.Sequential.Len())
	assert.Equal(t, cmhf.None, s.CMHType())

	removed, err := s.FlushSCC(ctx)
	require.NoError(t, err)
	assert.Len(t, removed, 4)
	assert.Equal(t, 0, s.SCC.Len())

	assert.Equal(t, 1, s.FlushEECertCache())
	_, ok := s.LookupSigner(p.RA.Cert.H8())
	assert.False(t, ok)
}
