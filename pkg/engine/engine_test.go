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

package engine_test

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/cert/certtest"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/ecdsa256"
	"github.com/openv2x/dot2/pkg/engine"
	"github.com/openv2x/dot2/pkg/metrics"
	"github.com/openv2x/dot2/pkg/oer"
	"github.com/openv2x/dot2/pkg/precompute"
	"github.com/openv2x/dot2/pkg/profile"
	"github.com/openv2x/dot2/pkg/spdu"
	"github.com/openv2x/dot2/pkg/store"
	"github.com/openv2x/dot2/pkg/tai"
)

const (
	psidBSM   = 0x20
	psidOther = 0x26
)

var now = certtest.ValidStart + tai.Time64(time.Hour/time.Microsecond)

type pki struct {
	Root *certtest.Entity
	ICA  *certtest.Entity
	PCA  *certtest.Entity
}

func newPKI(t *testing.T) pki {
	root := certtest.NewRoot(t, certtest.CATBS("root", cert.RoleRoot))
	ica := root.IssueExplicit(t, certtest.CATBS("ica", cert.RoleICA))
	return pki{
		Root: root,
		ICA:  ica,
		PCA:  ica.IssueImplicit(t, certtest.CATBS("pca", cert.RolePCA)),
	}
}

func (p pki) store(t *testing.T) *store.Store {
	s := store.New(store.Config{}, store.Metrics{})
	for _, e := range []*certtest.Entity{p.Root, p.ICA, p.PCA} {
		_, err := s.AddSCCCert(context.Background(), e.Cert.Raw)
		require.NoError(t, err)
	}
	return s
}

func bsmProfile() profile.SecProfile {
	return profile.SecProfile{
		PSID: psidBSM,
		Tx: profile.Tx{
			GenTimeHdr:       true,
			ExpTimeHdr:       true,
			SPDULifetime:     30 * time.Second,
			MinInterCertTime: 450 * time.Millisecond,
		},
		Rx: profile.Rx{
			VerifyData:                 true,
			ReplayCheck:                true,
			ReplayWindow:               time.Minute,
			GenTimeInPastCheck:         true,
			ValidityPeriod:             10 * time.Second,
			GenTimeInFutureCheck:       true,
			AcceptableFutureDataPeriod: time.Second,
			ExpTimeCheck:               true,
			CertExpiryCheck:            true,
		},
	}
}

type node struct {
	Store    *store.Store
	Profiles *profile.Table
	Engine   *engine.Engine
}

func newNode(t *testing.T, s *store.Store, m engine.Metrics,
	profiles ...profile.SecProfile) *node {

	var tbl profile.Table
	for _, p := range profiles {
		require.NoError(t, tbl.Add(p))
	}
	pl := precompute.New(precompute.Config{Interval: precompute.Disabled}, rand.Reader,
		precompute.Metrics{})
	t.Cleanup(pl.Close)
	e, err := engine.New(engine.Config{
		Codec:    oer.Codec{},
		Store:    s,
		Params:   pl,
		Profiles: &tbl,
		Metrics:  m,
	})
	require.NoError(t, err)
	return &node{Store: s, Profiles: &tbl, Engine: e}
}

// sender creates a node signing with a fresh implicit certificate issued by
// the PCA.
func sender(t *testing.T, p pki, profiles ...profile.SecProfile) (*node, *certtest.Entity) {
	s, ee := senderStore(t, p)
	return newNode(t, s, engine.Metrics{}, profiles...), ee
}

func senderStore(t *testing.T, p pki) (*store.Store, *certtest.Entity) {
	ee := p.PCA.IssueImplicit(t, certtest.AppTBS(psidBSM))
	s := p.store(t)
	_, err := s.LoadCMHF(context.Background(), certtest.SequentialCMHF(t, ee))
	require.NoError(t, err)
	return s, ee
}

type recorder struct {
	results []engine.Result
	ctxs    []any
}

func (r *recorder) callback(res engine.Result, parseCtx any) {
	r.results = append(r.results, res)
	r.ctxs = append(r.ctxs, parseCtx)
}

func (r *recorder) last(t *testing.T) engine.Result {
	require.NotEmpty(t, r.results)
	return r.results[len(r.results)-1]
}

func process(t *testing.T, n *node, raw []byte, params engine.ProcessParams) engine.Result {
	var r recorder
	require.NoError(t, n.Engine.Process(context.Background(), raw, params, r.callback, "ctx"))
	require.Len(t, r.results, 1)
	assert.Equal(t, "ctx", r.ctxs[0])
	return r.results[0]
}

func signerOf(t *testing.T, raw []byte) spdu.SignerID {
	d, err := oer.DecodeSPDU(raw)
	require.NoError(t, err)
	sd, ok := d.Content.(*spdu.SignedData)
	require.True(t, ok)
	return sd.Signer
}

func TestConstructProcessRoundTrip(t *testing.T) {
	p := newPKI(t)
	tx, ee := sender(t, p, bsmProfile())
	rx := newNode(t, p.store(t), engine.Metrics{}, bsmProfile())

	raw, err := tx.Engine.Construct(context.Background(), engine.ConstructParams{
		Type:         spdu.Signed,
		Time:         now,
		PSID:         psidBSM,
		SignerIDType: spdu.SignerIDCertificate,
	}, []byte("basic safety message"))
	require.NoError(t, err)

	res := process(t, rx, raw, engine.ProcessParams{ExpectedPSID: psidBSM, CurrentTime: now})
	require.NoError(t, res.Err)
	assert.Equal(t, dot2err.Success, res.Code)
	assert.Equal(t, spdu.Signed, res.ContentType)
	assert.Equal(t, []byte("basic safety message"), res.Payload)
	require.NotNil(t, res.Signer)
	assert.Equal(t, ee.Cert.H8(), res.Signer.H8())
	require.NotNil(t, res.Header.GenTime)
	assert.Equal(t, now, *res.Header.GenTime)
	require.NotNil(t, res.Header.ExpiryTime)
	assert.Equal(t, now.Add(30*time.Second), *res.Header.ExpiryTime)
	assert.Nil(t, res.Header.GenLocation)

	entry, ok := rx.Store.LookupSigner(ee.Cert.H8())
	require.True(t, ok, "signer cached after verification")
	assert.Equal(t, now.Add(store.DefaultEECacheLifetime), entry.Expiry)
}

func TestProfileSignerSelection(t *testing.T) {
	p := newPKI(t)
	tx, ee := sender(t, p, bsmProfile())
	ms := func(v int) tai.Time64 { return now + tai.Time64(v*1000) }

	testCases := []struct {
		At       tai.Time64
		WithCert bool
	}{
		{At: ms(0), WithCert: true},
		{At: ms(100)},
		{At: ms(200)},
		{At: ms(449)},
		{At: ms(450), WithCert: true},
		{At: ms(500)},
		{At: ms(899)},
		{At: ms(900), WithCert: true},
		{At: ms(901)},
	}
	for i, tc := range testCases {
		raw, err := tx.Engine.Construct(context.Background(), engine.ConstructParams{
			Type:         spdu.Signed,
			Time:         tc.At,
			PSID:         psidBSM,
			SignerIDType: spdu.SignerIDProfile,
		}, []byte{byte(i)})
		require.NoError(t, err)
		switch s := signerOf(t, raw).(type) {
		case spdu.SignerCertificate:
			assert.True(t, tc.WithCert, "call %d signed with certificate", i)
		case spdu.SignerDigest:
			assert.False(t, tc.WithCert, "call %d signed with digest", i)
			assert.Equal(t, ee.Cert.H8(), s.ID)
		default:
			t.Fatalf("unexpected signer %T", s)
		}
	}

	t.Run("certificate signs count for the profile interval", func(t *testing.T) {
		tx, _ := sender(t, p, bsmProfile())
		for i, typ := range []spdu.SignerIDType{
			spdu.SignerIDDigest, spdu.SignerIDCertificate, spdu.SignerIDDigest,
		} {
			raw, err := tx.Engine.Construct(context.Background(), engine.ConstructParams{
				Type:         spdu.Signed,
				Time:         ms(i),
				PSID:         psidBSM,
				SignerIDType: typ,
			}, []byte{1})
			require.NoError(t, err)
			_, isCert := signerOf(t, raw).(spdu.SignerCertificate)
			assert.Equal(t, typ == spdu.SignerIDCertificate, isCert)
		}
		raw, err := tx.Engine.Construct(context.Background(), engine.ConstructParams{
			Type:         spdu.Signed,
			Time:         ms(3),
			PSID:         psidBSM,
			SignerIDType: spdu.SignerIDProfile,
		}, []byte{1})
		require.NoError(t, err)
		assert.IsType(t, spdu.SignerDigest{}, signerOf(t, raw))
	})
}

func TestProfileSignerSelectionConcurrent(t *testing.T) {
	p := newPKI(t)
	tx, _ := sender(t, p, bsmProfile())

	const callers = 16
	withCert := make([]bool, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			raw, err := tx.Engine.Construct(context.Background(), engine.ConstructParams{
				Type:         spdu.Signed,
				Time:         now,
				PSID:         psidBSM,
				SignerIDType: spdu.SignerIDProfile,
			}, []byte{byte(i)})
			if err != nil {
				return err
			}
			d, err := oer.DecodeSPDU(raw)
			if err != nil {
				return err
			}
			_, withCert[i] = d.Content.(*spdu.SignedData).Signer.(spdu.SignerCertificate)
			return nil
		})
	}
	require.NoError(t, g.Wait())
	n := 0
	for _, c := range withCert {
		if c {
			n++
		}
	}
	assert.Equal(t, 1, n, "exactly one SPDU carries the certificate")
}

// TestPseudonymSigning signs with butterfly pseudonym certificates: the PCA
// issues the batch from the public seed, the sender reconstructs the slot keys
// and a receiver that only trusts the SCC chain verifies the SPDUs.
func TestPseudonymSigning(t *testing.T) {
	ctx := context.Background()
	p := newPKI(t)
	b := certtest.NewButterfly(t)
	const i = 0x13a
	slots := p.PCA.IssueButterfly(t, certtest.AppTBS(psidBSM), ecc.BaseMul(b.Seed),
		b.ExpansionKey, i, 0, 1, 2)
	s := p.store(t)
	_, err := s.LoadCMHF(ctx, certtest.RotatingCMHF(t, b, i, slots))
	require.NoError(t, err)
	tx := newNode(t, s, engine.Metrics{}, bsmProfile())
	rx := newNode(t, p.store(t), engine.Metrics{}, bsmProfile())

	construct := func(at tai.Time64) []byte {
		raw, err := tx.Engine.Construct(ctx, engine.ConstructParams{
			Type:         spdu.Signed,
			Time:         at,
			PSID:         psidBSM,
			SignerIDType: spdu.SignerIDProfile,
		}, []byte("pseudonymous"))
		require.NoError(t, err)
		return raw
	}

	_, err = tx.Engine.Construct(ctx, engine.ConstructParams{
		Type: spdu.Signed, Time: now, PSID: psidBSM, SignerIDType: spdu.SignerIDProfile,
	}, []byte("x"))
	assert.ErrorIs(t, err, dot2err.NoAvailableCMH)

	require.NoError(t, s.Rotating.SetActive(i, 1))
	raw := construct(now)
	res := process(t, rx, raw, engine.ProcessParams{ExpectedPSID: psidBSM, CurrentTime: now})
	require.NoError(t, res.Err)
	slot1, err := oer.DecodeCertificate(slots[1].Cert)
	require.NoError(t, err)
	assert.Equal(t, slot1.H8(), res.Signer.H8())

	raw = construct(now + 1000)
	assert.IsType(t, spdu.SignerDigest{}, signerOf(t, raw))
	res = process(t, rx, raw, engine.ProcessParams{
		ExpectedPSID: psidBSM, CurrentTime: now + 1000,
	})
	require.NoError(t, res.Err)

	require.NoError(t, s.Rotating.SetActive(i, 2))
	raw = construct(now + 2000)
	assert.IsType(t, spdu.SignerCertificate{}, signerOf(t, raw),
		"slot change sends the new certificate")
	res = process(t, rx, raw, engine.ProcessParams{
		ExpectedPSID: psidBSM, CurrentTime: now + 2000,
	})
	require.NoError(t, res.Err)
	slot2, err := oer.DecodeCertificate(slots[2].Cert)
	require.NoError(t, err)
	assert.Equal(t, slot2.H8(), res.Signer.H8())
}

func TestMetrics(t *testing.T) {
	p := newPKI(t)
	processed := metrics.NewTestCounterVec()
	constructed := metrics.NewTestCounterVec()
	m := engine.Metrics{Processed: processed.With, Constructed: constructed.With}
	s, _ := senderStore(t, p)
	tx := newNode(t, s, m, bsmProfile())
	rx := newNode(t, p.store(t), m, bsmProfile())

	raw, err := tx.Engine.Construct(context.Background(), engine.ConstructParams{
		Type: spdu.Signed, Time: now, PSID: psidBSM,
	}, []byte("m"))
	require.NoError(t, err)
	_, err = tx.Engine.Construct(context.Background(), engine.ConstructParams{
		Type: spdu.Signed, Time: now, PSID: psidOther,
	}, []byte("m"))
	assert.ErrorIs(t, err, dot2err.NoSuchSecProfileInTable)

	params := engine.ProcessParams{ExpectedPSID: psidBSM, CurrentTime: now}
	process(t, rx, raw, params)
	process(t, rx, raw, params)
	err = rx.Engine.Process(context.Background(), nil, params, func(engine.Result, any) {}, nil)
	assert.ErrorIs(t, err, dot2err.NullParameters)

	assert.Equal(t, float64(1), constructed.Value(metrics.OkSuccess))
	assert.Equal(t, float64(1), constructed.Value(metrics.ErrNotFound))
	assert.Equal(t, float64(1), processed.Value(metrics.OkSuccess))
	assert.Equal(t, float64(1), processed.Value(metrics.ErrPolicy), "replay")
	assert.Equal(t, float64(1), processed.Value(metrics.ErrParse))
}

// signSPDU signs arbitrary headers with the key of signer.
func signSPDU(t *testing.T, signer *certtest.Entity, tbs spdu.ToBeSignedData,
	id spdu.SignerID) []byte {

	tbsRaw, err := oer.EncodeToBeSignedData(&tbs)
	require.NoError(t, err)
	digest := ecdsa256.Digest(tbsRaw, signer.Cert.Raw)
	sig, err := ecdsa256.SignWith(func() (precompute.Params, error) {
		return precompute.Generate(rand.Reader)
	}, signer.Private, digest, ecc.XOnly)
	require.NoError(t, err)
	raw, err := oer.EncodeSPDU(&spdu.Data{
		ProtocolVersion: spdu.ProtocolVersion,
		Content:         &spdu.SignedData{TBS: tbs, Signer: id, Signature: sig},
	})
	require.NoError(t, err)
	return raw
}
