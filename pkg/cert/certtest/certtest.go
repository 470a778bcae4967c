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

// Package certtest issues certificates for tests. It implements the CA side
// of explicit certificates, ECQV implicit certificates and butterfly
// pseudonym batches.
package certtest

import (
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openv2x/dot2/pkg/butterfly"
	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/cmhf"
	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/ecdsa256"
	"github.com/openv2x/dot2/pkg/ecqv"
	"github.com/openv2x/dot2/pkg/oer"
	"github.com/openv2x/dot2/pkg/precompute"
	"github.com/openv2x/dot2/pkg/tai"
)

// Validity window of the templates, from 2020 to 2040.
const (
	ValidStart tai.Time64 = 504_921_600_000_000
	ValidEnd   tai.Time64 = 1_136_073_600_000_000
)

// Entity is a certificate together with the holder's key material.
type Entity struct {
	Cert    *cert.Certificate
	Private *big.Int
	// KInit and R are set for implicit certificates: Private equals
	// e·KInit + R.
	KInit *big.Int
	R     *big.Int
}

// Public returns the public key of the entity.
func (e *Entity) Public() ecc.Point {
	return ecc.BaseMul(e.Private)
}

// AppTBS returns a template for an end-entity certificate granting the given
// PSIDs.
func AppTBS(psids ...uint32) cert.ToBeSigned {
	perms := make([]cert.PsidSsp, 0, len(psids))
	for _, p := range psids {
		perms = append(perms, cert.PsidSsp{PSID: p})
	}
	return cert.ToBeSigned{
		ID:             cert.IDNone{},
		ValidStart:     ValidStart,
		ValidEnd:       ValidEnd,
		AppPermissions: perms,
	}
}

// CATBS returns a template for a CA certificate of the given role that may
// issue certificates for any PSID.
func CATBS(name string, role cert.Role) cert.ToBeSigned {
	tbs := cert.ToBeSigned{
		ID:         cert.IDName(name),
		ValidStart: ValidStart,
		ValidEnd:   ValidEnd,
		CertIssuePermissions: []cert.PsidGroupPermissions{{
			MinChainLength:   1,
			ChainLengthRange: -1,
			EEType:           cert.EETypeApp,
		}},
	}
	if ssp := cert.RoleSSP(role); ssp != nil && role != cert.RoleRoot {
		tbs.AppPermissions = []cert.PsidSsp{{PSID: cert.PSIDSCMS, SSP: ssp}}
	}
	return tbs
}

// NewRoot creates a self-signed explicit root certificate.
func NewRoot(t testing.TB, tbs cert.ToBeSigned) *Entity {
	t.Helper()
	priv := randomScalar(t)
	tbs.Key = cert.VerificationKey{Point: ecc.BaseMul(priv)}
	c := &cert.Certificate{
		Type:   cert.Explicit,
		Issuer: cert.IssuerSelf{},
		TBS:    tbs,
	}
	sign(t, c, priv, nil)
	return &Entity{Cert: c, Private: priv}
}

// IssueExplicit issues an explicit certificate signed by ca.
func (ca *Entity) IssueExplicit(t testing.TB, tbs cert.ToBeSigned) *Entity {
	t.Helper()
	priv := randomScalar(t)
	tbs.Key = cert.VerificationKey{Point: ecc.BaseMul(priv)}
	c := &cert.Certificate{
		Type:   cert.Explicit,
		Issuer: cert.IssuerDigest{ID: ca.Cert.H8()},
		TBS:    tbs,
	}
	sign(t, c, ca.Private, ca.Cert.Raw)
	return &Entity{Cert: c, Private: priv}
}

// IssueImplicit issues an implicit certificate for a fresh requester key and
// reconstructs the requester's private key.
func (ca *Entity) IssueImplicit(t testing.TB, tbs cert.ToBeSigned) *Entity {
	t.Helper()
	kInit := randomScalar(t)
	c, r := ca.IssueImplicitFor(t, tbs, ecc.BaseMul(kInit))
	e := ecqv.HashInput(sha256.Sum256(c.TBSRaw), ca.Cert.Digest())
	priv := ecqv.ReconstructPrivateKey(kInit, r, e)
	pub, err := ecqv.PublicKey(c, ca.Cert.Digest(), ca.Public())
	require.NoError(t, err)
	require.NoError(t, ecqv.VerifyKeyPair(priv, pub))
	return &Entity{Cert: c, Private: priv, KInit: kInit, R: r}
}

// IssueImplicitFor issues an implicit certificate for the requester public
// key kUPub. It returns the certificate and the private reconstruction value
// r = e·k + d_CA.
func (ca *Entity) IssueImplicitFor(t testing.TB, tbs cert.ToBeSigned,
	kUPub ecc.Point) (*cert.Certificate, *big.Int) {

	t.Helper()
	for {
		k := randomScalar(t)
		rv := kUPub.Add(ecc.BaseMul(k))
		if rv.IsZero() {
			continue
		}
		tbs.Key = cert.ReconstructionValue{Point: rv}
		c := &cert.Certificate{
			Type:   cert.Implicit,
			Issuer: cert.IssuerDigest{ID: ca.Cert.H8()},
			TBS:    tbs,
		}
		_, err := oer.EncodeCertificate(c)
		require.NoError(t, err)
		e := ecqv.HashInput(sha256.Sum256(c.TBSRaw), ca.Cert.Digest())
		r := new(big.Int).Mul(e, k)
		r.Add(r, ca.Private)
		r.Mod(r, ecc.N)
		decoded, err := oer.DecodeCertificate(c.Raw)
		require.NoError(t, err)
		return decoded, r
	}
}

// Butterfly is the requester side of a butterfly batch.
type Butterfly struct {
	Seed         *big.Int
	ExpansionKey [butterfly.KeySize]byte
}

// NewButterfly creates random butterfly seed material.
func NewButterfly(t testing.TB) Butterfly {
	t.Helper()
	b := Butterfly{Seed: randomScalar(t)}
	_, err := rand.Read(b.ExpansionKey[:])
	require.NoError(t, err)
	return b
}

// IssueButterfly issues one implicit pseudonym certificate per j of batch i
// from the seed public key and expansion key, the way a PCA does. It only
// uses the public seed.
func (ca *Entity) IssueButterfly(t testing.TB, tbs cert.ToBeSigned, seedPub ecc.Point,
	key [butterfly.KeySize]byte, i uint32, js ...uint32) []cmhf.RotatingSlot {

	t.Helper()
	slots := make([]cmhf.RotatingSlot, 0, len(js))
	for _, j := range js {
		cocoon := butterfly.CocoonPublicKey(seedPub, key, butterfly.Signing, i, j)
		c, r := ca.IssueImplicitFor(t, tbs, cocoon)
		slots = append(slots, cmhf.RotatingSlot{J: j, Cert: c.Raw, R: ecc.ScalarBytes(r)})
	}
	return slots
}

// SequentialCMHF encodes the material of e as a sequential CMHF.
func SequentialCMHF(t testing.TB, e *Entity) []byte {
	t.Helper()
	entry := &cmhf.SequentialEntry{Cert: e.Cert.Raw}
	if e.KInit != nil {
		entry.Implicit = true
		entry.Key = ecc.ScalarBytes(e.KInit)
		entry.R = ecc.ScalarBytes(e.R)
	} else {
		entry.Key = ecc.ScalarBytes(e.Private)
	}
	raw, err := cmhf.Encode(&cmhf.File{Type: cmhf.Sequential, Sequential: entry})
	require.NoError(t, err)
	return raw
}

// RotatingCMHF encodes a butterfly batch as a rotating CMHF.
func RotatingCMHF(t testing.TB, b Butterfly, i uint32, slots []cmhf.RotatingSlot) []byte {
	t.Helper()
	raw, err := cmhf.Encode(&cmhf.File{
		Type: cmhf.Rotating,
		Rotating: &cmhf.RotatingSet{
			I:            i,
			Seed:         ecc.ScalarBytes(b.Seed),
			ExpansionKey: b.ExpansionKey,
			Slots:        slots,
		},
	})
	require.NoError(t, err)
	return raw
}

func sign(t testing.TB, c *cert.Certificate, priv *big.Int, issuerRaw []byte) {
	t.Helper()
	// Encode once without a real signature to obtain TBSRaw.
	c.Signature = &cert.Signature{}
	_, err := oer.EncodeCertificate(c)
	require.NoError(t, err)
	digest := ecdsa256.Digest(c.TBSRaw, issuerRaw)
	sig, err := ecdsa256.SignWith(func() (precompute.Params, error) {
		return precompute.Generate(rand.Reader)
	}, priv, digest, ecc.XOnly)
	require.NoError(t, err)
	c.Signature = &sig
	_, err = oer.EncodeCertificate(c)
	require.NoError(t, err)
	decoded, err := oer.DecodeCertificate(c.Raw)
	require.NoError(t, err)
	*c = *decoded
}

func randomScalar(t testing.TB) *big.Int {
	t.Helper()
	k, err := ecc.RandomScalar(rand.Reader)
	require.NoError(t, err)
	return k
}
