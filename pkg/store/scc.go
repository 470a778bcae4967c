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
	"crypto/sha256"
	"sync"

	"github.com/scionproto/scion/pkg/log"
	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/ecdsa256"
	"github.com/openv2x/dot2/pkg/ecqv"
	"github.com/openv2x/dot2/pkg/metrics"
	"github.com/openv2x/dot2/pkg/oer"
)

// DefaultMaxSCCCerts is the SCC table capacity used when none is configured.
const DefaultMaxSCCCerts = 64

// SCCEntry is a verified SCMS component certificate.
type SCCEntry struct {
	Cert *cert.Certificate
	Role cert.Role
	// Public is the verification key, reconstructed for implicit
	// certificates.
	Public ecc.Point
	// Hash is the SHA-256 of the encoded certificate, H(issuer) for the
	// certificates it issues.
	Hash [sha256.Size]byte
}

// SCCTable holds the certificates of the SCMS components a node trusts. It
// is safe for concurrent use.
type SCCTable struct {
	max   int
	dec   cert.Decoder
	gauge metrics.Gauge

	mtx       sync.RWMutex
	byH8      map[cert.HashedID8]*SCCEntry
	byH10     map[cert.HashedID10]*SCCEntry
	activeRA  *SCCEntry
	activePCA *SCCEntry
}

// NewSCCTable creates a table holding at most max certificates. A
// non-positive max selects DefaultMaxSCCCerts, a nil dec the library codec.
func NewSCCTable(max int, dec cert.Decoder, size metrics.Gauge) *SCCTable {
	if max <= 0 {
		max = DefaultMaxSCCCerts
	}
	if dec == nil {
		dec = oer.Codec{}
	}
	return &SCCTable{
		max:   max,
		dec:   dec,
		gauge: size,
		byH8:  make(map[cert.HashedID8]*SCCEntry),
		byH10: make(map[cert.HashedID10]*SCCEntry),
	}
}

// Add decodes and verifies raw and inserts it. Roots must carry a valid
// self-signature. All other certificates are verified against an issuer
// already present in the table. Adding a certificate that is already present
// returns the existing entry.
func (t *SCCTable) Add(ctx context.Context, raw []byte) (*SCCEntry, error) {
	c, err := t.dec.DecodeCertificate(raw)
	if err != nil {
		return nil, err
	}
	if c.TBS.ValidStart >= c.TBS.ValidEnd {
		return nil, serrors.JoinNoStack(dot2err.ASN1DecodeCertificate, nil,
			"reason", "validity start not before end",
			"start", c.TBS.ValidStart, "end", c.TBS.ValidEnd)
	}
	h8 := c.H8()
	if e, ok := t.Lookup(h8); ok {
		return e, nil
	}
	pub, err := t.verify(c)
	if err != nil {
		return nil, err
	}
	e := &SCCEntry{
		Cert:   c,
		Role:   cert.Classify(c),
		Public: pub,
		Hash:   c.Digest(),
	}

	t.mtx.Lock()
	defer t.mtx.Unlock()
	if existing, ok := t.byH8[h8]; ok {
		return existing, nil
	}
	if len(t.byH8) >= t.max {
		return nil, serrors.JoinNoStack(dot2err.TooManyCertsInTable, nil, "max", t.max)
	}
	t.byH8[h8] = e
	t.byH10[c.H10()] = e
	switch e.Role {
	case cert.RoleRA:
		t.activeRA = e
	case cert.RolePCA:
		t.activePCA = e
	}
	metrics.GaugeSet(t.gauge, float64(len(t.byH8)))
	log.FromCtx(ctx).Debug("Added SCC certificate", "h8", h8, "role", e.Role)
	return e, nil
}

func (t *SCCTable) verify(c *cert.Certificate) (ecc.Point, error) {
	if c.SelfSigned() {
		key, ok := c.TBS.Key.(cert.VerificationKey)
		if !ok || c.Signature == nil {
			return ecc.Point{}, serrors.JoinNoStack(dot2err.SignatureVerificationFailed, nil,
				"reason", "self-signed certificate must be explicit")
		}
		digest := ecdsa256.Digest(c.TBSRaw, nil)
		if err := ecdsa256.Verify(key.Point, digest, *c.Signature); err != nil {
			return ecc.Point{}, err
		}
		return key.Point, nil
	}
	id, _ := c.IssuerID()
	issuer, ok := t.Lookup(id)
	if !ok {
		return ecc.Point{}, serrors.JoinNoStack(dot2err.NoIssuerCertInSCCTable, nil,
			"issuer", id)
	}
	return VerifyIssued(c, issuer)
}

// VerifyIssued checks c against its issuer and returns the verification key
// of c. Explicit certificates must carry a valid issuer signature, implicit
// certificates have their key reconstructed.
func VerifyIssued(c *cert.Certificate, issuer *SCCEntry) (ecc.Point, error) {
	switch key := c.TBS.Key.(type) {
	case cert.VerificationKey:
		if c.Signature == nil {
			return ecc.Point{}, serrors.JoinNoStack(dot2err.SignatureVerificationFailed, nil,
				"reason", "missing signature")
		}
		digest := ecdsa256.Digest(c.TBSRaw, issuer.Cert.Raw)
		if err := ecdsa256.Verify(issuer.Public, digest, *c.Signature); err != nil {
			return ecc.Point{}, err
		}
		return key.Point, nil
	case cert.ReconstructionValue:
		q, err := ecqv.PublicKey(c, issuer.Hash, issuer.Public)
		if err != nil {
			return ecc.Point{}, serrors.JoinNoStack(dot2err.SignatureVerificationFailed, err)
		}
		if q.IsZero() {
			return ecc.Point{}, serrors.JoinNoStack(dot2err.SignatureVerificationFailed,
				ecc.ErrIdentity)
		}
		return q, nil
	default:
		return ecc.Point{}, serrors.JoinNoStack(dot2err.SignatureVerificationFailed, nil,
			"reason", "unknown key indicator")
	}
}

// Lookup returns the entry with the given HashedID8.
func (t *SCCTable) Lookup(h8 cert.HashedID8) (*SCCEntry, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	e, ok := t.byH8[h8]
	return e, ok
}

// Lookup10 returns the entry with the given HashedID10.
func (t *SCCTable) Lookup10(h10 cert.HashedID10) (*SCCEntry, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	e, ok := t.byH10[h10]
	return e, ok
}

// ActiveRA returns the most recently added RA certificate.
func (t *SCCTable) ActiveRA() (*SCCEntry, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.activeRA, t.activeRA != nil
}

// ActivePCA returns the most recently added PCA certificate.
func (t *SCCTable) ActivePCA() (*SCCEntry, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return t.activePCA, t.activePCA != nil
}

// Remove deletes the entry with the given HashedID8 and returns it. An entry
// that issued other entries of the table is kept and Remove fails with
// InvalidParams.
func (t *SCCTable) Remove(ctx context.Context, h8 cert.HashedID8) (*SCCEntry, error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	e, ok := t.byH8[h8]
	if !ok {
		return nil, serrors.JoinNoStack(dot2err.InvalidParams, nil,
			"reason", "no such SCC certificate", "h8", h8)
	}
	for other, o := range t.byH8 {
		if id, ok := o.Cert.IssuerID(); ok && id == h8 {
			return nil, serrors.JoinNoStack(dot2err.InvalidParams, nil,
				"reason", "certificate issued other SCC certificates", "h8", h8,
				"issued", other)
		}
	}
	t.remove(e)
	metrics.GaugeSet(t.gauge, float64(len(t.byH8)))
	log.FromCtx(ctx).Debug("Removed SCC certificate", "h8", h8, "role", e.Role)
	return e, nil
}

// Flush removes every entry and returns the removed entries.
func (t *SCCTable) Flush(ctx context.Context) []*SCCEntry {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	removed := make([]*SCCEntry, 0, len(t.byH8))
	for _, e := range t.byH8 {
		removed = append(removed, e)
	}
	clear(t.byH8)
	clear(t.byH10)
	t.activeRA, t.activePCA = nil, nil
	metrics.GaugeSet(t.gauge, 0)
	log.FromCtx(ctx).Debug("Flushed SCC table", "removed", len(removed))
	return removed
}

func (t *SCCTable) remove(e *SCCEntry) {
	delete(t.byH8, e.Cert.H8())
	delete(t.byH10, e.Cert.H10())
	if t.activeRA == e {
		t.activeRA = nil
	}
	if t.activePCA == e {
		t.activePCA = nil
	}
}

func (t *SCCTable) Len() int {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return len(t.byH8)
}
