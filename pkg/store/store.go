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

// Package store holds the certificates and signing material of a library
// context: the SCC table of trusted SCMS certificates, the cache of verified
// end-entity signer certificates and the CMH tables a node signs with.
package store

import (
	"context"
	"crypto/sha256"
	"math/big"
	"sync"
	"time"

	"github.com/scionproto/scion/pkg/log"
	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/butterfly"
	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/cmhf"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/ecqv"
	"github.com/openv2x/dot2/pkg/metrics"
	"github.com/openv2x/dot2/pkg/oer"
	"github.com/openv2x/dot2/pkg/tai"
)

// Config configures a Store.
type Config struct {
	// MaxSCCCerts is the SCC table capacity.
	MaxSCCCerts int
	// EECacheLifetime is how long verified signer certificates are cached.
	EECacheLifetime time.Duration
	// Decoder decodes SCC and CMH certificates. Nil selects oer.Codec.
	Decoder cert.Decoder
}

// Metrics of a Store. All fields are optional.
type Metrics struct {
	SCCCerts    metrics.Gauge
	EECacheSize metrics.Gauge
}

// Store bundles the tables of one library context.
type Store struct {
	SCC        *SCCTable
	EE         *EECache
	Sequential *SequentialCMHTable
	Rotating   *RotatingCMHTable

	eeLifetime time.Duration
	dec        cert.Decoder

	// mtx serializes CMH loads and removals and guards cmhType.
	mtx     sync.Mutex
	cmhType cmhf.Type
}

func New(cfg Config, m Metrics) *Store {
	if cfg.EECacheLifetime <= 0 {
		cfg.EECacheLifetime = DefaultEECacheLifetime
	}
	if cfg.Decoder == nil {
		cfg.Decoder = oer.Codec{}
	}
	return &Store{
		SCC:        NewSCCTable(cfg.MaxSCCCerts, cfg.Decoder, m.SCCCerts),
		EE:         NewEECache(m.EECacheSize),
		Sequential: &SequentialCMHTable{},
		Rotating:   &RotatingCMHTable{},
		eeLifetime: cfg.EECacheLifetime,
		dec:        cfg.Decoder,
	}
}

// AddSCCCert adds an SCMS component certificate to the SCC table.
func (s *Store) AddSCCCert(ctx context.Context, raw []byte) (*SCCEntry, error) {
	return s.SCC.Add(ctx, raw)
}

// LookupByHash returns the SCC entry with the given HashedID8.
func (s *Store) LookupByHash(h8 cert.HashedID8) (*SCCEntry, bool) {
	return s.SCC.Lookup(h8)
}

// LookupByHash10 returns the SCC entry with the given HashedID10.
func (s *Store) LookupByHash10(h10 cert.HashedID10) (*SCCEntry, bool) {
	return s.SCC.Lookup10(h10)
}

// RemoveSCCCert removes the SCC certificate with the given HashedID8. A
// certificate that issued other SCC certificates or loaded CMH entries is
// kept and the call fails with InvalidParams.
func (s *Store) RemoveSCCCert(ctx context.Context, h8 cert.HashedID8) (*SCCEntry, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.Sequential.IssuedBy(h8) || s.Rotating.IssuedBy(h8) {
		return nil, serrors.JoinNoStack(dot2err.InvalidParams, nil,
			"reason", "certificate issued loaded CMH entries", "h8", h8)
	}
	return s.SCC.Remove(ctx, h8)
}

// FlushSCC removes every SCC certificate. It fails with InvalidParams while
// CMH entries are loaded, since their issuers would go with the table.
func (s *Store) FlushSCC(ctx context.Context) ([]*SCCEntry, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if n := s.Sequential.Len() + s.Rotating.Len(); n > 0 {
		return nil, serrors.JoinNoStack(dot2err.InvalidParams, nil,
			"reason", "CMH entries loaded", "cmh", n)
	}
	return s.SCC.Flush(ctx), nil
}

// CacheSigner inserts a verified signer certificate into the EE cache. The
// entry expires after the configured lifetime counted from now.
func (s *Store) CacheSigner(c *cert.Certificate, pub ecc.Point, now tai.Time64) *EEEntry {
	e := &EEEntry{
		Cert:     c,
		Public:   pub,
		ValidEnd: c.TBS.ValidEnd,
		Expiry:   now.Add(s.eeLifetime),
	}
	s.EE.Put(e)
	return e
}

// LookupSigner returns the EE cache entry with the given HashedID8.
func (s *Store) LookupSigner(h8 cert.HashedID8) (*EEEntry, bool) {
	return s.EE.Get(h8)
}

// SigningCMH returns the CMH to sign SPDUs of psid with at now. A rotating
// store signs with the active slot, a sequential store with the first entry
// that is valid at now and permits psid.
func (s *Store) SigningCMH(psid uint32, now tai.Time64) (*CMHEntry, error) {
	if s.CMHType() == cmhf.Rotating {
		e, i, j, ok := s.Rotating.Active()
		if !ok {
			return nil, serrors.JoinNoStack(dot2err.NoAvailableCMH, nil,
				"reason", "no active slot")
		}
		if !e.Usable(psid, now) {
			return nil, serrors.JoinNoStack(dot2err.NoAvailableCMH, nil,
				"reason", "active slot not usable", "i", i, "j", j, "psid", psid)
		}
		return e, nil
	}
	e, ok := s.Sequential.Select(psid, now)
	if !ok {
		return nil, serrors.JoinNoStack(dot2err.NoAvailableCMH, nil, "psid", psid)
	}
	return e, nil
}

// RemoveExpiredEECertCache removes EE cache entries with
// ref >= min(Expiry, ValidEnd) and returns how many were removed.
func (s *Store) RemoveExpiredEECertCache(ref tai.Time64) int {
	return s.EE.RemoveExpired(ref)
}

// FlushEECertCache removes every EE cache entry and returns how many were
// removed.
func (s *Store) FlushEECertCache() int {
	return s.EE.Flush()
}

// CMHType returns the CMH table shape of the store, None until the first
// CMH is loaded.
func (s *Store) CMHType() cmhf.Type {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.cmhType
}

// Loaded describes the effect of a CMHF load.
type Loaded struct {
	Type cmhf.Type
	// Replaced is the source CMHF of the entry or set the load replaced. It
	// is nil if nothing was replaced.
	Replaced []byte
}

// LoadCMHF decodes a CMHF and adds its material to the matching CMH table.
// The first successful load locks the CMH type of the store until the CMH
// tables are empty again.
func (s *Store) LoadCMHF(ctx context.Context, raw []byte) (Loaded, error) {
	f, err := cmhf.Decode(raw)
	if err != nil {
		return Loaded{Type: cmhf.None}, err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if err := s.checkType(f.Type); err != nil {
		return Loaded{Type: f.Type}, err
	}
	switch f.Type {
	case cmhf.Sequential:
		e, err := s.sequentialEntry(f.Sequential)
		if err != nil {
			return Loaded{Type: f.Type}, err
		}
		e.Source = raw
		l := Loaded{Type: f.Type}
		if replaced := s.Sequential.Add(e); replaced != nil {
			l.Replaced = replaced.Source
		}
		s.cmhType = cmhf.Sequential
		log.FromCtx(ctx).Debug("Loaded sequential CMH", "h8", e.H8, "type", e.Cert.Type)
		return l, nil
	default:
		set, err := s.rotatingSet(f.Rotating)
		if err != nil {
			return Loaded{Type: f.Type}, err
		}
		set.Source = raw
		l := Loaded{Type: f.Type}
		if replaced := s.Rotating.AddSet(ctx, set); replaced != nil {
			l.Replaced = replaced.Source
		}
		s.cmhType = cmhf.Rotating
		log.FromCtx(ctx).Debug("Loaded rotating CMH set", "i", set.I,
			"slots", len(set.Slots))
		return l, nil
	}
}

// sequentialEntry derives the private key of a sequential entry and checks
// it against the certificate.
func (s *Store) sequentialEntry(m *cmhf.SequentialEntry) (*CMHEntry, error) {
	c, err := s.dec.DecodeCertificate(m.Cert)
	if err != nil {
		return nil, err
	}
	if !m.Implicit {
		return explicitEntry(c, m.Key)
	}
	return s.implicitEntry(c, func(issuer *SCCEntry) (*big.Int, error) {
		kp, err := ecqv.ReconstructPrivateKeyFromCert(s.dec,
			new(big.Int).SetBytes(m.Key[:]), new(big.Int).SetBytes(m.R[:]), m.Cert,
			issuer.Hash, &issuer.Public)
		if err != nil {
			return nil, err
		}
		return kp.Private, nil
	})
}

// rotatingSet reconstructs every slot of a butterfly batch. The batch is
// accepted only if every slot is valid. Slot indices must be unique and
// below cmhf.MaxSlots.
func (s *Store) rotatingSet(m *cmhf.RotatingSet) (*RotatingSet, error) {
	seed, err := ecc.ParsePrivateKey(m.Seed[:])
	if err != nil {
		return nil, serrors.JoinNoStack(dot2err.InvalidCMHF, err, "i", m.I)
	}
	set := &RotatingSet{I: m.I, Slots: make(map[uint32]*CMHEntry, len(m.Slots))}
	for _, slot := range m.Slots {
		if slot.J >= cmhf.MaxSlots {
			return nil, serrors.JoinNoStack(dot2err.InvalidCMHF, nil,
				"reason", "slot index out of range", "i", m.I, "j", slot.J,
				"max", cmhf.MaxSlots-1)
		}
		if _, ok := set.Slots[slot.J]; ok {
			return nil, serrors.JoinNoStack(dot2err.InvalidCMHF, nil,
				"reason", "duplicate slot index", "i", m.I, "j", slot.J)
		}
		c, err := s.dec.DecodeCertificate(slot.Cert)
		if err != nil {
			return nil, serrors.Wrap("decoding slot certificate", err, "i", m.I, "j", slot.J)
		}
		e, err := s.implicitEntry(c, func(issuer *SCCEntry) (*big.Int, error) {
			e := ecqv.HashInput(sha256.Sum256(c.TBSRaw), issuer.Hash)
			return butterfly.ReconstructPrivateKey(seed, m.ExpansionKey, m.I, slot.J,
				new(big.Int).SetBytes(slot.R[:]), e)
		})
		if err != nil {
			return nil, serrors.Wrap("reconstructing slot key", err, "i", m.I, "j", slot.J)
		}
		set.Slots[slot.J] = e
	}
	return set, nil
}

// RemoveSequentialCMH removes the sequential entry with the given HashedID8.
func (s *Store) RemoveSequentialCMH(ctx context.Context, h8 cert.HashedID8) (*CMHEntry,
	error) {

	s.mtx.Lock()
	defer s.mtx.Unlock()
	e, ok := s.Sequential.Remove(h8)
	if !ok {
		return nil, serrors.JoinNoStack(dot2err.InvalidParams, nil,
			"reason", "no such sequential CMH", "h8", h8)
	}
	s.resetTypeIfEmpty()
	log.FromCtx(ctx).Debug("Removed sequential CMH", "h8", h8)
	return e, nil
}

// RemoveRotatingCMHSet removes butterfly batch i. Removing the batch of the
// active slot leaves no slot active.
func (s *Store) RemoveRotatingCMHSet(ctx context.Context, i uint32) (*RotatingSet, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	set, ok := s.Rotating.RemoveSet(i)
	if !ok {
		return nil, serrors.JoinNoStack(dot2err.NoSuchCMHSlot, nil, "i", i)
	}
	s.resetTypeIfEmpty()
	log.FromCtx(ctx).Debug("Removed rotating CMH set", "i", i, "slots", len(set.Slots))
	return set, nil
}

// FlushCMH empties both CMH tables and unlocks the CMH type. It returns the
// source CMHFs of the removed material.
func (s *Store) FlushCMH(ctx context.Context) [][]byte {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	var sources [][]byte
	for _, e := range s.Sequential.Flush() {
		sources = append(sources, e.Source)
	}
	for _, set := range s.Rotating.Flush() {
		sources = append(sources, set.Source)
	}
	s.cmhType = cmhf.None
	log.FromCtx(ctx).Debug("Flushed CMH tables", "removed", len(sources))
	return sources
}

// resetTypeIfEmpty unlocks the CMH type once both tables are empty. The
// caller must hold s.mtx.
func (s *Store) resetTypeIfEmpty() {
	if s.Sequential.Len() == 0 && s.Rotating.Len() == 0 {
		s.cmhType = cmhf.None
	}
}

func (s *Store) checkType(t cmhf.Type) error {
	if s.cmhType != cmhf.None && s.cmhType != t {
		return serrors.JoinNoStack(dot2err.DifferentCMHType, nil,
			"have", s.cmhType, "got", t)
	}
	return nil
}

func explicitEntry(c *cert.Certificate, key [ecc.ScalarSize]byte) (*CMHEntry, error) {
	vk, ok := c.TBS.Key.(cert.VerificationKey)
	if !ok {
		return nil, serrors.JoinNoStack(dot2err.InvalidCMHF, nil,
			"reason", "explicit key material for implicit certificate")
	}
	priv, err := ecc.ParsePrivateKey(key[:])
	if err != nil {
		return nil, serrors.JoinNoStack(dot2err.InvalidCMHF, err)
	}
	if err := ecqv.VerifyKeyPair(priv, vk.Point); err != nil {
		return nil, err
	}
	e := &CMHEntry{Cert: c, Private: priv, Public: vk.Point, H8: c.H8()}
	e.IssuerH8, _ = c.IssuerID()
	return e, nil
}

// implicitEntry looks up the issuer of c, derives the private key with
// derive and checks it against the reconstructed public key.
func (s *Store) implicitEntry(c *cert.Certificate,
	derive func(issuer *SCCEntry) (*big.Int, error)) (*CMHEntry, error) {

	if _, ok := c.TBS.Key.(cert.ReconstructionValue); !ok {
		return nil, serrors.JoinNoStack(dot2err.InvalidCMHF, nil,
			"reason", "implicit key material for explicit certificate")
	}
	id, ok := c.IssuerID()
	if !ok {
		return nil, serrors.JoinNoStack(dot2err.InvalidCMHF, nil,
			"reason", "self-signed implicit certificate")
	}
	issuer, ok := s.SCC.Lookup(id)
	if !ok {
		return nil, serrors.JoinNoStack(dot2err.NoIssuerCertInSCCTable, nil, "issuer", id)
	}
	priv, err := derive(issuer)
	if err != nil {
		return nil, err
	}
	pub, err := VerifyIssued(c, issuer)
	if err != nil {
		return nil, err
	}
	if err := ecqv.VerifyKeyPair(priv, pub); err != nil {
		return nil, err
	}
	return &CMHEntry{Cert: c, Private: priv, Public: pub, H8: c.H8(), IssuerH8: id}, nil
}
