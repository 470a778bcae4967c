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

// Package cert contains the parsed representation of IEEE 1609.2
// certificates. Decoding and encoding live in package oer.
package cert

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/geo"
	"github.com/openv2x/dot2/pkg/tai"
)

const (
	// MaxRegions bounds the number of region entries in a certificate.
	MaxRegions = 8
	// MaxPermissions bounds the length of every permission list.
	MaxPermissions = 20
	// MaxPSID is the largest PSID value that can be p-encoded.
	MaxPSID = 0x1020407f
)

// HashedID8 is the low-order 8 bytes of the SHA-256 hash of a certificate.
type HashedID8 [8]byte

func (h HashedID8) String() string { return hex.EncodeToString(h[:]) }

// HashedID10 is the low-order 10 bytes of the SHA-256 hash of a
// certificate.
type HashedID10 [10]byte

func (h HashedID10) String() string { return hex.EncodeToString(h[:]) }

// HashedID3 is the low-order 3 bytes of a hash, used for CRACA ids.
type HashedID3 [3]byte

// Hash8 returns the HashedID8 of the given digest.
func Hash8(d [sha256.Size]byte) HashedID8 {
	var h HashedID8
	copy(h[:], d[sha256.Size-8:])
	return h
}

// Hash10 returns the HashedID10 of the given digest.
func Hash10(d [sha256.Size]byte) HashedID10 {
	var h HashedID10
	copy(h[:], d[sha256.Size-10:])
	return h
}

// Type distinguishes explicit from implicit certificates.
type Type uint8

const (
	Explicit Type = iota
	Implicit
)

func (t Type) String() string {
	if t == Implicit {
		return "implicit"
	}
	return "explicit"
}

// Issuer identifies who signed a certificate. The implementations are
// IssuerSelf and IssuerDigest.
type Issuer interface {
	issuer()
}

// IssuerSelf marks a self-signed certificate.
type IssuerSelf struct{}

func (IssuerSelf) issuer() {}

// IssuerDigest references the issuer by HashedID8.
type IssuerDigest struct {
	ID HashedID8
}

func (IssuerDigest) issuer() {}

// ID is the certificate identifier. The implementations are IDName,
// IDBinary and IDNone.
type ID interface {
	certID()
}

type IDName string

func (IDName) certID() {}

type IDBinary []byte

func (IDBinary) certID() {}

type IDNone struct{}

func (IDNone) certID() {}

// PsidSsp is an application permission. A nil SSP means no SSP is present.
type PsidSsp struct {
	PSID uint32
	SSP  []byte
}

// EEType flags the kind of end entity a group permission applies to.
type EEType uint8

const (
	EETypeApp        EEType = 0x80
	EETypeEnrollment EEType = 0x40
)

// PsidGroupPermissions is an issuing or requesting permission of a CA. A nil
// Subject means all PSIDs.
type PsidGroupPermissions struct {
	Subject          []PsidSsp
	MinChainLength   uint8
	ChainLengthRange int8
	EEType           EEType
}

// KeyIndicator carries the verification key material. The implementations
// are VerificationKey and ReconstructionValue.
type KeyIndicator interface {
	keyIndicator()
}

// VerificationKey is an explicit public key.
type VerificationKey struct {
	Point ecc.Point
}

func (VerificationKey) keyIndicator() {}

// ReconstructionValue is the ECQV public reconstruction value R.
type ReconstructionValue struct {
	Point ecc.Point
}

func (ReconstructionValue) keyIndicator() {}

// Signature is an ECDSA P-256 signature as carried on the wire.
type Signature struct {
	R ecc.EncodedPoint
	S [ecc.ScalarSize]byte
}

// ToBeSigned is the signed portion of a certificate.
type ToBeSigned struct {
	ID                     ID
	CRACAID                HashedID3
	CRLSeries              uint16
	ValidStart             tai.Time64
	ValidEnd               tai.Time64
	Region                 geo.Region
	AppPermissions         []PsidSsp
	CertIssuePermissions   []PsidGroupPermissions
	CertRequestPermissions []PsidGroupPermissions
	Key                    KeyIndicator
	EncryptionKey          *ecc.Point
}

// Decoder decodes encoded certificates. The decoder sets Raw and TBSRaw of
// the result.
type Decoder interface {
	DecodeCertificate(raw []byte) (*Certificate, error)
}

// Certificate is a decoded certificate. Raw and TBSRaw are set by the
// decoder and reference the encoded form.
type Certificate struct {
	Raw       []byte
	TBSRaw    []byte
	Type      Type
	Issuer    Issuer
	TBS       ToBeSigned
	Signature *Signature
}

// Digest returns the SHA-256 hash of the encoded certificate.
func (c *Certificate) Digest() [sha256.Size]byte {
	return sha256.Sum256(c.Raw)
}

// H8 returns the HashedID8 of the certificate.
func (c *Certificate) H8() HashedID8 {
	return Hash8(c.Digest())
}

// H10 returns the HashedID10 of the certificate.
func (c *Certificate) H10() HashedID10 {
	return Hash10(c.Digest())
}

// SelfSigned reports whether the certificate is its own issuer.
func (c *Certificate) SelfSigned() bool {
	_, ok := c.Issuer.(IssuerSelf)
	return ok
}

// IssuerID returns the issuer HashedID8. ok is false for self-signed
// certificates.
func (c *Certificate) IssuerID() (HashedID8, bool) {
	d, ok := c.Issuer.(IssuerDigest)
	return d.ID, ok
}

// Permits reports whether the certificate grants application permission for
// psid.
func (c *Certificate) Permits(psid uint32) bool {
	for _, p := range c.TBS.AppPermissions {
		if p.PSID == psid {
			return true
		}
	}
	return false
}

// SSP returns the SSP granted for psid.
func (c *Certificate) SSP(psid uint32) ([]byte, bool) {
	for _, p := range c.TBS.AppPermissions {
		if p.PSID == psid {
			return p.SSP, true
		}
	}
	return nil, false
}

// ValidAt reports whether t lies in [ValidStart, ValidEnd).
func (c *Certificate) ValidAt(t tai.Time64) bool {
	return t >= c.TBS.ValidStart && t < c.TBS.ValidEnd
}
