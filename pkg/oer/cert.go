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

package oer

import (
	"golang.org/x/crypto/cryptobyte"

	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/geo"
	"github.com/openv2x/dot2/pkg/tai"
)

const (
	// CertVersion is the certificate format version.
	CertVersion = 3
	// MinCertSize and MaxCertSize bound the size of an encoded certificate.
	MinCertSize = 48
	MaxCertSize = 1024
)

// Certificate preamble bits.
const (
	certSignaturePresent = 0x80
)

// ToBeSignedCertificate preamble bits.
const (
	tbsRegion       = 0x80
	tbsAppPerms     = 0x40
	tbsIssuePerms   = 0x20
	tbsRequestPerms = 0x10
	tbsEncKey       = 0x08
)

// Choice indices.
const (
	issuerDigest = 0
	issuerSelf   = 1

	idName   = 1
	idBinary = 2
	idNone   = 3

	regionCircle     = 0
	regionRectangles = 1
	regionPolygon    = 2
	regionIdentified = 3

	keyVerification   = 0
	keyReconstruction = 1

	subjectExplicit = 0
	subjectAll      = 1
)

// DecodeCertificate decodes a complete certificate. Size violations fail
// with InvalidCertSize, everything else with ASN1_DecodeCertificate.
func DecodeCertificate(raw []byte) (*cert.Certificate, error) {
	if len(raw) < MinCertSize || len(raw) > MaxCertSize {
		return nil, serrors.JoinNoStack(dot2err.InvalidCertSize, nil, "size", len(raw),
			"min", MinCertSize, "max", MaxCertSize)
	}
	s := cryptobyte.String(raw)
	c, err := readCertificate(&s)
	if err != nil {
		return nil, serrors.JoinNoStack(dot2err.ASN1DecodeCertificate, err)
	}
	if !s.Empty() {
		return nil, serrors.JoinNoStack(dot2err.ASN1DecodeCertificate, ErrTrailingData,
			"remaining", len(s))
	}
	return c, nil
}

// EncodeToBeSignedCertificate encodes the signed portion of a certificate.
func EncodeToBeSignedCertificate(tbs *cert.ToBeSigned) ([]byte, error) {
	var b cryptobyte.Builder
	addToBeSigned(&b, tbs)
	return b.Bytes()
}

// EncodeCertificate encodes c and sets c.Raw and c.TBSRaw.
func EncodeCertificate(c *cert.Certificate) ([]byte, error) {
	tbs, err := EncodeToBeSignedCertificate(&c.TBS)
	if err != nil {
		return nil, serrors.Wrap("encoding tbs certificate", err)
	}
	if err := checkSignaturePresence(c.Type, c.Signature != nil); err != nil {
		return nil, err
	}
	var b cryptobyte.Builder
	var preamble uint8
	if c.Signature != nil {
		preamble |= certSignaturePresent
	}
	b.AddUint8(preamble)
	b.AddUint8(CertVersion)
	b.AddUint8(uint8(c.Type))
	switch v := c.Issuer.(type) {
	case cert.IssuerDigest:
		b.AddUint8(choiceTag | issuerDigest)
		b.AddBytes(v.ID[:])
	case cert.IssuerSelf:
		b.AddUint8(choiceTag | issuerSelf)
		// sha256
		b.AddUint8(0)
	default:
		return nil, serrors.New("unknown issuer type")
	}
	b.AddBytes(tbs)
	if c.Signature != nil {
		addSignature(&b, c.Signature)
	}
	raw, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	if len(raw) > MaxCertSize {
		return nil, serrors.JoinNoStack(dot2err.InvalidCertSize, nil, "size", len(raw))
	}
	c.Raw, c.TBSRaw = raw, tbs
	return raw, nil
}

func checkSignaturePresence(t cert.Type, present bool) error {
	switch {
	case t == cert.Explicit && !present:
		return serrors.New("explicit certificate without signature")
	case t == cert.Implicit && present:
		return serrors.New("implicit certificate with signature")
	case t != cert.Explicit && t != cert.Implicit:
		return serrors.New("unknown certificate type", "type", t)
	}
	return nil
}

func readCertificate(s *cryptobyte.String) (*cert.Certificate, error) {
	start := *s
	var preamble, version, typ uint8
	if !s.ReadUint8(&preamble) || !s.ReadUint8(&version) || !s.ReadUint8(&typ) {
		return nil, ErrTruncated
	}
	if version != CertVersion {
		return nil, serrors.New("unsupported certificate version", "version", version)
	}
	c := &cert.Certificate{Type: cert.Type(typ)}
	if err := checkSignaturePresence(c.Type, preamble&certSignaturePresent != 0); err != nil {
		return nil, err
	}
	choice, err := readChoice(s)
	if err != nil {
		return nil, err
	}
	switch choice {
	case issuerDigest:
		var id cert.HashedID8
		if !s.CopyBytes(id[:]) {
			return nil, ErrTruncated
		}
		c.Issuer = cert.IssuerDigest{ID: id}
	case issuerSelf:
		var alg uint8
		if !s.ReadUint8(&alg) {
			return nil, ErrTruncated
		}
		if alg != 0 {
			return nil, serrors.New("unsupported hash algorithm", "alg", alg)
		}
		c.Issuer = cert.IssuerSelf{}
	default:
		return nil, serrors.JoinNoStack(ErrUnsupportedChoice, nil, "issuer", choice)
	}
	tbsStart := *s
	if err := readToBeSigned(s, &c.TBS); err != nil {
		return nil, serrors.Wrap("decoding tbs certificate", err)
	}
	c.TBSRaw = append([]byte(nil), tbsStart[:len(tbsStart)-len(*s)]...)
	if preamble&certSignaturePresent != 0 {
		sig, err := readSignature(s)
		if err != nil {
			return nil, serrors.Wrap("decoding signature", err)
		}
		c.Signature = &sig
	}
	c.Raw = append([]byte(nil), start[:len(start)-len(*s)]...)
	return c, nil
}

func addToBeSigned(b *cryptobyte.Builder, tbs *cert.ToBeSigned) {
	if tbs.ValidStart >= tbs.ValidEnd {
		b.SetError(serrors.New("validity start not before end",
			"start", tbs.ValidStart, "end", tbs.ValidEnd))
		return
	}
	if n := geo.Len(tbs.Region); n > cert.MaxRegions {
		b.SetError(serrors.JoinNoStack(ErrLimitExceeded, nil, "regions", n))
		return
	}
	var preamble uint8
	if tbs.Region != nil {
		preamble |= tbsRegion
	}
	if len(tbs.AppPermissions) > 0 {
		preamble |= tbsAppPerms
	}
	if len(tbs.CertIssuePermissions) > 0 {
		preamble |= tbsIssuePerms
	}
	if len(tbs.CertRequestPermissions) > 0 {
		preamble |= tbsRequestPerms
	}
	if tbs.EncryptionKey != nil {
		preamble |= tbsEncKey
	}
	b.AddUint8(preamble)

	switch id := tbs.ID.(type) {
	case cert.IDName:
		b.AddUint8(choiceTag | idName)
		addOctets(b, []byte(id))
	case cert.IDBinary:
		b.AddUint8(choiceTag | idBinary)
		addOctets(b, id)
	case cert.IDNone, nil:
		b.AddUint8(choiceTag | idNone)
	}
	b.AddBytes(tbs.CRACAID[:])
	b.AddUint16(tbs.CRLSeries)
	b.AddUint64(uint64(tbs.ValidStart))
	b.AddUint64(uint64(tbs.ValidEnd))
	if tbs.Region != nil {
		addRegion(b, tbs.Region)
	}
	if len(tbs.AppPermissions) > 0 {
		addPsidSsps(b, tbs.AppPermissions)
	}
	if len(tbs.CertIssuePermissions) > 0 {
		addGroupPermissions(b, tbs.CertIssuePermissions)
	}
	if len(tbs.CertRequestPermissions) > 0 {
		addGroupPermissions(b, tbs.CertRequestPermissions)
	}
	switch k := tbs.Key.(type) {
	case cert.VerificationKey:
		b.AddUint8(choiceTag | keyVerification)
		// ecdsaNistP256
		b.AddUint8(choiceTag)
		addPoint(b, ecc.Encode(k.Point, ecc.CompressedY0))
	case cert.ReconstructionValue:
		b.AddUint8(choiceTag | keyReconstruction)
		addPoint(b, ecc.Encode(k.Point, ecc.CompressedY0))
	default:
		b.SetError(serrors.New("missing verification key indicator"))
		return
	}
	if tbs.EncryptionKey != nil {
		// aes128Ccm, eciesNistP256
		b.AddUint8(0)
		b.AddUint8(choiceTag)
		addPoint(b, ecc.Encode(*tbs.EncryptionKey, ecc.CompressedY0))
	}
}

func readToBeSigned(s *cryptobyte.String, tbs *cert.ToBeSigned) error {
	var preamble uint8
	if !s.ReadUint8(&preamble) {
		return ErrTruncated
	}
	choice, err := readChoice(s)
	if err != nil {
		return err
	}
	switch choice {
	case idName:
		var name []byte
		if !readOctets(s, &name) {
			return ErrTruncated
		}
		tbs.ID = cert.IDName(name)
	case idBinary:
		var id []byte
		if !readOctets(s, &id) {
			return ErrTruncated
		}
		tbs.ID = cert.IDBinary(id)
	case idNone:
		tbs.ID = cert.IDNone{}
	default:
		return serrors.JoinNoStack(ErrUnsupportedChoice, nil, "id", choice)
	}
	var start, end uint64
	if !s.CopyBytes(tbs.CRACAID[:]) || !s.ReadUint16(&tbs.CRLSeries) ||
		!s.ReadUint64(&start) || !s.ReadUint64(&end) {
		return ErrTruncated
	}
	tbs.ValidStart, tbs.ValidEnd = tai.Time64(start), tai.Time64(end)
	if tbs.ValidStart >= tbs.ValidEnd {
		return serrors.New("validity start not before end", "start", start, "end", end)
	}
	if preamble&tbsRegion != 0 {
		if tbs.Region, err = readRegion(s); err != nil {
			return serrors.Wrap("decoding region", err)
		}
	}
	if preamble&tbsAppPerms != 0 {
		if tbs.AppPermissions, err = readPsidSsps(s); err != nil {
			return serrors.Wrap("decoding app permissions", err)
		}
	}
	if preamble&tbsIssuePerms != 0 {
		if tbs.CertIssuePermissions, err = readGroupPermissions(s); err != nil {
			return serrors.Wrap("decoding issue permissions", err)
		}
	}
	if preamble&tbsRequestPerms != 0 {
		if tbs.CertRequestPermissions, err = readGroupPermissions(s); err != nil {
			return serrors.Wrap("decoding request permissions", err)
		}
	}
	if choice, err = readChoice(s); err != nil {
		return err
	}
	switch choice {
	case keyVerification:
		alg, err := readChoice(s)
		if err != nil {
			return err
		}
		if alg != 0 {
			return serrors.JoinNoStack(ErrUnsupportedChoice, nil, "verification key", alg)
		}
		p, err := readKeyPoint(s)
		if err != nil {
			return err
		}
		tbs.Key = cert.VerificationKey{Point: p}
	case keyReconstruction:
		p, err := readKeyPoint(s)
		if err != nil {
			return err
		}
		tbs.Key = cert.ReconstructionValue{Point: p}
	default:
		return serrors.JoinNoStack(ErrUnsupportedChoice, nil, "key indicator", choice)
	}
	if preamble&tbsEncKey != 0 {
		var symm uint8
		if !s.ReadUint8(&symm) {
			return ErrTruncated
		}
		if alg, err := readChoice(s); err != nil || alg != 0 {
			return serrors.JoinNoStack(ErrUnsupportedChoice, err, "encryption key", alg)
		}
		p, err := readKeyPoint(s)
		if err != nil {
			return err
		}
		tbs.EncryptionKey = &p
	}
	return nil
}

func addLocation(b *cryptobyte.Builder, l geo.Location) {
	b.AddUint32(uint32(l.Lat))
	b.AddUint32(uint32(l.Lon))
}

func readLocation(s *cryptobyte.String, l *geo.Location) bool {
	var lat, lon uint32
	if !s.ReadUint32(&lat) || !s.ReadUint32(&lon) {
		return false
	}
	l.Lat, l.Lon = int32(lat), int32(lon)
	return true
}

func addRegion(b *cryptobyte.Builder, r geo.Region) {
	switch v := r.(type) {
	case geo.Circle:
		b.AddUint8(choiceTag | regionCircle)
		addLocation(b, v.Center)
		b.AddUint16(v.Radius)
	case geo.Rectangles:
		b.AddUint8(choiceTag | regionRectangles)
		addQuantity(b, len(v))
		for _, rect := range v {
			addLocation(b, rect.NorthWest)
			addLocation(b, rect.SouthEast)
		}
	case geo.Identified:
		b.AddUint8(choiceTag | regionIdentified)
		addQuantity(b, len(v))
		for _, country := range v {
			// countryOnly
			b.AddUint8(choiceTag)
			b.AddUint16(country)
		}
	default:
		b.SetError(serrors.New("unknown region type"))
	}
}

func readRegion(s *cryptobyte.String) (geo.Region, error) {
	choice, err := readChoice(s)
	if err != nil {
		return nil, err
	}
	switch choice {
	case regionCircle:
		var c geo.Circle
		if !readLocation(s, &c.Center) || !s.ReadUint16(&c.Radius) {
			return nil, ErrTruncated
		}
		return c, nil
	case regionRectangles:
		n, err := readQuantity(s, cert.MaxRegions)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, serrors.New("empty rectangle list")
		}
		rs := make(geo.Rectangles, n)
		for i := range rs {
			if !readLocation(s, &rs[i].NorthWest) || !readLocation(s, &rs[i].SouthEast) {
				return nil, ErrTruncated
			}
		}
		return rs, nil
	case regionIdentified:
		n, err := readQuantity(s, cert.MaxRegions)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, serrors.New("empty identified region list")
		}
		id := make(geo.Identified, n)
		for i := range id {
			c, err := readChoice(s)
			if err != nil {
				return nil, err
			}
			if c != 0 {
				return nil, serrors.JoinNoStack(ErrUnsupportedChoice, nil, "identified", c)
			}
			if !s.ReadUint16(&id[i]) {
				return nil, ErrTruncated
			}
		}
		return id, nil
	case regionPolygon:
		return nil, serrors.JoinNoStack(ErrUnsupportedChoice, nil, "region", "polygonal")
	default:
		return nil, serrors.JoinNoStack(ErrUnsupportedChoice, nil, "region", choice)
	}
}

func addPsidSsps(b *cryptobyte.Builder, perms []cert.PsidSsp) {
	if len(perms) > cert.MaxPermissions {
		b.SetError(serrors.JoinNoStack(ErrLimitExceeded, nil, "permissions", len(perms)))
		return
	}
	addQuantity(b, len(perms))
	for _, p := range perms {
		if p.SSP != nil {
			b.AddUint8(0x80)
		} else {
			b.AddUint8(0)
		}
		addUint(b, uint64(p.PSID))
		if p.SSP != nil {
			// opaque
			b.AddUint8(choiceTag)
			addOctets(b, p.SSP)
		}
	}
}

func readPsidSsps(s *cryptobyte.String) ([]cert.PsidSsp, error) {
	n, err := readQuantity(s, cert.MaxPermissions)
	if err != nil {
		return nil, err
	}
	perms := make([]cert.PsidSsp, n)
	for i := range perms {
		var preamble uint8
		var psid uint64
		if !s.ReadUint8(&preamble) || !readUint(s, &psid) {
			return nil, ErrTruncated
		}
		if psid > cert.MaxPSID {
			return nil, serrors.New("psid out of range", "psid", psid)
		}
		perms[i].PSID = uint32(psid)
		if preamble&0x80 != 0 {
			if c, err := readChoice(s); err != nil || c != 0 {
				return nil, serrors.JoinNoStack(ErrUnsupportedChoice, err, "ssp", c)
			}
			var ssp []byte
			if !readOctets(s, &ssp) {
				return nil, ErrTruncated
			}
			perms[i].SSP = ssp
		}
	}
	return perms, nil
}

func addGroupPermissions(b *cryptobyte.Builder, groups []cert.PsidGroupPermissions) {
	if len(groups) > cert.MaxPermissions {
		b.SetError(serrors.JoinNoStack(ErrLimitExceeded, nil, "groups", len(groups)))
		return
	}
	addQuantity(b, len(groups))
	for _, g := range groups {
		if g.Subject == nil {
			b.AddUint8(choiceTag | subjectAll)
		} else {
			b.AddUint8(choiceTag | subjectExplicit)
			addPsidSsps(b, g.Subject)
		}
		b.AddUint8(g.MinChainLength)
		b.AddUint8(uint8(g.ChainLengthRange))
		b.AddUint8(uint8(g.EEType))
	}
}

func readGroupPermissions(s *cryptobyte.String) ([]cert.PsidGroupPermissions, error) {
	n, err := readQuantity(s, cert.MaxPermissions)
	if err != nil {
		return nil, err
	}
	groups := make([]cert.PsidGroupPermissions, n)
	for i := range groups {
		choice, err := readChoice(s)
		if err != nil {
			return nil, err
		}
		switch choice {
		case subjectExplicit:
			if groups[i].Subject, err = readPsidSsps(s); err != nil {
				return nil, err
			}
		case subjectAll:
		default:
			return nil, serrors.JoinNoStack(ErrUnsupportedChoice, nil, "subject", choice)
		}
		var minChain, chainRange, eeType uint8
		if !s.ReadUint8(&minChain) || !s.ReadUint8(&chainRange) || !s.ReadUint8(&eeType) {
			return nil, ErrTruncated
		}
		groups[i].MinChainLength = minChain
		groups[i].ChainLengthRange = int8(chainRange)
		groups[i].EEType = cert.EEType(eeType)
	}
	return groups, nil
}

func addSignature(b *cryptobyte.Builder, sig *cert.Signature) {
	// ecdsaNistP256Signature
	b.AddUint8(choiceTag)
	addPoint(b, sig.R)
	b.AddBytes(sig.S[:])
}

func readSignature(s *cryptobyte.String) (cert.Signature, error) {
	var sig cert.Signature
	c, err := readChoice(s)
	if err != nil {
		return sig, err
	}
	if c != 0 {
		return sig, serrors.JoinNoStack(ErrUnsupportedChoice, nil, "signature", c)
	}
	if sig.R, err = readPoint(s); err != nil {
		return sig, err
	}
	if sig.R.Form == ecc.Uncompressed {
		return sig, serrors.New("uncompressed signature point")
	}
	if !s.CopyBytes(sig.S[:]) {
		return sig, ErrTruncated
	}
	return sig, nil
}
