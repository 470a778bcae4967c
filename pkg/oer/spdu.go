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
	"github.com/openv2x/dot2/pkg/geo"
	"github.com/openv2x/dot2/pkg/spdu"
	"github.com/openv2x/dot2/pkg/tai"
)

const (
	// MinSPDUSize and MaxSPDUSize bound the size of an encoded SPDU.
	MinSPDUSize = 3
	MaxSPDUSize = 4096
)

// Content choice indices.
const (
	contentUnsecured = 0
	contentSigned    = 1
	contentEncrypted = 2
)

// HeaderInfo preamble bits.
const (
	hdrGenTime     = 0x80
	hdrExpiryTime  = 0x40
	hdrGenLocation = 0x20
)

// Signer choice indices.
const (
	signerDigest      = 0
	signerCertificate = 1
	signerSelf        = 2
)

const payloadData = 0x80

// DecodeSPDU decodes an Ieee1609Dot2Data. Size violations fail with
// InvalidSPDUSize, everything else with SPDU_DecodeSPDU. The protocol
// version is not checked.
func DecodeSPDU(raw []byte) (*spdu.Data, error) {
	if len(raw) < MinSPDUSize || len(raw) > MaxSPDUSize {
		return nil, serrors.JoinNoStack(dot2err.InvalidSPDUSize, nil, "size", len(raw),
			"min", MinSPDUSize, "max", MaxSPDUSize)
	}
	s := cryptobyte.String(raw)
	d, err := readData(&s, true)
	if err != nil {
		return nil, serrors.JoinNoStack(dot2err.SPDUDecodeSPDU, err)
	}
	if !s.Empty() {
		return nil, serrors.JoinNoStack(dot2err.SPDUDecodeSPDU, ErrTrailingData,
			"remaining", len(s))
	}
	return d, nil
}

// EncodeSPDU encodes d. Signed content must carry a signature. The TBSRaw
// field of signed content is ignored and re-encoded.
func EncodeSPDU(d *spdu.Data) ([]byte, error) {
	var b cryptobyte.Builder
	addData(&b, d)
	raw, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	if len(raw) > MaxSPDUSize {
		return nil, serrors.JoinNoStack(dot2err.InvalidSPDUSize, nil, "size", len(raw))
	}
	return raw, nil
}

// EncodeToBeSignedData encodes the input of the SPDU signature.
func EncodeToBeSignedData(tbs *spdu.ToBeSignedData) ([]byte, error) {
	var b cryptobyte.Builder
	addToBeSignedData(&b, tbs)
	return b.Bytes()
}

func addData(b *cryptobyte.Builder, d *spdu.Data) {
	b.AddUint8(d.ProtocolVersion)
	switch c := d.Content.(type) {
	case spdu.UnsecuredContent:
		b.AddUint8(choiceTag | contentUnsecured)
		addOctets(b, c.Payload)
	case *spdu.SignedData:
		b.AddUint8(choiceTag | contentSigned)
		addSignedData(b, c)
	case spdu.EncryptedContent:
		b.AddUint8(choiceTag | contentEncrypted)
		addOctets(b, c.Raw)
	default:
		b.SetError(serrors.New("unknown content type"))
	}
}

func readData(s *cryptobyte.String, outer bool) (*spdu.Data, error) {
	d := &spdu.Data{}
	if !s.ReadUint8(&d.ProtocolVersion) {
		return nil, ErrTruncated
	}
	choice, err := readChoice(s)
	if err != nil {
		return nil, err
	}
	switch choice {
	case contentUnsecured:
		var payload []byte
		if !readOctets(s, &payload) {
			return nil, ErrTruncated
		}
		d.Content = spdu.UnsecuredContent{Payload: payload}
	case contentSigned:
		if !outer {
			return nil, serrors.New("nested signed data")
		}
		sd, err := readSignedData(s)
		if err != nil {
			return nil, err
		}
		d.Content = sd
	case contentEncrypted:
		if !outer {
			return nil, serrors.New("nested encrypted data")
		}
		var raw []byte
		if !readOctets(s, &raw) {
			return nil, ErrTruncated
		}
		d.Content = spdu.EncryptedContent{Raw: raw}
	default:
		return nil, serrors.JoinNoStack(ErrUnsupportedChoice, nil, "content", choice)
	}
	return d, nil
}

func addSignedData(b *cryptobyte.Builder, sd *spdu.SignedData) {
	// sha256
	b.AddUint8(0)
	addToBeSignedData(b, &sd.TBS)
	switch v := sd.Signer.(type) {
	case spdu.SignerDigest:
		b.AddUint8(choiceTag | signerDigest)
		b.AddBytes(v.ID[:])
	case spdu.SignerCertificate:
		if v.Cert == nil || len(v.Cert.Raw) == 0 {
			b.SetError(serrors.New("signer certificate not encoded"))
			return
		}
		b.AddUint8(choiceTag | signerCertificate)
		addQuantity(b, 1)
		b.AddBytes(v.Cert.Raw)
	case spdu.SignerSelf:
		b.AddUint8(choiceTag | signerSelf)
	default:
		b.SetError(serrors.New("unknown signer type"))
		return
	}
	addSignature(b, &sd.Signature)
}

func readSignedData(s *cryptobyte.String) (*spdu.SignedData, error) {
	var alg uint8
	if !s.ReadUint8(&alg) {
		return nil, ErrTruncated
	}
	if alg != 0 {
		return nil, serrors.New("unsupported hash algorithm", "alg", alg)
	}
	sd := &spdu.SignedData{}
	tbsStart := *s
	if err := readToBeSignedData(s, &sd.TBS); err != nil {
		return nil, err
	}
	sd.TBSRaw = append([]byte(nil), tbsStart[:len(tbsStart)-len(*s)]...)
	choice, err := readChoice(s)
	if err != nil {
		return nil, err
	}
	switch choice {
	case signerDigest:
		var id cert.HashedID8
		if !s.CopyBytes(id[:]) {
			return nil, ErrTruncated
		}
		sd.Signer = spdu.SignerDigest{ID: id}
	case signerCertificate:
		n, err := readQuantity(s, 1)
		if err != nil {
			return nil, err
		}
		if n != 1 {
			return nil, serrors.New("signer certificate chain must hold one certificate")
		}
		c, err := readCertificate(s)
		if err != nil {
			return nil, serrors.Wrap("decoding signer certificate", err)
		}
		sd.Signer = spdu.SignerCertificate{Cert: c}
	case signerSelf:
		sd.Signer = spdu.SignerSelf{}
	default:
		return nil, serrors.JoinNoStack(ErrUnsupportedChoice, nil, "signer", choice)
	}
	if sd.Signature, err = readSignature(s); err != nil {
		return nil, err
	}
	return sd, nil
}

func addToBeSignedData(b *cryptobyte.Builder, tbs *spdu.ToBeSignedData) {
	if tbs.Header.PSID > cert.MaxPSID {
		b.SetError(serrors.New("psid out of range", "psid", tbs.Header.PSID))
		return
	}
	b.AddUint8(payloadData)
	addData(b, &spdu.Data{
		ProtocolVersion: spdu.ProtocolVersion,
		Content:         spdu.UnsecuredContent{Payload: tbs.Payload},
	})
	h := tbs.Header
	var preamble uint8
	if h.GenTime != nil {
		preamble |= hdrGenTime
	}
	if h.ExpiryTime != nil {
		preamble |= hdrExpiryTime
	}
	if h.GenLocation != nil {
		preamble |= hdrGenLocation
	}
	b.AddUint8(preamble)
	addUint(b, uint64(h.PSID))
	if h.GenTime != nil {
		b.AddUint64(uint64(*h.GenTime))
	}
	if h.ExpiryTime != nil {
		b.AddUint64(uint64(*h.ExpiryTime))
	}
	if h.GenLocation != nil {
		addLocation(b, h.GenLocation.Location)
		b.AddUint16(h.GenLocation.Elevation)
	}
}

func readToBeSignedData(s *cryptobyte.String, tbs *spdu.ToBeSignedData) error {
	var preamble uint8
	if !s.ReadUint8(&preamble) {
		return ErrTruncated
	}
	if preamble != payloadData {
		return serrors.New("unsupported signed data payload", "preamble", preamble)
	}
	inner, err := readData(s, false)
	if err != nil {
		return serrors.Wrap("decoding payload", err)
	}
	tbs.Payload = inner.Content.(spdu.UnsecuredContent).Payload

	if !s.ReadUint8(&preamble) {
		return ErrTruncated
	}
	var psid uint64
	if !readUint(s, &psid) {
		return ErrTruncated
	}
	if psid > cert.MaxPSID {
		return serrors.New("psid out of range", "psid", psid)
	}
	tbs.Header.PSID = uint32(psid)
	if preamble&hdrGenTime != 0 {
		var v uint64
		if !s.ReadUint64(&v) {
			return ErrTruncated
		}
		t := tai.Time64(v)
		tbs.Header.GenTime = &t
	}
	if preamble&hdrExpiryTime != 0 {
		var v uint64
		if !s.ReadUint64(&v) {
			return ErrTruncated
		}
		t := tai.Time64(v)
		tbs.Header.ExpiryTime = &t
	}
	if preamble&hdrGenLocation != 0 {
		var l geo.Location3D
		if !readLocation(s, &l.Location) || !s.ReadUint16(&l.Elevation) {
			return ErrTruncated
		}
		tbs.Header.GenLocation = &l
	}
	return nil
}
