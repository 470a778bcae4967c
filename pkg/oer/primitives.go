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

// Package oer implements the canonical octet encoding of certificates and
// SPDUs used by this library. The layout borrows its conventions from the
// IEEE 1609.2 ASN.1 structures: optional fields are announced by a preamble
// octet, choices by a context tag octet and variable length fields by an OER
// length determinant.
//
// The encoding is private to this library and is not interoperable with
// IEEE 1609.2 COER. In particular a certificate validity is carried as two
// 64-bit TAI microsecond timestamps (start and end) instead of a Time32 start
// and a Duration. Deployments that exchange certificates with other 1609.2
// stacks plug in their own codec through cert.Decoder and the engine Codec.
package oer

import (
	"golang.org/x/crypto/cryptobyte"

	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/ecc"
)

var (
	// ErrTruncated indicates that the input ended prematurely.
	ErrTruncated = serrors.New("truncated input")
	// ErrTrailingData indicates bytes after the top-level structure.
	ErrTrailingData = serrors.New("trailing data")
	// ErrUnsupportedChoice indicates an unknown or unsupported choice tag.
	ErrUnsupportedChoice = serrors.New("unsupported choice")
	// ErrLimitExceeded indicates a list longer than the permitted maximum.
	ErrLimitExceeded = serrors.New("list limit exceeded")
)

const choiceTag = 0x80

func addLength(b *cryptobyte.Builder, n int) {
	if n < 0x80 {
		b.AddUint8(uint8(n))
		return
	}
	var tmp []byte
	for v := n; v > 0; v >>= 8 {
		tmp = append([]byte{byte(v)}, tmp...)
	}
	b.AddUint8(0x80 | uint8(len(tmp)))
	b.AddBytes(tmp)
}

func readLength(s *cryptobyte.String, n *int) bool {
	var first uint8
	if !s.ReadUint8(&first) {
		return false
	}
	if first < 0x80 {
		*n = int(first)
		return true
	}
	l := int(first & 0x7f)
	if l == 0 || l > 3 {
		return false
	}
	var raw []byte
	if !s.ReadBytes(&raw, l) {
		return false
	}
	v := 0
	for _, c := range raw {
		v = v<<8 | int(c)
	}
	*n = v
	return true
}

func addOctets(b *cryptobyte.Builder, data []byte) {
	addLength(b, len(data))
	b.AddBytes(data)
}

func readOctets(s *cryptobyte.String, out *[]byte) bool {
	var n int
	if !readLength(s, &n) {
		return false
	}
	var raw []byte
	if !s.ReadBytes(&raw, n) {
		return false
	}
	*out = append([]byte{}, raw...)
	return true
}

// addUint writes an unconstrained non-negative integer.
func addUint(b *cryptobyte.Builder, v uint64) {
	var tmp []byte
	for ; v > 0; v >>= 8 {
		tmp = append([]byte{byte(v)}, tmp...)
	}
	if len(tmp) == 0 {
		tmp = []byte{0}
	}
	addOctets(b, tmp)
}

func readUint(s *cryptobyte.String, out *uint64) bool {
	var raw []byte
	if !readOctets(s, &raw) || len(raw) == 0 || len(raw) > 8 {
		return false
	}
	var v uint64
	for _, c := range raw {
		v = v<<8 | uint64(c)
	}
	*out = v
	return true
}

// addQuantity writes the element count of a SEQUENCE OF.
func addQuantity(b *cryptobyte.Builder, n int) {
	addUint(b, uint64(n))
}

func readQuantity(s *cryptobyte.String, max int) (int, error) {
	var n uint64
	if !readUint(s, &n) {
		return 0, ErrTruncated
	}
	if n > uint64(max) {
		return 0, serrors.JoinNoStack(ErrLimitExceeded, nil, "count", n, "max", max)
	}
	return int(n), nil
}

func readChoice(s *cryptobyte.String) (uint8, error) {
	var tag uint8
	if !s.ReadUint8(&tag) {
		return 0, ErrTruncated
	}
	if tag&0xc0 != choiceTag {
		return 0, serrors.JoinNoStack(ErrUnsupportedChoice, nil, "tag", tag)
	}
	return tag & 0x3f, nil
}

// EccP256CurvePoint choice indices.
const (
	pointXOnly = iota
	pointFill
	pointCompressedY0
	pointCompressedY1
	pointUncompressed
)

func addPoint(b *cryptobyte.Builder, p ecc.EncodedPoint) {
	switch p.Form {
	case ecc.XOnly:
		b.AddUint8(choiceTag | pointXOnly)
		b.AddBytes(p.X[:])
	case ecc.CompressedY0:
		b.AddUint8(choiceTag | pointCompressedY0)
		b.AddBytes(p.X[:])
	case ecc.CompressedY1:
		b.AddUint8(choiceTag | pointCompressedY1)
		b.AddBytes(p.X[:])
	case ecc.Uncompressed:
		b.AddUint8(choiceTag | pointUncompressed)
		b.AddBytes(p.X[:])
		b.AddBytes(p.Y[:])
	default:
		b.SetError(serrors.New("unknown point form", "form", p.Form))
	}
}

func readPoint(s *cryptobyte.String) (ecc.EncodedPoint, error) {
	var p ecc.EncodedPoint
	c, err := readChoice(s)
	if err != nil {
		return p, err
	}
	switch c {
	case pointXOnly:
		p.Form = ecc.XOnly
	case pointCompressedY0:
		p.Form = ecc.CompressedY0
	case pointCompressedY1:
		p.Form = ecc.CompressedY1
	case pointUncompressed:
		p.Form = ecc.Uncompressed
	default:
		return p, serrors.JoinNoStack(ErrUnsupportedChoice, nil, "point", c)
	}
	if !s.CopyBytes(p.X[:]) {
		return p, ErrTruncated
	}
	if p.Form == ecc.Uncompressed && !s.CopyBytes(p.Y[:]) {
		return p, ErrTruncated
	}
	return p, nil
}

// readKeyPoint reads a point that must decode to a curve point.
func readKeyPoint(s *cryptobyte.String) (ecc.Point, error) {
	enc, err := readPoint(s)
	if err != nil {
		return ecc.Point{}, err
	}
	return enc.Point()
}
