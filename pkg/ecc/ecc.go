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

// Package ecc adapts the P-256 group of github.com/cloudflare/circl to the
// operations needed by key reconstruction and signing: scalar arithmetic
// modulo the group order, point addition, scalar multiplication and point
// (de)compression.
//
// Scalars are represented as *big.Int values reduced modulo N. Points are
// immutable values; every operation returns a fresh point.
package ecc

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"math/big"

	"github.com/cloudflare/circl/group"
	"github.com/scionproto/scion/pkg/private/serrors"
)

const (
	// ScalarSize is the size of an encoded scalar or coordinate in bytes.
	ScalarSize = 32
	// CompressedSize is the size of a compressed SEC1 point.
	CompressedSize = 1 + ScalarSize
	// UncompressedSize is the size of an uncompressed SEC1 point.
	UncompressedSize = 1 + 2*ScalarSize
)

var (
	// ErrInvalidPoint indicates that bytes do not encode a point on the curve.
	ErrInvalidPoint = serrors.New("invalid curve point")
	// ErrIdentity indicates that an operation produced or received the point
	// at infinity where a proper point is required.
	ErrIdentity = serrors.New("point at infinity")
	// ErrZeroScalar indicates that a scalar is zero modulo N.
	ErrZeroScalar = serrors.New("zero scalar")
)

var (
	curve = group.P256
	// N is the order of the P-256 base point.
	N, _ = new(big.Int).SetString(
		"ffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551", 16)
)

// Point is a point on P-256.
type Point struct {
	e group.Element
}

// Generator returns the base point G.
func Generator() Point {
	return Point{e: curve.Generator()}
}

// BaseMul returns k·G.
func BaseMul(k *big.Int) Point {
	return Point{e: curve.NewElement().MulGen(toScalar(k))}
}

// ParsePoint decodes a compressed or uncompressed SEC1 point.
func ParsePoint(b []byte) (Point, error) {
	if len(b) != CompressedSize && len(b) != UncompressedSize {
		return Point{}, serrors.JoinNoStack(ErrInvalidPoint, nil, "len", len(b))
	}
	e := curve.NewElement()
	if err := e.UnmarshalBinary(b); err != nil {
		return Point{}, serrors.JoinNoStack(ErrInvalidPoint, err)
	}
	return Point{e: e}, nil
}

// PointFromX recovers the point with the given x coordinate and y parity.
func PointFromX(x []byte, yOdd bool) (Point, error) {
	if len(x) != ScalarSize {
		return Point{}, serrors.JoinNoStack(ErrInvalidPoint, nil, "len", len(x))
	}
	b := make([]byte, CompressedSize)
	b[0] = 0x02
	if yOdd {
		b[0] = 0x03
	}
	copy(b[1:], x)
	return ParsePoint(b)
}

// IsZero reports whether p is the zero value or the point at infinity.
func (p Point) IsZero() bool {
	return p.e == nil || p.e.IsIdentity()
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{e: curve.NewElement().Add(p.elem(), q.elem())}
}

// Mul returns k·p.
func (p Point) Mul(k *big.Int) Point {
	return Point{e: curve.NewElement().Mul(p.elem(), toScalar(k))}
}

// Equal reports whether p and q are the same point.
func (p Point) Equal(q Point) bool {
	return p.elem().IsEqual(q.elem())
}

// Bytes returns the uncompressed SEC1 encoding, or a single zero byte for the
// point at infinity.
func (p Point) Bytes() []byte {
	b, _ := p.elem().Copy().MarshalBinary()
	return b
}

// Compressed returns the compressed SEC1 encoding.
func (p Point) Compressed() []byte {
	b, _ := p.elem().Copy().MarshalBinaryCompress()
	return b
}

// X returns the x coordinate as a 32 byte big-endian value.
func (p Point) X() [ScalarSize]byte {
	var x [ScalarSize]byte
	if b := p.Bytes(); len(b) == UncompressedSize {
		copy(x[:], b[1:1+ScalarSize])
	}
	return x
}

// YOdd reports whether the y coordinate is odd.
func (p Point) YOdd() bool {
	b := p.Bytes()
	return len(b) == UncompressedSize && b[UncompressedSize-1]&1 == 1
}

func (p Point) String() string {
	return "0x" + hex.EncodeToString(p.Compressed())
}

func (p Point) elem() group.Element {
	if p.e == nil {
		return curve.Identity()
	}
	return p.e
}

func toScalar(k *big.Int) group.Scalar {
	return curve.NewScalar().SetBigInt(k)
}

// Mod returns k mod N as a new value.
func Mod(k *big.Int) *big.Int {
	return new(big.Int).Mod(k, N)
}

// ScalarFromBytes interprets b as a big-endian integer reduced modulo N.
func ScalarFromBytes(b []byte) *big.Int {
	return Mod(new(big.Int).SetBytes(b))
}

// ScalarBytes encodes k mod N as 32 big-endian bytes.
func ScalarBytes(k *big.Int) [ScalarSize]byte {
	var b [ScalarSize]byte
	Mod(k).FillBytes(b[:])
	return b
}

// ParsePrivateKey decodes a 32 byte private scalar. It fails for zero or for
// values not below N.
func ParsePrivateKey(b []byte) (*big.Int, error) {
	if len(b) != ScalarSize {
		return nil, serrors.New("invalid private key length", "len", len(b))
	}
	k := new(big.Int).SetBytes(b)
	if k.Sign() == 0 {
		return nil, ErrZeroScalar
	}
	if k.Cmp(N) >= 0 {
		return nil, serrors.New("private key out of range")
	}
	return k, nil
}

// ModInverse returns k⁻¹ mod N.
func ModInverse(k *big.Int) (*big.Int, error) {
	m := Mod(k)
	if m.Sign() == 0 {
		return nil, ErrZeroScalar
	}
	return new(big.Int).ModInverse(m, N), nil
}

// RandomScalar draws a uniformly random non-zero scalar from rand.
func RandomScalar(rand io.Reader) (*big.Int, error) {
	// Rejection sampling over 32 byte candidates.
	buf := make([]byte, ScalarSize)
	for i := 0; i < 64; i++ {
		if _, err := io.ReadFull(rand, buf); err != nil {
			return nil, serrors.Wrap("reading entropy", err)
		}
		k := new(big.Int).SetBytes(buf)
		if k.Sign() != 0 && k.Cmp(N) < 0 {
			return k, nil
		}
	}
	return nil, serrors.New("entropy source does not produce usable scalars")
}

// SHA256 returns the SHA-256 digest of the concatenation of parts.
func SHA256(parts ...[]byte) [sha256.Size]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var d [sha256.Size]byte
	h.Sum(d[:0])
	return d
}

// HashToScalar interprets a digest as a big-endian integer modulo N.
func HashToScalar(d []byte) *big.Int {
	return ScalarFromBytes(d)
}
