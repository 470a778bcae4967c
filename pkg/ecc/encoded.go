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

package ecc

import (
	"github.com/scionproto/scion/pkg/private/serrors"
)

// PointForm is the wire representation of a P-256 point.
type PointForm uint8

const (
	XOnly PointForm = iota
	CompressedY0
	CompressedY1
	Uncompressed
)

func (f PointForm) String() string {
	switch f {
	case XOnly:
		return "x-only"
	case CompressedY0:
		return "compressed-y-0"
	case CompressedY1:
		return "compressed-y-1"
	case Uncompressed:
		return "uncompressed"
	default:
		return "unknown"
	}
}

// EncodedPoint is a P-256 point as carried in certificates and signatures.
// Y is only meaningful for the Uncompressed form.
type EncodedPoint struct {
	Form PointForm
	X    [ScalarSize]byte
	Y    [ScalarSize]byte
}

// Encode returns p in the requested form. Requesting any compressed form
// selects the correct parity automatically.
func Encode(p Point, form PointForm) EncodedPoint {
	enc := EncodedPoint{X: p.X()}
	switch form {
	case XOnly:
		enc.Form = XOnly
	case Uncompressed:
		enc.Form = Uncompressed
		b := p.Bytes()
		if len(b) == UncompressedSize {
			copy(enc.Y[:], b[1+ScalarSize:])
		}
	default:
		enc.Form = CompressedY0
		if p.YOdd() {
			enc.Form = CompressedY1
		}
	}
	return enc
}

// Point decodes the point. The x-only form does not identify a unique point
// and fails.
func (e EncodedPoint) Point() (Point, error) {
	switch e.Form {
	case CompressedY0, CompressedY1:
		return PointFromX(e.X[:], e.Form == CompressedY1)
	case Uncompressed:
		b := make([]byte, 0, UncompressedSize)
		b = append(b, 0x04)
		b = append(b, e.X[:]...)
		b = append(b, e.Y[:]...)
		return ParsePoint(b)
	default:
		return Point{}, serrors.JoinNoStack(ErrInvalidPoint, nil, "form", e.Form)
	}
}
