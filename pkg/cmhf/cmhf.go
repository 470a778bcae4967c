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

// Package cmhf reads and writes certificate material holder files (CMHF).
// A CMHF carries the certificates and private key material a node signs
// with, either for one sequential entry or for one rotating butterfly set.
//
// Layout:
//
//	"CMHF" | version(1) | type(1) | body
//	sequential body: flags(1) | cert(2-byte length prefix) | key(32) | [r(32)]
//	rotating body:   i(4) | seed(32) | expansion key(16) | count(2) |
//	                 count × { j(4) | cert(2-byte length prefix) | r(32) }
package cmhf

import (
	"golang.org/x/crypto/cryptobyte"

	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/dot2err"
)

const (
	magic = "CMHF"
	// Version is the file format version.
	Version = 1

	flagImplicit = 0x01

	// MaxSlots bounds the number of slots in a rotating set.
	MaxSlots = 256
)

// Type is the CMH table shape a file belongs to.
type Type uint8

const (
	// None means the shape is not yet determined.
	None Type = iota
	Sequential
	Rotating
)

func (t Type) String() string {
	switch t {
	case Sequential:
		return "sequential"
	case Rotating:
		return "rotating"
	default:
		return "none"
	}
}

// File is a decoded CMHF. Exactly one of Sequential and Rotating is set,
// matching Type.
type File struct {
	Type       Type
	Sequential *SequentialEntry
	Rotating   *RotatingSet
}

// SequentialEntry is the material of one long-lived certificate. For
// explicit certificates Key is the private key. For implicit certificates
// Key is the initial private scalar and R the private reconstruction value.
type SequentialEntry struct {
	Cert     []byte
	Implicit bool
	Key      [32]byte
	R        [32]byte
}

// RotatingSet is the material of one butterfly batch i.
type RotatingSet struct {
	I            uint32
	Seed         [32]byte
	ExpansionKey [16]byte
	Slots        []RotatingSlot
}

// RotatingSlot is the implicit certificate of slot j and its private
// reconstruction value.
type RotatingSlot struct {
	J    uint32
	Cert []byte
	R    [32]byte
}

// Decode parses a CMHF. All failures carry the InvalidCMHF code.
func Decode(raw []byte) (*File, error) {
	f, err := decode(raw)
	if err != nil {
		return nil, serrors.JoinNoStack(dot2err.InvalidCMHF, err)
	}
	return f, nil
}

func decode(raw []byte) (*File, error) {
	s := cryptobyte.String(raw)
	var m []byte
	var version, typ uint8
	if !s.ReadBytes(&m, len(magic)) || string(m) != magic {
		return nil, serrors.New("bad magic")
	}
	if !s.ReadUint8(&version) || !s.ReadUint8(&typ) {
		return nil, serrors.New("truncated header")
	}
	if version != Version {
		return nil, serrors.New("unsupported version", "version", version)
	}
	f := &File{Type: Type(typ)}
	switch f.Type {
	case Sequential:
		e := &SequentialEntry{}
		var flags uint8
		var c cryptobyte.String
		if !s.ReadUint8(&flags) || !s.ReadUint16LengthPrefixed(&c) || !s.CopyBytes(e.Key[:]) {
			return nil, serrors.New("truncated sequential entry")
		}
		e.Cert = append([]byte(nil), c...)
		e.Implicit = flags&flagImplicit != 0
		if e.Implicit && !s.CopyBytes(e.R[:]) {
			return nil, serrors.New("truncated reconstruction value")
		}
		f.Sequential = e
	case Rotating:
		set := &RotatingSet{}
		var count uint16
		if !s.ReadUint32(&set.I) || !s.CopyBytes(set.Seed[:]) ||
			!s.CopyBytes(set.ExpansionKey[:]) || !s.ReadUint16(&count) {
			return nil, serrors.New("truncated rotating set")
		}
		if count == 0 || count > MaxSlots {
			return nil, serrors.New("invalid slot count", "count", count)
		}
		set.Slots = make([]RotatingSlot, count)
		for k := range set.Slots {
			slot := &set.Slots[k]
			var c cryptobyte.String
			if !s.ReadUint32(&slot.J) || !s.ReadUint16LengthPrefixed(&c) ||
				!s.CopyBytes(slot.R[:]) {
				return nil, serrors.New("truncated slot", "index", k)
			}
			slot.Cert = append([]byte(nil), c...)
		}
		f.Rotating = set
	default:
		return nil, serrors.New("unknown cmh type", "type", typ)
	}
	if !s.Empty() {
		return nil, serrors.New("trailing data", "remaining", len(s))
	}
	return f, nil
}

// Encode serializes f.
func Encode(f *File) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddBytes([]byte(magic))
	b.AddUint8(Version)
	b.AddUint8(uint8(f.Type))
	switch f.Type {
	case Sequential:
		e := f.Sequential
		if e == nil {
			return nil, serrors.New("missing sequential entry")
		}
		var flags uint8
		if e.Implicit {
			flags |= flagImplicit
		}
		b.AddUint8(flags)
		b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
			b.AddBytes(e.Cert)
		})
		b.AddBytes(e.Key[:])
		if e.Implicit {
			b.AddBytes(e.R[:])
		}
	case Rotating:
		set := f.Rotating
		if set == nil || len(set.Slots) == 0 || len(set.Slots) > MaxSlots {
			return nil, serrors.New("invalid rotating set")
		}
		b.AddUint32(set.I)
		b.AddBytes(set.Seed[:])
		b.AddBytes(set.ExpansionKey[:])
		b.AddUint16(uint16(len(set.Slots)))
		for _, slot := range set.Slots {
			b.AddUint32(slot.J)
			b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
				b.AddBytes(slot.Cert)
			})
			b.AddBytes(slot.R[:])
		}
	default:
		return nil, serrors.New("unknown cmh type", "type", f.Type)
	}
	return b.Bytes()
}
