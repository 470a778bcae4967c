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

// Package trust persists the material loaded into a security context: SCC
// certificates, CMHF files and the active rotating slot. A context replays
// the stored material on startup in insertion order, so issuers are restored
// before the certificates they issued.
package trust

import (
	"context"
	"crypto/sha256"
	"io"

	"github.com/scionproto/scion/pkg/private/serrors"
)

// Kind distinguishes the stored blobs.
type Kind uint8

const (
	KindSCC Kind = iota + 1
	KindCMHF
)

func (k Kind) String() string {
	switch k {
	case KindSCC:
		return "scc"
	case KindCMHF:
		return "cmhf"
	default:
		return "unknown"
	}
}

// Slot is a rotating CMH slot selection.
type Slot struct {
	I uint32
	J uint32
}

// DB is a persistent trust store. Implementations are safe for concurrent
// use.
type DB interface {
	io.Closer
	// Insert stores raw under kind. It returns false if the same blob is
	// already stored.
	Insert(ctx context.Context, kind Kind, raw []byte) (bool, error)
	// All returns the blobs of kind in insertion order.
	All(ctx context.Context, kind Kind) ([][]byte, error)
	// Delete removes raw from kind. It returns false if the blob is not
	// stored.
	Delete(ctx context.Context, kind Kind, raw []byte) (bool, error)
	// DeleteAll removes every blob of kind and returns how many were
	// removed.
	DeleteAll(ctx context.Context, kind Kind) (int, error)
	// SetActiveSlot records the active rotating slot.
	SetActiveSlot(ctx context.Context, s Slot) error
	// ActiveSlot returns the recorded slot. ok is false if none is recorded.
	ActiveSlot(ctx context.Context) (Slot, bool, error)
	// ClearActiveSlot forgets the recorded slot.
	ClearActiveSlot(ctx context.Context) error
}

// ErrUnknownKind is returned for kinds outside KindSCC and KindCMHF.
var ErrUnknownKind = serrors.New("unknown blob kind")

// Fingerprint is the deduplication key of a blob.
func Fingerprint(raw []byte) []byte {
	f := sha256.Sum256(raw)
	return f[:]
}

// CheckKind returns ErrUnknownKind for invalid kinds.
func CheckKind(k Kind) error {
	if k != KindSCC && k != KindCMHF {
		return serrors.JoinNoStack(ErrUnknownKind, nil, "kind", uint8(k))
	}
	return nil
}
