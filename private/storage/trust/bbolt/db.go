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

// Package bbolt implements the trust DB on a bbolt key/value file.
//
// Blobs of a kind live in their own bucket keyed by a big-endian sequence
// number, so a cursor walk yields insertion order. A second bucket per kind
// maps fingerprints to sequence numbers for deduplication.
package bbolt

import (
	"context"
	"encoding/binary"
	"slices"

	"go.etcd.io/bbolt"

	"github.com/scionproto/scion/pkg/private/serrors"

	dblib "github.com/openv2x/dot2/private/storage/db"
	"github.com/openv2x/dot2/private/storage/trust"
)

var (
	stateBucket = []byte("state")
	activeKey   = []byte("active_slot")
)

func blobBucket(k trust.Kind) []byte  { return []byte(k.String()) }
func indexBucket(k trust.Kind) []byte { return []byte(k.String() + "_index") }

var _ trust.DB = (*Backend)(nil)

// Backend is a bbolt trust DB.
type Backend struct {
	db *bbolt.DB
}

// New opens or creates the database file at path.
func New(path string, opts *bbolt.Options) (*Backend, error) {
	db, err := bbolt.Open(path, 0600, opts)
	if err != nil {
		return nil, serrors.Wrap("opening bbolt database", err, "path", path)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, k := range []trust.Kind{trust.KindSCC, trust.KindCMHF} {
			if _, err := tx.CreateBucketIfNotExists(blobBucket(k)); err != nil {
				return err
			}
			if _, err := tx.CreateBucketIfNotExists(indexBucket(k)); err != nil {
				return err
			}
		}
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, dblib.NewWriteError("creating buckets", err, "path", path)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Insert(_ context.Context, kind trust.Kind, raw []byte) (bool, error) {
	if err := trust.CheckKind(kind); err != nil {
		return false, err
	}
	var inserted bool
	err := b.db.Update(func(tx *bbolt.Tx) error {
		index := tx.Bucket(indexBucket(kind))
		fp := trust.Fingerprint(raw)
		if index.Get(fp) != nil {
			return nil
		}
		blobs := tx.Bucket(blobBucket(kind))
		seq, err := blobs.NextSequence()
		if err != nil {
			return err
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		if err := blobs.Put(key[:], raw); err != nil {
			return err
		}
		inserted = true
		return index.Put(fp, key[:])
	})
	if err != nil {
		return false, dblib.NewWriteError("inserting blob", err, "kind", kind)
	}
	return inserted, nil
}

func (b *Backend) All(_ context.Context, kind trust.Kind) ([][]byte, error) {
	if err := trust.CheckKind(kind); err != nil {
		return nil, err
	}
	var blobs [][]byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(blobBucket(kind)).ForEach(func(_, v []byte) error {
			// Values are only valid during the transaction.
			blobs = append(blobs, slices.Clone(v))
			return nil
		})
	})
	if err != nil {
		return nil, dblib.NewReadError("reading blobs", err, "kind", kind)
	}
	return blobs, nil
}

func (b *Backend) Delete(_ context.Context, kind trust.Kind, raw []byte) (bool, error) {
	if err := trust.CheckKind(kind); err != nil {
		return false, err
	}
	var deleted bool
	err := b.db.Update(func(tx *bbolt.Tx) error {
		index := tx.Bucket(indexBucket(kind))
		fp := trust.Fingerprint(raw)
		key := index.Get(fp)
		if key == nil {
			return nil
		}
		// The key is only valid until the index is modified.
		if err := tx.Bucket(blobBucket(kind)).Delete(slices.Clone(key)); err != nil {
			return err
		}
		deleted = true
		return index.Delete(fp)
	})
	if err != nil {
		return false, dblib.NewWriteError("deleting blob", err, "kind", kind)
	}
	return deleted, nil
}

func (b *Backend) DeleteAll(_ context.Context, kind trust.Kind) (int, error) {
	if err := trust.CheckKind(kind); err != nil {
		return 0, err
	}
	var n int
	err := b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(blobBucket(kind)).ForEach(func(_, _ []byte) error {
			n++
			return nil
		}); err != nil {
			return err
		}
		for _, name := range [][]byte{blobBucket(kind), indexBucket(kind)} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, dblib.NewWriteError("deleting blobs", err, "kind", kind)
	}
	return n, nil
}

func (b *Backend) SetActiveSlot(_ context.Context, s trust.Slot) error {
	var v [8]byte
	binary.BigEndian.PutUint32(v[:4], s.I)
	binary.BigEndian.PutUint32(v[4:], s.J)
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(stateBucket).Put(activeKey, v[:])
	})
	if err != nil {
		return dblib.NewWriteError("storing active slot", err)
	}
	return nil
}

func (b *Backend) ActiveSlot(_ context.Context) (trust.Slot, bool, error) {
	var s trust.Slot
	var found bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(stateBucket).Get(activeKey)
		if v == nil {
			return nil
		}
		if len(v) != 8 {
			return dblib.NewDataError("active slot", nil, "len", len(v))
		}
		s = trust.Slot{
			I: binary.BigEndian.Uint32(v[:4]),
			J: binary.BigEndian.Uint32(v[4:]),
		}
		found = true
		return nil
	})
	if err != nil {
		return trust.Slot{}, false, err
	}
	return s, found, nil
}

func (b *Backend) ClearActiveSlot(_ context.Context) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(stateBucket).Delete(activeKey)
	})
	if err != nil {
		return dblib.NewWriteError("clearing active slot", err)
	}
	return nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
