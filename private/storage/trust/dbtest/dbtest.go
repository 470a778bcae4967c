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

// Package dbtest contains the conformance suite of trust.DB implementations.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/openv2x/dot2/private/storage/trust"
)

const timeout = 3 * time.Second

// TestableDB extends trust.DB with the setup a suite run needs.
type TestableDB interface {
	trust.DB
	// Prepare creates an empty database.
	Prepare(t *testing.T, ctx context.Context)
	// Reopen closes the database and opens the same storage again.
	Reopen(t *testing.T, ctx context.Context)
}

// Run executes the suite against db. Each subtest starts from an empty
// database.
func Run(t *testing.T, db TestableDB) {
	testCases := map[string]func(*testing.T, context.Context, TestableDB){
		"insert and list":    testInsertAndList,
		"duplicates":         testDuplicates,
		"kinds are separate": testKinds,
		"unknown kind":       testUnknownKind,
		"delete":             testDelete,
		"delete all":         testDeleteAll,
		"active slot":        testActiveSlot,
		"persistence":        testPersistence,
		"concurrent inserts": testConcurrentInserts,
	}
	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			db.Prepare(t, ctx)
			defer db.Close()
			test(t, ctx, db)
		})
	}
}

func testInsertAndList(t *testing.T, ctx context.Context, db TestableDB) {
	blobs, err := db.All(ctx, trust.KindSCC)
	require.NoError(t, err)
	assert.Empty(t, blobs)

	want := [][]byte{{3, 3, 3}, {1}, {2, 2}}
	for _, b := range want {
		inserted, err := db.Insert(ctx, trust.KindSCC, b)
		require.NoError(t, err)
		assert.True(t, inserted)
	}
	blobs, err = db.All(ctx, trust.KindSCC)
	require.NoError(t, err)
	assert.Equal(t, want, blobs)
}

func testDuplicates(t *testing.T, ctx context.Context, db TestableDB) {
	inserted, err := db.Insert(ctx, trust.KindCMHF, []byte("cmhf"))
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = db.Insert(ctx, trust.KindCMHF, []byte("cmhf"))
	require.NoError(t, err)
	assert.False(t, inserted)
	blobs, err := db.All(ctx, trust.KindCMHF)
	require.NoError(t, err)
	assert.Len(t, blobs, 1)
}

func testKinds(t *testing.T, ctx context.Context, db TestableDB) {
	_, err := db.Insert(ctx, trust.KindSCC, []byte("same"))
	require.NoError(t, err)
	inserted, err := db.Insert(ctx, trust.KindCMHF, []byte("same"))
	require.NoError(t, err)
	assert.True(t, inserted)
	for _, k := range []trust.Kind{trust.KindSCC, trust.KindCMHF} {
		blobs, err := db.All(ctx, k)
		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("same")}, blobs, k.String())
	}
}

func testUnknownKind(t *testing.T, ctx context.Context, db TestableDB) {
	_, err := db.Insert(ctx, trust.Kind(9), []byte{1})
	assert.ErrorIs(t, err, trust.ErrUnknownKind)
	_, err = db.All(ctx, trust.Kind(0))
	assert.ErrorIs(t, err, trust.ErrUnknownKind)
}

func testDelete(t *testing.T, ctx context.Context, db TestableDB) {
	for _, b := range []string{"root", "ica", "pca"} {
		_, err := db.Insert(ctx, trust.KindSCC, []byte(b))
		require.NoError(t, err)
	}
	_, err := db.Insert(ctx, trust.KindCMHF, []byte("ica"))
	require.NoError(t, err)

	deleted, err := db.Delete(ctx, trust.KindSCC, []byte("ica"))
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = db.Delete(ctx, trust.KindSCC, []byte("ica"))
	require.NoError(t, err)
	assert.False(t, deleted)

	blobs, err := db.All(ctx, trust.KindSCC)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("root"), []byte("pca")}, blobs)
	blobs, err = db.All(ctx, trust.KindCMHF)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("ica")}, blobs, "other kinds untouched")

	inserted, err := db.Insert(ctx, trust.KindSCC, []byte("ica"))
	require.NoError(t, err)
	assert.True(t, inserted, "deleted blobs can be inserted again")
	blobs, err = db.All(ctx, trust.KindSCC)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("root"), []byte("pca"), []byte("ica")}, blobs)

	_, err = db.Delete(ctx, trust.Kind(0), []byte("ica"))
	assert.ErrorIs(t, err, trust.ErrUnknownKind)
}

func testDeleteAll(t *testing.T, ctx context.Context, db TestableDB) {
	for _, b := range []string{"a", "b"} {
		_, err := db.Insert(ctx, trust.KindCMHF, []byte(b))
		require.NoError(t, err)
	}
	_, err := db.Insert(ctx, trust.KindSCC, []byte("root"))
	require.NoError(t, err)

	n, err := db.DeleteAll(ctx, trust.KindCMHF)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	blobs, err := db.All(ctx, trust.KindCMHF)
	require.NoError(t, err)
	assert.Empty(t, blobs)
	blobs, err = db.All(ctx, trust.KindSCC)
	require.NoError(t, err)
	assert.Len(t, blobs, 1)

	_, err = db.Insert(ctx, trust.KindCMHF, []byte("c"))
	require.NoError(t, err)
	_, err = db.Insert(ctx, trust.KindCMHF, []byte("a"))
	require.NoError(t, err)
	db.Reopen(t, ctx)
	blobs, err = db.All(ctx, trust.KindCMHF)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("c"), []byte("a")}, blobs)

	_, err = db.DeleteAll(ctx, trust.Kind(9))
	assert.ErrorIs(t, err, trust.ErrUnknownKind)
}

func testActiveSlot(t *testing.T, ctx context.Context, db TestableDB) {
	_, ok, err := db.ActiveSlot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.SetActiveSlot(ctx, trust.Slot{I: 0x13a, J: 4}))
	require.NoError(t, db.SetActiveSlot(ctx, trust.Slot{I: 0x13a, J: 5}))
	s, ok, err := db.ActiveSlot(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, trust.Slot{I: 0x13a, J: 5}, s)

	require.NoError(t, db.ClearActiveSlot(ctx))
	_, ok, err = db.ActiveSlot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, db.ClearActiveSlot(ctx), "clearing twice")
}

func testPersistence(t *testing.T, ctx context.Context, db TestableDB) {
	_, err := db.Insert(ctx, trust.KindSCC, []byte("root"))
	require.NoError(t, err)
	_, err = db.Insert(ctx, trust.KindSCC, []byte("pca"))
	require.NoError(t, err)
	require.NoError(t, db.SetActiveSlot(ctx, trust.Slot{I: 1, J: 2}))

	db.Reopen(t, ctx)
	blobs, err := db.All(ctx, trust.KindSCC)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("root"), []byte("pca")}, blobs)
	s, ok, err := db.ActiveSlot(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, trust.Slot{I: 1, J: 2}, s)
}

func testConcurrentInserts(t *testing.T, ctx context.Context, db TestableDB) {
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			_, err := db.Insert(ctx, trust.KindSCC, []byte(fmt.Sprint(i%8)))
			return err
		})
	}
	require.NoError(t, g.Wait())
	blobs, err := db.All(ctx, trust.KindSCC)
	require.NoError(t, err)
	assert.Len(t, blobs, 8)
}
