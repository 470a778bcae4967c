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

package ecc_test

import (
	"bytes"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openv2x/dot2/pkg/ecc"
)

func TestPointArithmetic(t *testing.T) {
	a, err := ecc.RandomScalar(rand.Reader)
	require.NoError(t, err)
	b, err := ecc.RandomScalar(rand.Reader)
	require.NoError(t, err)

	sum := ecc.BaseMul(a).Add(ecc.BaseMul(b))
	assert.True(t, sum.Equal(ecc.BaseMul(new(big.Int).Add(a, b))))

	prod := ecc.BaseMul(a).Mul(b)
	assert.True(t, prod.Equal(ecc.BaseMul(new(big.Int).Mul(a, b))))
	assert.True(t, ecc.Generator().Equal(ecc.BaseMul(big.NewInt(1))))
	assert.True(t, ecc.BaseMul(ecc.N).IsZero())
	assert.True(t, ecc.Point{}.IsZero())
}

func TestPointEncoding(t *testing.T) {
	k, err := ecc.RandomScalar(rand.Reader)
	require.NoError(t, err)
	p := ecc.BaseMul(k)

	testCases := map[string]struct {
		Form ecc.PointForm
	}{
		"compressed":   {Form: ecc.CompressedY0},
		"uncompressed": {Form: ecc.Uncompressed},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			enc := ecc.Encode(p, tc.Form)
			got, err := enc.Point()
			require.NoError(t, err)
			assert.True(t, p.Equal(got))
		})
	}

	t.Run("x-only fails", func(t *testing.T) {
		_, err := ecc.Encode(p, ecc.XOnly).Point()
		assert.ErrorIs(t, err, ecc.ErrInvalidPoint)
	})
	t.Run("parse compressed and uncompressed", func(t *testing.T) {
		c, err := ecc.ParsePoint(p.Compressed())
		require.NoError(t, err)
		u, err := ecc.ParsePoint(p.Bytes())
		require.NoError(t, err)
		assert.True(t, c.Equal(u))
		x := p.X()
		r, err := ecc.PointFromX(x[:], p.YOdd())
		require.NoError(t, err)
		assert.True(t, r.Equal(p))
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := ecc.ParsePoint(bytes.Repeat([]byte{0xff}, ecc.CompressedSize))
		assert.ErrorIs(t, err, ecc.ErrInvalidPoint)
		_, err = ecc.ParsePoint([]byte{0x02})
		assert.ErrorIs(t, err, ecc.ErrInvalidPoint)
	})
}

func TestScalars(t *testing.T) {
	k := big.NewInt(12345)
	inv, err := ecc.ModInverse(k)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ecc.Mod(new(big.Int).Mul(k, inv)).Int64())

	_, err = ecc.ModInverse(new(big.Int).Set(ecc.N))
	assert.ErrorIs(t, err, ecc.ErrZeroScalar)

	b := ecc.ScalarBytes(k)
	assert.Zero(t, k.Cmp(ecc.ScalarFromBytes(b[:])))

	_, err = ecc.ParsePrivateKey(make([]byte, 32))
	assert.ErrorIs(t, err, ecc.ErrZeroScalar)
	_, err = ecc.ParsePrivateKey(bytes.Repeat([]byte{0xff}, 32))
	assert.Error(t, err)
}

func TestRandomScalarShortRead(t *testing.T) {
	_, err := ecc.RandomScalar(bytes.NewReader([]byte{1, 2, 3}))
	assert.Error(t, err)
}
