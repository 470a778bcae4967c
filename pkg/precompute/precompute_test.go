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

package precompute_test

import (
	"context"
	"crypto/rand"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/metrics"
	"github.com/openv2x/dot2/pkg/precompute"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGenerate(t *testing.T) {
	p, err := precompute.Generate(rand.Reader)
	require.NoError(t, err)
	assert.True(t, ecc.BaseMul(p.K).Equal(p.R))
	assert.Equal(t, int64(1), ecc.Mod(new(big.Int).Mul(p.K, p.KInv)).Int64())
	x := p.R.X()
	assert.Zero(t, ecc.ScalarFromBytes(x[:]).Cmp(p.RX))
}

func TestDisabledComputesInline(t *testing.T) {
	inline := metrics.NewTestCounter()
	p := precompute.New(precompute.Config{Interval: precompute.Disabled}, rand.Reader,
		precompute.Metrics{Inline: inline})
	defer p.Close()

	assert.False(t, p.Enabled())
	params, err := p.Next()
	require.NoError(t, err)
	assert.True(t, ecc.BaseMul(params.K).Equal(params.R))
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, float64(1), metrics.CounterValue(inline))
	assert.Equal(t, uint64(1), p.Stats().Inline)
}

func TestRunFillsUpToMax(t *testing.T) {
	queue := metrics.NewTestGauge()
	p := precompute.New(precompute.Config{
		Interval:   precompute.Disabled,
		MaxEntries: 5,
		BatchSize:  3,
	}, rand.Reader, precompute.Metrics{QueueLength: queue})
	defer p.Close()

	p.Run(context.Background())
	assert.Equal(t, 3, p.Len())
	p.Run(context.Background())
	assert.Equal(t, 5, p.Len())
	p.Run(context.Background())
	assert.Equal(t, 5, p.Len())
	assert.Equal(t, float64(5), metrics.GaugeValue(queue))

	stats := p.Stats()
	assert.Equal(t, uint64(5), stats.Generated)
	assert.Equal(t, 5, stats.Queued)
}

func TestNextIsFIFOAndOwned(t *testing.T) {
	p := precompute.New(precompute.Config{
		Interval:   precompute.Disabled,
		MaxEntries: 2,
		BatchSize:  2,
	}, rand.Reader, precompute.Metrics{})
	defer p.Close()
	p.Run(context.Background())
	require.Equal(t, 2, p.Len())

	first, err := p.Next()
	require.NoError(t, err)
	// Mutating the returned copy must not affect anything else.
	first.K.SetInt64(0)
	second, err := p.Next()
	require.NoError(t, err)
	assert.NotZero(t, second.K.Sign())
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, uint64(2), p.Stats().Consumed)
}

func TestBackgroundRunner(t *testing.T) {
	p := precompute.New(precompute.Config{
		Interval:   5 * time.Millisecond,
		MaxEntries: 4,
		BatchSize:  2,
	}, rand.Reader, precompute.Metrics{})
	assert.True(t, p.Enabled())
	assert.Eventually(t, func() bool { return p.Len() == 4 }, 2*time.Second,
		5*time.Millisecond)
	p.Close()
	assert.Equal(t, 0, p.Len())
	assert.False(t, p.Enabled())

	// Still usable after close.
	_, err := p.Next()
	assert.NoError(t, err)
}

func TestConcurrentConsumers(t *testing.T) {
	p := precompute.New(precompute.Config{
		Interval:   time.Millisecond,
		MaxEntries: 16,
		BatchSize:  4,
	}, rand.Reader, precompute.Metrics{})
	defer p.Close()

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for j := 0; j < 10; j++ {
				params, err := p.Next()
				if err != nil {
					return err
				}
				if !ecc.BaseMul(params.K).Equal(params.R) {
					t.Error("inconsistent parameters")
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	s := p.Stats()
	assert.Equal(t, uint64(80), s.Consumed+s.Inline)
}
