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

package dot2_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openv2x/dot2/pkg/dot2"
	"github.com/openv2x/dot2/pkg/precompute"
	"github.com/openv2x/dot2/pkg/profile"
	"github.com/openv2x/dot2/pkg/store"
	"github.com/openv2x/dot2/private/config"
	"github.com/openv2x/dot2/private/storage"
)

func TestConfigSample(t *testing.T) {
	var sample bytes.Buffer
	var cfg dot2.Config
	cfg.Sample(&sample, nil, nil)

	var decoded dot2.Config
	require.NoError(t, config.Decode(sample.Bytes(), &decoded))
	decoded.InitDefaults()
	require.NoError(t, decoded.Validate())

	assert.Equal(t, "info", decoded.Log.Level)
	assert.Equal(t, "human", decoded.Log.Format)
	assert.False(t, decoded.Tracing.Enabled)
	assert.Equal(t, "localhost:6831", decoded.Tracing.Agent)
	assert.False(t, decoded.Precompute.Disable)
	assert.Equal(t, dot2.DefaultPrecomputeInterval, decoded.Precompute.Interval.Duration)
	assert.Equal(t, precompute.DefaultMaxEntries, decoded.Precompute.MaxEntries)
	assert.Equal(t, "/dev/urandom", decoded.Entropy.Source)
	assert.Equal(t, store.DefaultMaxSCCCerts, decoded.Store.MaxSCCCerts)
	assert.Equal(t, time.Minute, decoded.Store.EECacheSweepInterval.Duration)
	assert.Equal(t, 256, decoded.Store.SignerCacheSize)
	assert.Equal(t, dot2.DefaultReplayPurge, decoded.Replay.PurgeInterval.Duration)
	assert.Equal(t, storage.BackendSqlite, decoded.Storage.Backend)
	require.Len(t, decoded.Profiles, 1)
	assert.EqualValues(t, 32, decoded.Profiles[0].PSID)
}

func TestConfigDefaults(t *testing.T) {
	var cfg dot2.Config
	cfg.InitDefaults()
	require.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.Log.Level)
	assert.Empty(t, cfg.Log.Format)
	assert.Equal(t, dot2.DefaultPrecomputeInterval, cfg.Precompute.Interval.Duration)
	assert.Equal(t, precompute.DefaultBatchSize, cfg.Precompute.BatchSize)
	assert.Equal(t, store.DefaultEECacheLifetime, cfg.Store.EECacheLifetime.Duration)
	assert.Zero(t, cfg.Store.EECacheSweepInterval.Duration)
	assert.Equal(t, storage.BackendNone, cfg.Storage.Backend)

	assert.Equal(t, "localhost:6831", cfg.Tracing.Agent)

	cfg = dot2.Config{Log: dot2.LogConfig{Level: "debug"}}
	cfg.InitDefaults()
	assert.Equal(t, "human", cfg.Log.Format)
}

func TestTracingDisabled(t *testing.T) {
	cfg := dot2.TracingConfig{}
	cfg.InitDefaults()
	tracer, closer, err := cfg.NewTracer("dot2")
	require.NoError(t, err)
	assert.IsType(t, &opentracing.NoopTracer{}, tracer)
	assert.NoError(t, closer.Close())
}

func TestConfigValidate(t *testing.T) {
	testCases := map[string]struct {
		Config    dot2.Config
		Assertion assert.ErrorAssertionFunc
	}{
		"empty": {
			Assertion: assert.NoError,
		},
		"unknown log level": {
			Config:    dot2.Config{Log: dot2.LogConfig{Level: "trace"}},
			Assertion: assert.Error,
		},
		"unknown log format": {
			Config:    dot2.Config{Log: dot2.LogConfig{Level: "info", Format: "xml"}},
			Assertion: assert.Error,
		},
		"negative batch size": {
			Config:    dot2.Config{Precompute: dot2.PrecomputeConfig{BatchSize: -1}},
			Assertion: assert.Error,
		},
		"negative signer cache": {
			Config:    dot2.Config{Store: dot2.StoreConfig{SignerCacheSize: -1}},
			Assertion: assert.Error,
		},
		"storage without connection": {
			Config:    dot2.Config{Storage: storage.DBConfig{Backend: storage.BackendBbolt}},
			Assertion: assert.Error,
		},
		"profiles": {
			Config: dot2.Config{Profiles: []profile.Config{
				{PSID: 0x20}, {PSID: 0x26, Tx: profile.TxConfig{SignatureForm: "compressed"}},
			}},
			Assertion: assert.NoError,
		},
		"duplicate profile": {
			Config:    dot2.Config{Profiles: []profile.Config{{PSID: 0x20}, {PSID: 0x20}}},
			Assertion: assert.Error,
		},
		"invalid signature form": {
			Config: dot2.Config{Profiles: []profile.Config{
				{PSID: 0x20, Tx: profile.TxConfig{SignatureForm: "uncompressed"}},
			}},
			Assertion: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			tc.Config.InitDefaults()
			tc.Assertion(t, tc.Config.Validate())
		})
	}
}
