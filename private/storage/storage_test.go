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

package storage_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openv2x/dot2/private/config"
	"github.com/openv2x/dot2/private/storage"
	"github.com/openv2x/dot2/private/storage/trust"
)

func TestDBConfigSample(t *testing.T) {
	var sample bytes.Buffer
	var cfg storage.DBConfig
	cfg.Sample(&sample, nil, nil)
	require.NoError(t, config.Decode(sample.Bytes(), &cfg))
	assert.Equal(t, storage.BackendSqlite, cfg.Backend)
	assert.Equal(t, "/var/lib/dot2/trust.db", cfg.Connection)
	assert.NoError(t, cfg.Validate())
}

func TestDBConfigValidate(t *testing.T) {
	testCases := map[string]struct {
		Config    storage.DBConfig
		Assertion assert.ErrorAssertionFunc
	}{
		"none": {
			Assertion: assert.NoError,
		},
		"sqlite": {
			Config:    storage.DBConfig{Backend: storage.BackendSqlite, Connection: "x.db"},
			Assertion: assert.NoError,
		},
		"bbolt without connection": {
			Config:    storage.DBConfig{Backend: storage.BackendBbolt},
			Assertion: assert.Error,
		},
		"unknown backend": {
			Config:    storage.DBConfig{Backend: "postgres", Connection: "x"},
			Assertion: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			tc.Assertion(t, tc.Config.Validate())
		})
	}
}

func TestNewTrustStorage(t *testing.T) {
	ctx := context.Background()
	db, err := storage.NewTrustStorage(ctx, storage.DBConfig{}, trust.Metrics{})
	require.NoError(t, err)
	assert.Nil(t, db)

	for _, backend := range []storage.Backend{storage.BackendSqlite, storage.BackendBbolt} {
		t.Run(string(backend), func(t *testing.T) {
			db, err := storage.NewTrustStorage(ctx, storage.DBConfig{
				Backend:    backend,
				Connection: filepath.Join(t.TempDir(), "trust"),
			}, trust.Metrics{})
			require.NoError(t, err)
			defer db.Close()
			inserted, err := db.Insert(ctx, trust.KindSCC, []byte{1})
			require.NoError(t, err)
			assert.True(t, inserted)
		})
	}
}
