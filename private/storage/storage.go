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

// Package storage creates the persistent trust store backend from
// configuration.
package storage

import (
	"context"
	"io"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/scionproto/scion/pkg/log"
	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/private/config"
	"github.com/openv2x/dot2/private/storage/trust"
	"github.com/openv2x/dot2/private/storage/trust/bbolt"
	"github.com/openv2x/dot2/private/storage/trust/sqlite"
)

// Backend indicates the database backend type.
type Backend string

const (
	// BackendNone keeps all material in memory only.
	BackendNone   Backend = ""
	BackendSqlite Backend = "sqlite"
	BackendBbolt  Backend = "bbolt"
)

var _ config.Config = (*DBConfig)(nil)

// DBConfig is the configuration of the trust store.
type DBConfig struct {
	Backend    Backend `toml:"backend,omitempty"`
	Connection string  `toml:"connection,omitempty"`
}

func (cfg *DBConfig) InitDefaults() {}

func (cfg *DBConfig) Validate() error {
	switch cfg.Backend {
	case BackendNone:
		return nil
	case BackendSqlite, BackendBbolt:
		if cfg.Connection == "" {
			return serrors.New("connection required", "backend", cfg.Backend)
		}
		return nil
	default:
		return serrors.New("unsupported backend", "backend", cfg.Backend)
	}
}

func (cfg *DBConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, sample)
}

func (cfg *DBConfig) ConfigName() string {
	return "storage"
}

// NewTrustStorage opens the configured backend. It returns nil for
// BackendNone.
func NewTrustStorage(ctx context.Context, c DBConfig, m trust.Metrics) (trust.DB, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var db trust.DB
	switch c.Backend {
	case BackendNone:
		return nil, nil
	case BackendSqlite:
		b, err := sqlite.New(ctx, c.Connection)
		if err != nil {
			return nil, err
		}
		db = b
	case BackendBbolt:
		b, err := bbolt.New(c.Connection, &bolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, err
		}
		db = b
	}
	log.FromCtx(ctx).Info("Opened trust store", "backend", c.Backend,
		"connection", c.Connection)
	return trust.WithMetrics(string(c.Backend), db, m), nil
}
