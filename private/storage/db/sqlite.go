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

// Package db contains helpers shared by the persistent storage backends.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/scionproto/scion/pkg/private/serrors"

	_ "modernc.org/sqlite" // sqlite driver
)

// OpenSqlite opens the sqlite database at path and applies schema if the
// database is new. An existing database must carry schemaVersion.
//
// A single connection is used. Writers are serialized by sqlite anyway and
// the tables are small.
func OpenSqlite(ctx context.Context, path, schema string, schemaVersion int) (*sql.DB, error) {
	if path == "" || strings.Contains(path, ":memory:") {
		return nil, serrors.New("sqlite path must name a file", "path", path)
	}
	params := make(url.Values)
	params.Add("_txlock", "immediate")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "busy_timeout(1000)")
	params.Add("_pragma", "synchronous(NORMAL)")
	conn := path
	if !strings.HasPrefix(conn, "file:") {
		conn = "file:" + conn
	}
	db, err := sql.Open("sqlite", conn+"?"+params.Encode())
	if err != nil {
		return nil, serrors.Wrap("opening sqlite database", err, "path", path)
	}
	db.SetMaxOpenConns(1)
	if err := setup(ctx, db, schema, schemaVersion); err != nil {
		db.Close()
		return nil, serrors.Wrap("setting up sqlite database", err, "path", path)
	}
	return db, nil
}

func setup(ctx context.Context, db *sql.DB, schema string, schemaVersion int) error {
	var existing int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version;").Scan(&existing); err != nil {
		return NewReadError("reading schema version", err)
	}
	switch existing {
	case 0:
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return NewWriteError("applying schema", err)
		}
		q := fmt.Sprintf("PRAGMA user_version = %d;", schemaVersion)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return NewWriteError("writing schema version", err)
		}
		return nil
	case schemaVersion:
		return nil
	default:
		return serrors.JoinNoStack(ErrDataInvalid, nil, "reason", "schema version mismatch",
			"expected", schemaVersion, "actual", existing)
	}
}
