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

// Package sqlite implements the trust DB on sqlite.
package sqlite

import (
	"context"
	"database/sql"

	dblib "github.com/openv2x/dot2/private/storage/db"
	"github.com/openv2x/dot2/private/storage/trust"
)

const (
	// SchemaVersion is the version of the schema understood by this backend.
	SchemaVersion = 1
	// Schema is the sqlite database layout.
	Schema = `
	CREATE TABLE blobs(
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		kind INTEGER NOT NULL,
		fingerprint BLOB NOT NULL,
		raw BLOB NOT NULL,
		UNIQUE (kind, fingerprint)
	);
	CREATE TABLE active_slot(
		id INTEGER PRIMARY KEY CHECK (id = 0),
		i INTEGER NOT NULL,
		j INTEGER NOT NULL
	);
	`
)

var _ trust.DB = (*Backend)(nil)

// Backend is a sqlite trust DB.
type Backend struct {
	db *sql.DB
}

// New opens or creates the database at path.
func New(ctx context.Context, path string) (*Backend, error) {
	db, err := dblib.OpenSqlite(ctx, path, Schema, SchemaVersion)
	if err != nil {
		return nil, err
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Insert(ctx context.Context, kind trust.Kind, raw []byte) (bool, error) {
	if err := trust.CheckKind(kind); err != nil {
		return false, err
	}
	res, err := b.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO blobs(kind, fingerprint, raw) VALUES (?, ?, ?)`,
		kind, trust.Fingerprint(raw), raw)
	if err != nil {
		return false, dblib.NewWriteError("inserting blob", err, "kind", kind)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, dblib.NewWriteError("inserting blob", err, "kind", kind)
	}
	return n > 0, nil
}

func (b *Backend) All(ctx context.Context, kind trust.Kind) ([][]byte, error) {
	if err := trust.CheckKind(kind); err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx,
		`SELECT raw FROM blobs WHERE kind = ? ORDER BY seq`, kind)
	if err != nil {
		return nil, dblib.NewReadError("querying blobs", err, "kind", kind)
	}
	defer rows.Close()
	var blobs [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, dblib.NewReadError("scanning blob", err, "kind", kind)
		}
		blobs = append(blobs, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, dblib.NewReadError("iterating blobs", err, "kind", kind)
	}
	return blobs, nil
}

func (b *Backend) Delete(ctx context.Context, kind trust.Kind, raw []byte) (bool, error) {
	if err := trust.CheckKind(kind); err != nil {
		return false, err
	}
	res, err := b.db.ExecContext(ctx,
		`DELETE FROM blobs WHERE kind = ? AND fingerprint = ?`, kind, trust.Fingerprint(raw))
	if err != nil {
		return false, dblib.NewWriteError("deleting blob", err, "kind", kind)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, dblib.NewWriteError("deleting blob", err, "kind", kind)
	}
	return n > 0, nil
}

func (b *Backend) DeleteAll(ctx context.Context, kind trust.Kind) (int, error) {
	if err := trust.CheckKind(kind); err != nil {
		return 0, err
	}
	res, err := b.db.ExecContext(ctx, `DELETE FROM blobs WHERE kind = ?`, kind)
	if err != nil {
		return 0, dblib.NewWriteError("deleting blobs", err, "kind", kind)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dblib.NewWriteError("deleting blobs", err, "kind", kind)
	}
	return int(n), nil
}

func (b *Backend) SetActiveSlot(ctx context.Context, s trust.Slot) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO active_slot(id, i, j) VALUES (0, ?, ?)
		ON CONFLICT(id) DO UPDATE SET i = excluded.i, j = excluded.j`, s.I, s.J)
	if err != nil {
		return dblib.NewWriteError("storing active slot", err)
	}
	return nil
}

func (b *Backend) ActiveSlot(ctx context.Context) (trust.Slot, bool, error) {
	var s trust.Slot
	err := b.db.QueryRowContext(ctx, `SELECT i, j FROM active_slot WHERE id = 0`).
		Scan(&s.I, &s.J)
	switch {
	case err == sql.ErrNoRows:
		return trust.Slot{}, false, nil
	case err != nil:
		return trust.Slot{}, false, dblib.NewReadError("reading active slot", err)
	}
	return s, true, nil
}

func (b *Backend) ClearActiveSlot(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM active_slot`); err != nil {
		return dblib.NewWriteError("clearing active slot", err)
	}
	return nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
