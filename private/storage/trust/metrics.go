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

package trust

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/openv2x/dot2/pkg/metrics"
	dblib "github.com/openv2x/dot2/private/storage/db"
	"github.com/openv2x/dot2/private/tracing"
)

const (
	opInsert          = "insert"
	opAll             = "all"
	opDelete          = "delete"
	opDeleteAll       = "delete_all"
	opSetActiveSlot   = "set_active_slot"
	opActiveSlot      = "active_slot"
	opClearActiveSlot = "clear_active_slot"
)

// Metrics of an observed DB. Queries is called with the operation and the
// result label.
type Metrics struct {
	Queries func(op, result string) metrics.Counter
}

// WithMetrics wraps db such that every operation is traced and counted.
func WithMetrics(backend string, db DB, m Metrics) DB {
	return &observed{backend: backend, db: db, metrics: m}
}

type observed struct {
	backend string
	db      DB
	metrics Metrics
}

func (o *observed) observe(ctx context.Context, op string,
	action func(context.Context) error) error {

	span, ctx := opentracing.StartSpanFromContext(ctx, "trustdb."+op)
	defer span.Finish()
	tracing.Component(span, o.backend)
	err := action(ctx)
	label := dblib.ErrToMetricLabel(err)
	tracing.Error(span, err)
	tracing.ResultLabel(span, label)
	if o.metrics.Queries != nil {
		metrics.CounterInc(o.metrics.Queries(op, label))
	}
	return err
}

func (o *observed) Insert(ctx context.Context, kind Kind, raw []byte) (bool, error) {
	var inserted bool
	err := o.observe(ctx, opInsert, func(ctx context.Context) error {
		var err error
		inserted, err = o.db.Insert(ctx, kind, raw)
		return err
	})
	return inserted, err
}

func (o *observed) All(ctx context.Context, kind Kind) ([][]byte, error) {
	var blobs [][]byte
	err := o.observe(ctx, opAll, func(ctx context.Context) error {
		var err error
		blobs, err = o.db.All(ctx, kind)
		return err
	})
	return blobs, err
}

func (o *observed) Delete(ctx context.Context, kind Kind, raw []byte) (bool, error) {
	var deleted bool
	err := o.observe(ctx, opDelete, func(ctx context.Context) error {
		var err error
		deleted, err = o.db.Delete(ctx, kind, raw)
		return err
	})
	return deleted, err
}

func (o *observed) DeleteAll(ctx context.Context, kind Kind) (int, error) {
	var n int
	err := o.observe(ctx, opDeleteAll, func(ctx context.Context) error {
		var err error
		n, err = o.db.DeleteAll(ctx, kind)
		return err
	})
	return n, err
}

func (o *observed) SetActiveSlot(ctx context.Context, s Slot) error {
	return o.observe(ctx, opSetActiveSlot, func(ctx context.Context) error {
		return o.db.SetActiveSlot(ctx, s)
	})
}

func (o *observed) ActiveSlot(ctx context.Context) (Slot, bool, error) {
	var s Slot
	var ok bool
	err := o.observe(ctx, opActiveSlot, func(ctx context.Context) error {
		var err error
		s, ok, err = o.db.ActiveSlot(ctx)
		return err
	})
	return s, ok, err
}

func (o *observed) ClearActiveSlot(ctx context.Context) error {
	return o.observe(ctx, opClearActiveSlot, func(ctx context.Context) error {
		return o.db.ClearActiveSlot(ctx)
	})
}

func (o *observed) Close() error {
	return o.db.Close()
}
