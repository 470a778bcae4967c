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

package db

import (
	"context"
	"errors"

	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/metrics"
)

var (
	// ErrDataInvalid indicates that stored data could not be used.
	ErrDataInvalid = serrors.New("db: stored data invalid")
	// ErrReadFailed indicates that reading from the database failed.
	ErrReadFailed = serrors.New("db: read failed")
	// ErrWriteFailed indicates that writing to the database failed.
	ErrWriteFailed = serrors.New("db: write failed")
)

func NewDataError(msg string, err error, logCtx ...any) error {
	return serrors.JoinNoStack(ErrDataInvalid, err, append([]any{"detail", msg}, logCtx...)...)
}

func NewReadError(msg string, err error, logCtx ...any) error {
	return serrors.JoinNoStack(ErrReadFailed, err, append([]any{"detail", msg}, logCtx...)...)
}

func NewWriteError(msg string, err error, logCtx ...any) error {
	return serrors.JoinNoStack(ErrWriteFailed, err, append([]any{"detail", msg}, logCtx...)...)
}

// ErrToMetricLabel classifies err as a metric result label.
func ErrToMetricLabel(err error) string {
	switch {
	case err == nil:
		return metrics.OkSuccess
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return metrics.ErrTimeout
	case errors.Is(err, ErrDataInvalid):
		return metrics.ErrParse
	default:
		return metrics.ErrDB
	}
}
