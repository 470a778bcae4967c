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

// Package tracing contains helpers to annotate opentracing spans.
package tracing

import (
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/openv2x/dot2/pkg/dot2err"
)

// ResultLabel sets the result label tag on the span.
func ResultLabel(span opentracing.Span, label string) {
	span.SetTag("result.label", label)
}

// Error sets the error tags on the span if err is not nil. The result code
// of err is recorded as well.
func Error(span opentracing.Span, err error) {
	if err == nil {
		return
	}
	ext.Error.Set(span, true)
	span.SetTag("error.msg", err.Error())
	span.SetTag("error.code", dot2err.CodeOf(err).String())
}

// Component sets the component tag on the span.
func Component(span opentracing.Span, component string) {
	ext.Component.Set(span, component)
}
