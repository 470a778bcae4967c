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

package config

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// CtxMap carries values that samples can refer to.
type CtxMap map[string]string

// WriteSample writes the samples in order. Table samplers get a table header
// and their content indented below it. It panics if writing fails.
func WriteSample(dst io.Writer, path Path, ctx CtxMap, samplers ...Sampler) {
	for _, sampler := range samplers {
		var buf bytes.Buffer
		ts, ok := sampler.(TableSampler)
		if !ok {
			sampler.Sample(&buf, path, ctx)
			WriteString(dst, buf.String())
			continue
		}
		p := path.Extend(ts.ConfigName())
		WriteString(dst, fmt.Sprintf("\n[%s]\n", strings.Join(p, ".")))
		ts.Sample(&buf, p, ctx)
		WriteString(dst, indent(buf.String()))
	}
}

// WriteString writes s to dst. It panics if writing fails.
func WriteString(dst io.Writer, s string) {
	if _, err := io.WriteString(dst, s); err != nil {
		panic(fmt.Sprintf("Unable to write string err=%s", err))
	}
}

func indent(s string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(s, "\n") {
		if strings.TrimSpace(line) != "" {
			b.WriteString("    ")
		}
		b.WriteString(line)
	}
	return b.String()
}
