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

package tai

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/scionproto/scion/pkg/private/serrors"
)

var ntpEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// LoadLeapTable reads a leap-second file in the IERS leap-seconds.list
// format.
func LoadLeapTable(path string) (*LeapTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, serrors.Wrap("opening leap second file", err, "path", path)
	}
	defer f.Close()
	t, err := ParseLeapTable(f)
	if err != nil {
		return nil, serrors.Wrap("parsing leap second file", err, "path", path)
	}
	return t, nil
}

// ParseLeapTable parses the IERS format: one "<NTP seconds> <TAI-UTC>" pair
// per line, '#' starts a comment.
func ParseLeapTable(r io.Reader) (*LeapTable, error) {
	var leaps []time.Time
	prev := -1
	s := bufio.NewScanner(r)
	for line := 1; s.Scan(); line++ {
		text := s.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, serrors.New("malformed line", "line", line)
		}
		secs, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, serrors.Wrap("parsing timestamp", err, "line", line)
		}
		offset, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, serrors.Wrap("parsing offset", err, "line", line)
		}
		if prev >= 0 && offset > prev {
			leaps = append(leaps, ntpEpoch.Add(time.Duration(secs)*time.Second))
		}
		prev = offset
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return NewLeapTable(leaps), nil
}
