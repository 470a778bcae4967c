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

package tai_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openv2x/dot2/pkg/tai"
)

func TestFromTime(t *testing.T) {
	testCases := map[string]struct {
		Input    time.Time
		Expected tai.Time64
	}{
		"epoch": {
			Input:    tai.Epoch,
			Expected: 0,
		},
		"before epoch": {
			Input:    tai.Epoch.Add(-time.Hour),
			Expected: 0,
		},
		"one second": {
			Input:    tai.Epoch.Add(time.Second),
			Expected: 1_000_000,
		},
		"after first leap": {
			Input: time.Date(2006, time.January, 1, 0, 0, 1, 0, time.UTC),
			Expected: tai.Time64((time.Date(2006, time.January, 1, 0, 0, 1, 0, time.UTC).
				Sub(tai.Epoch) + time.Second).Microseconds()),
		},
		"after all leaps": {
			Input: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
			Expected: tai.Time64((time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC).
				Sub(tai.Epoch) + 5*time.Second).Microseconds()),
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.Expected, tai.DefaultTable.FromTime(tc.Input))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, in := range []time.Time{
		time.Date(2005, time.March, 3, 12, 0, 0, 0, time.UTC),
		time.Date(2012, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC),
	} {
		assert.True(t, in.Equal(tai.DefaultTable.ToTime(tai.DefaultTable.FromTime(in))), in)
	}
}

func TestArithmetic(t *testing.T) {
	a := tai.Time64(10_000_000)
	assert.Equal(t, tai.Time64(11_000_000), a.Add(time.Second))
	assert.Equal(t, tai.Time64(0), a.Add(-time.Hour))
	assert.Equal(t, 2*time.Second, a.Add(2*time.Second).Sub(a))
	assert.Equal(t, -2*time.Second, a.Sub(a.Add(2*time.Second)))
	assert.Equal(t, a, tai.Min(a, a+1))
	assert.True(t, a.Before(a+1))
	assert.True(t, (a + 1).After(a))
}

const leapFile = `# IERS leap seconds
2272060800	10	# 1 Jan 1972
3124137600	32	# 1 Jan 1999
3345062400	33	# 1 Jan 2006
3439756800	34	# 1 Jan 2009
3550089600	35	# 1 Jul 2012
3644697600	36	# 1 Jul 2015
3692217600	37	# 1 Jan 2017
`

func TestParseLeapTable(t *testing.T) {
	table, err := tai.ParseLeapTable(strings.NewReader(leapFile))
	require.NoError(t, err)
	assert.Equal(t, 5, table.Len())
	now := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, tai.DefaultTable.FromTime(now), table.FromTime(now))

	_, err = tai.ParseLeapTable(strings.NewReader("123\n"))
	assert.Error(t, err)
	_, err = tai.ParseLeapTable(strings.NewReader("abc 10\n"))
	assert.Error(t, err)
}

func TestLoadLeapTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leap-seconds.list")
	require.NoError(t, os.WriteFile(path, []byte(leapFile), 0o644))
	table, err := tai.LoadLeapTable(path)
	require.NoError(t, err)
	assert.Equal(t, 5, table.Len())

	_, err = tai.LoadLeapTable(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
