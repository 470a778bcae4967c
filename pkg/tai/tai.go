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

// Package tai converts between wall-clock time and the IEEE 1609.2 Time64
// representation: TAI microseconds since 2004-01-01 00:00:00 UTC.
package tai

import (
	"sort"
	"time"
)

// Epoch is the Time64 origin.
var Epoch = time.Date(2004, time.January, 1, 0, 0, 0, 0, time.UTC)

// Time64 is the number of TAI microseconds elapsed since Epoch.
type Time64 uint64

// Add returns t+d, saturating at zero.
func (t Time64) Add(d time.Duration) Time64 {
	us := d.Microseconds()
	if us < 0 && uint64(-us) > uint64(t) {
		return 0
	}
	return Time64(int64(t) + us)
}

// Sub returns t-u as a duration.
func (t Time64) Sub(u Time64) time.Duration {
	return time.Duration(int64(t)-int64(u)) * time.Microsecond
}

// Before reports whether t is strictly before u.
func (t Time64) Before(u Time64) bool { return t < u }

// After reports whether t is strictly after u.
func (t Time64) After(u Time64) bool { return t > u }

// Min returns the earlier of a and b.
func Min(a, b Time64) Time64 {
	if a < b {
		return a
	}
	return b
}

// LeapTable lists the UTC instants at which a positive leap second took
// effect after Epoch.
type LeapTable struct {
	leaps []time.Time
}

// DefaultTable holds the leap seconds inserted since 2004.
var DefaultTable = NewLeapTable([]time.Time{
	time.Date(2006, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2009, time.January, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2012, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2015, time.July, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC),
})

// NewLeapTable creates a table from the given leap instants. Instants before
// Epoch are ignored.
func NewLeapTable(leaps []time.Time) *LeapTable {
	var l []time.Time
	for _, t := range leaps {
		if t.After(Epoch) {
			l = append(l, t.UTC())
		}
	}
	sort.Slice(l, func(i, j int) bool { return l[i].Before(l[j]) })
	return &LeapTable{leaps: l}
}

// Len returns the number of leap seconds in the table.
func (l *LeapTable) Len() int {
	return len(l.leaps)
}

// LeapsAt returns the number of leap seconds inserted between Epoch and t.
func (l *LeapTable) LeapsAt(t time.Time) int {
	return sort.Search(len(l.leaps), func(i int) bool { return l.leaps[i].After(t) })
}

// FromTime converts a UTC instant to Time64. Instants before Epoch map to 0.
func (l *LeapTable) FromTime(t time.Time) Time64 {
	if !t.After(Epoch) {
		return 0
	}
	d := t.Sub(Epoch) + time.Duration(l.LeapsAt(t))*time.Second
	return Time64(d.Microseconds())
}

// ToTime converts t back to UTC.
func (l *LeapTable) ToTime(t Time64) time.Time {
	elapsed := time.Duration(t) * time.Microsecond
	n := 0
	for i := 0; i <= len(l.leaps); i++ {
		m := l.LeapsAt(Epoch.Add(elapsed - time.Duration(n)*time.Second))
		if m == n {
			break
		}
		n = m
	}
	return Epoch.Add(elapsed - time.Duration(n)*time.Second)
}

// Now returns the current time as Time64 using the table.
func (l *LeapTable) Now() Time64 {
	return l.FromTime(time.Now())
}
