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

// Package geo models the geographic regions carried in certificates and the
// locations carried in SPDU headers.
//
// Latitudes and longitudes are expressed in tenths of a microdegree, as on
// the wire.
package geo

import (
	"math"
)

const (
	// MaxLatitude is 90 degrees.
	MaxLatitude = 900_000_000
	// MaxLongitude is 180 degrees.
	MaxLongitude = 1_800_000_000

	earthRadius = 6_371_000.0
	unit        = 1e-7
)

// Location is a 2D position.
type Location struct {
	Lat int32
	Lon int32
}

// Valid reports whether the coordinates are in range.
func (l Location) Valid() bool {
	return l.Lat >= -MaxLatitude && l.Lat <= MaxLatitude &&
		l.Lon > -MaxLongitude && l.Lon <= MaxLongitude
}

// Location3D is a position with elevation, as carried in the generation
// location header. Elevation uses the wire encoding.
type Location3D struct {
	Location
	Elevation uint16
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Location) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon) - radians(a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(v int32) float64 {
	return float64(v) * unit * math.Pi / 180
}

// CountryResolver maps a location to a country code. Identified regions can
// only be checked when a resolver is available.
type CountryResolver interface {
	Country(Location) (uint16, bool)
}

// CountryResolverFunc adapts a function to CountryResolver.
type CountryResolverFunc func(Location) (uint16, bool)

func (f CountryResolverFunc) Country(l Location) (uint16, bool) {
	return f(l)
}

// Region is a certificate validity region. The implementations are Circle,
// Rectangles and Identified.
type Region interface {
	// Contains reports whether loc is inside the region. The resolver may be
	// nil.
	Contains(loc Location, r CountryResolver) bool
	region()
}

// Circle is a circular region with a radius in meters.
type Circle struct {
	Center Location
	Radius uint16
}

func (c Circle) Contains(loc Location, _ CountryResolver) bool {
	return Distance(c.Center, loc) <= float64(c.Radius)
}

func (Circle) region() {}

// Rectangle is bounded by its north-west and south-east corners.
type Rectangle struct {
	NorthWest Location
	SouthEast Location
}

// Contains reports whether loc lies inside r, boundaries included.
func (r Rectangle) Contains(loc Location) bool {
	if loc.Lat > r.NorthWest.Lat || loc.Lat < r.SouthEast.Lat {
		return false
	}
	if r.NorthWest.Lon <= r.SouthEast.Lon {
		return loc.Lon >= r.NorthWest.Lon && loc.Lon <= r.SouthEast.Lon
	}
	// Crosses the antimeridian.
	return loc.Lon >= r.NorthWest.Lon || loc.Lon <= r.SouthEast.Lon
}

// Rectangles is a region made of one or more rectangles.
type Rectangles []Rectangle

func (rs Rectangles) Contains(loc Location, _ CountryResolver) bool {
	for _, r := range rs {
		if r.Contains(loc) {
			return true
		}
	}
	return false
}

func (Rectangles) region() {}

// Identified is a region given as a list of country codes.
type Identified []uint16

// Contains is vacuously true when no resolver is available or the resolver
// does not know the location.
func (id Identified) Contains(loc Location, r CountryResolver) bool {
	if r == nil {
		return true
	}
	c, ok := r.Country(loc)
	if !ok {
		return true
	}
	for _, v := range id {
		if v == c {
			return true
		}
	}
	return false
}

func (Identified) region() {}

// Len returns the number of entries a region contributes towards the
// per-certificate region limit.
func Len(r Region) int {
	switch v := r.(type) {
	case nil:
		return 0
	case Circle:
		return 1
	case Rectangles:
		return len(v)
	case Identified:
		return len(v)
	default:
		panic("unknown region type")
	}
}
