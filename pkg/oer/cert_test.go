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

package oer_test

import (
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/geo"
	"github.com/openv2x/dot2/pkg/oer"
)

var pointCmp = cmp.Comparer(func(a, b ecc.Point) bool { return a.Equal(b) })

func implicitCert() *cert.Certificate {
	enc := ecc.BaseMul(big.NewInt(77))
	return &cert.Certificate{
		Type:   cert.Implicit,
		Issuer: cert.IssuerDigest{ID: cert.HashedID8{1, 2, 3, 4, 5, 6, 7, 8}},
		TBS: cert.ToBeSigned{
			ID:         cert.IDBinary{0xaa, 0xbb},
			CRACAID:    cert.HashedID3{1, 2, 3},
			CRLSeries:  4,
			ValidStart: 1_000,
			ValidEnd:   2_000,
			Region: geo.Circle{
				Center: geo.Location{Lat: 375_666_000, Lon: 1_269_780_000},
				Radius: 5_000,
			},
			AppPermissions: []cert.PsidSsp{
				{PSID: 0x20},
				{PSID: 0x26, SSP: []byte{}},
				{PSID: 0x87, SSP: []byte{0x00, 0x01}},
			},
			Key:           cert.ReconstructionValue{Point: ecc.BaseMul(big.NewInt(11))},
			EncryptionKey: &enc,
		},
	}
}

func explicitCACert() *cert.Certificate {
	return &cert.Certificate{
		Type:   cert.Explicit,
		Issuer: cert.IssuerSelf{},
		TBS: cert.ToBeSigned{
			ID:         cert.IDName("root.example"),
			ValidStart: 1,
			ValidEnd:   1 << 40,
			Region: geo.Rectangles{{
				NorthWest: geo.Location{Lat: 10, Lon: -10},
				SouthEast: geo.Location{Lat: -10, Lon: 10},
			}},
			CertIssuePermissions: []cert.PsidGroupPermissions{
				{MinChainLength: 1, ChainLengthRange: -1, EEType: cert.EETypeApp},
				{
					Subject:        []cert.PsidSsp{{PSID: 0x20}},
					MinChainLength: 2,
					EEType:         cert.EETypeApp | cert.EETypeEnrollment,
				},
			},
			Key: cert.VerificationKey{Point: ecc.BaseMul(big.NewInt(5))},
		},
		Signature: &cert.Signature{
			R: ecc.EncodedPoint{Form: ecc.XOnly, X: [32]byte{9}},
			S: [32]byte{31: 1},
		},
	}
}

func TestCertificateRoundTrip(t *testing.T) {
	testCases := map[string]*cert.Certificate{
		"implicit": implicitCert(),
		"explicit": explicitCACert(),
	}
	for name, c := range testCases {
		t.Run(name, func(t *testing.T) {
			raw, err := oer.EncodeCertificate(c)
			require.NoError(t, err)
			assert.Equal(t, raw, c.Raw)

			got, err := oer.DecodeCertificate(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, got.Raw)
			assert.Equal(t, c.TBSRaw, got.TBSRaw)
			assert.Empty(t, cmp.Diff(c, got, pointCmp))
		})
	}
}

func TestDecodeCertificateErrors(t *testing.T) {
	valid, err := oer.EncodeCertificate(implicitCert())
	require.NoError(t, err)

	tooManyRegions := implicitCert()
	rects := make(geo.Rectangles, cert.MaxRegions+1)
	tooManyRegions.TBS.Region = rects
	_, err = oer.EncodeCertificate(tooManyRegions)
	assert.ErrorIs(t, err, oer.ErrLimitExceeded)

	tooManyPerms := implicitCert()
	tooManyPerms.TBS.AppPermissions = make([]cert.PsidSsp, cert.MaxPermissions+1)
	_, err = oer.EncodeCertificate(tooManyPerms)
	assert.ErrorIs(t, err, oer.ErrLimitExceeded)

	testCases := map[string]struct {
		Input    []byte
		Expected dot2err.Code
	}{
		"too short": {
			Input:    valid[:oer.MinCertSize-1],
			Expected: dot2err.InvalidCertSize,
		},
		"too long": {
			Input:    make([]byte, oer.MaxCertSize+1),
			Expected: dot2err.InvalidCertSize,
		},
		"truncated": {
			Input:    valid[:len(valid)-1],
			Expected: dot2err.ASN1DecodeCertificate,
		},
		"trailing data": {
			Input:    append(append([]byte{}, valid...), 0),
			Expected: dot2err.ASN1DecodeCertificate,
		},
		"bad version": {
			Input:    withByte(valid, 1, 2),
			Expected: dot2err.ASN1DecodeCertificate,
		},
		"implicit with signature flag": {
			Input:    withByte(valid, 0, 0x80),
			Expected: dot2err.ASN1DecodeCertificate,
		},
		"region list over limit": {
			Input:    regionOverLimit(t),
			Expected: dot2err.ASN1DecodeCertificate,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := oer.DecodeCertificate(tc.Input)
			assert.ErrorIs(t, err, tc.Expected)
		})
	}
}

func TestEncodeCertificateInvalid(t *testing.T) {
	c := implicitCert()
	c.TBS.ValidEnd = c.TBS.ValidStart
	_, err := oer.EncodeCertificate(c)
	assert.Error(t, err)

	c = explicitCACert()
	c.Signature = nil
	_, err = oer.EncodeCertificate(c)
	assert.Error(t, err)

	c = implicitCert()
	c.TBS.Key = nil
	_, err = oer.EncodeCertificate(c)
	assert.Error(t, err)
}

func withByte(b []byte, i int, v byte) []byte {
	c := append([]byte{}, b...)
	c[i] = v
	return c
}

// regionOverLimit patches the identified region count of an encoded
// certificate to exceed the region limit.
func regionOverLimit(t *testing.T) []byte {
	c := implicitCert()
	c.TBS.Region = geo.Identified{1, 2}
	raw, err := oer.EncodeCertificate(c)
	require.NoError(t, err)
	// preamble, version, type, issuer(9), tbs preamble, id(4), craca(3),
	// crl series(2), validity(16), region tag, quantity length, quantity.
	idx := 3 + 9 + 1 + 4 + 3 + 2 + 16 + 1 + 1
	require.Equal(t, byte(2), raw[idx])
	return withByte(raw, idx, cert.MaxRegions+1)
}
