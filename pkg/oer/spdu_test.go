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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/geo"
	"github.com/openv2x/dot2/pkg/oer"
	"github.com/openv2x/dot2/pkg/spdu"
	"github.com/openv2x/dot2/pkg/tai"
)

func signedSPDU(t *testing.T, signer spdu.SignerID) *spdu.Data {
	gen, exp := tai.Time64(5_000_000), tai.Time64(6_000_000)
	return &spdu.Data{
		ProtocolVersion: spdu.ProtocolVersion,
		Content: &spdu.SignedData{
			TBS: spdu.ToBeSignedData{
				Payload: []byte("basic safety message"),
				Header: spdu.HeaderInfo{
					PSID:       0x20,
					GenTime:    &gen,
					ExpiryTime: &exp,
					GenLocation: &geo.Location3D{
						Location:  geo.Location{Lat: -375_666_000, Lon: 1_269_780_000},
						Elevation: 0xf000,
					},
				},
			},
			Signer: signer,
			Signature: cert.Signature{
				R: ecc.EncodedPoint{Form: ecc.CompressedY1, X: [32]byte{1}},
				S: [32]byte{2},
			},
		},
	}
}

func TestSPDURoundTrip(t *testing.T) {
	c := implicitCert()
	_, err := oer.EncodeCertificate(c)
	require.NoError(t, err)

	testCases := map[string]*spdu.Data{
		"unsecured": {
			ProtocolVersion: spdu.ProtocolVersion,
			Content:         spdu.UnsecuredContent{Payload: []byte{1, 2, 3}},
		},
		"encrypted": {
			ProtocolVersion: spdu.ProtocolVersion,
			Content:         spdu.EncryptedContent{Raw: []byte{4, 5}},
		},
		"signed digest":      signedSPDU(t, spdu.SignerDigest{ID: cert.HashedID8{7}}),
		"signed certificate": signedSPDU(t, spdu.SignerCertificate{Cert: c}),
		"signed self":        signedSPDU(t, spdu.SignerSelf{}),
	}
	for name, d := range testCases {
		t.Run(name, func(t *testing.T) {
			raw, err := oer.EncodeSPDU(d)
			require.NoError(t, err)
			got, err := oer.DecodeSPDU(raw)
			require.NoError(t, err)
			assert.Equal(t, d.Type(), got.Type())

			if sd, ok := d.Content.(*spdu.SignedData); ok {
				tbs, err := oer.EncodeToBeSignedData(&sd.TBS)
				require.NoError(t, err)
				gotSD := got.Content.(*spdu.SignedData)
				assert.Equal(t, tbs, gotSD.TBSRaw)
				sd.TBSRaw = tbs
			}
			assert.Empty(t, cmp.Diff(d, got, pointCmp))
		})
	}
}

func TestDecodeSPDUErrors(t *testing.T) {
	valid, err := oer.EncodeSPDU(signedSPDU(t, spdu.SignerDigest{ID: cert.HashedID8{7}}))
	require.NoError(t, err)

	testCases := map[string]struct {
		Input    []byte
		Expected dot2err.Code
	}{
		"empty": {
			Input:    nil,
			Expected: dot2err.InvalidSPDUSize,
		},
		"too long": {
			Input:    make([]byte, oer.MaxSPDUSize+1),
			Expected: dot2err.InvalidSPDUSize,
		},
		"truncated": {
			Input:    valid[:len(valid)-1],
			Expected: dot2err.SPDUDecodeSPDU,
		},
		"trailing": {
			Input:    append(append([]byte{}, valid...), 0),
			Expected: dot2err.SPDUDecodeSPDU,
		},
		"unknown content": {
			Input:    []byte{3, 0x85, 0},
			Expected: dot2err.SPDUDecodeSPDU,
		},
		"not a choice tag": {
			Input:    []byte{3, 0x00, 0},
			Expected: dot2err.SPDUDecodeSPDU,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := oer.DecodeSPDU(tc.Input)
			assert.ErrorIs(t, err, tc.Expected)
		})
	}
}

func TestDecodeSPDUKeepsVersion(t *testing.T) {
	d, err := oer.DecodeSPDU([]byte{2, 0x80, 1, 0xff})
	require.NoError(t, err)
	assert.Equal(t, uint8(2), d.ProtocolVersion)
	assert.Equal(t, spdu.UnsecuredContent{Payload: []byte{0xff}}, d.Content)
}

func TestEncodeSPDUInvalidPSID(t *testing.T) {
	d := signedSPDU(t, spdu.SignerSelf{})
	d.Content.(*spdu.SignedData).TBS.Header.PSID = cert.MaxPSID + 1
	_, err := oer.EncodeSPDU(d)
	assert.Error(t, err)
}
