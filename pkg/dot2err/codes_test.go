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

package dot2err_test

import (
	"errors"
	"testing"

	"github.com/scionproto/scion/pkg/private/serrors"
	"github.com/stretchr/testify/assert"

	"github.com/openv2x/dot2/pkg/dot2err"
)

func TestCodeValues(t *testing.T) {
	assert.Equal(t, dot2err.Code(-1), dot2err.NullParameters)
	assert.Equal(t, dot2err.Code(-2), dot2err.InvalidCertSize)
	assert.Less(t, int32(dot2err.Internal), int32(dot2err.SPDURelevanceTooOld))
	assert.Equal(t, "SPDU_DecodeSPDU", dot2err.SPDUDecodeSPDU.Error())
	assert.Equal(t, "ASN1_DecodeCertificate", dot2err.ASN1DecodeCertificate.String())
	assert.False(t, dot2err.Code(-1000).Known())
	assert.Equal(t, "Code(-1000)", dot2err.Code(-1000).String())
}

func TestCodeOf(t *testing.T) {
	testCases := map[string]struct {
		Err      error
		Expected dot2err.Code
	}{
		"nil": {
			Err:      nil,
			Expected: dot2err.Success,
		},
		"plain code": {
			Err:      dot2err.DifferentPSID,
			Expected: dot2err.DifferentPSID,
		},
		"joined with cause": {
			Err: serrors.JoinNoStack(dot2err.TooManyCertsInTable,
				errors.New("table full"), "max", 3),
			Expected: dot2err.TooManyCertsInTable,
		},
		"wrapped": {
			Err: serrors.Wrap("adding certificate",
				serrors.JoinNoStack(dot2err.ASN1DecodeCertificate, nil)),
			Expected: dot2err.ASN1DecodeCertificate,
		},
		"unknown error": {
			Err:      errors.New("boom"),
			Expected: dot2err.Internal,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.Expected, dot2err.CodeOf(tc.Err))
			if tc.Err != nil && tc.Expected != dot2err.Internal {
				assert.ErrorIs(t, tc.Err, tc.Expected)
			}
		})
	}
}
