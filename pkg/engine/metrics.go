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

package engine

import (
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/metrics"
)

// resultLabel maps an error to the result label of the engine metrics.
func resultLabel(err error) string {
	switch dot2err.CodeOf(err) {
	case dot2err.Success:
		return metrics.OkSuccess
	case dot2err.NullParameters, dot2err.InvalidSPDUSize, dot2err.SPDUDecodeSPDU,
		dot2err.InvalidCertSize, dot2err.ASN1DecodeCertificate,
		dot2err.InvalidProtocolVersion, dot2err.InvalidPSID, dot2err.InvalidParams,
		dot2err.UnsupportedContentType, dot2err.InvalidSignerIDType:
		return metrics.ErrParse
	case dot2err.SignatureVerificationFailed, dot2err.InvalidReconstructedKeyPair:
		return metrics.ErrVerify
	case dot2err.NoSuchSecProfileInTable, dot2err.NoIssuerCertInSCCTable,
		dot2err.NoSignerCertInEECache, dot2err.NoAvailableCMH:
		return metrics.ErrNotFound
	case dot2err.DifferentPSID, dot2err.SignerCertNoPermission,
		dot2err.SPDUConsistencyExpTimeBeforeGenTimeInSPDU,
		dot2err.SPDUConsistencyGenLocationIsNotInSignerValidRegion,
		dot2err.SPDURelevanceTooOld, dot2err.SPDURelevanceFutureData,
		dot2err.SPDURelevanceExpired, dot2err.SPDURelevanceTooFar,
		dot2err.SPDURelevanceReplay, dot2err.SPDURelevanceCertExpired:
		return metrics.ErrPolicy
	default:
		return metrics.ErrInternal
	}
}
