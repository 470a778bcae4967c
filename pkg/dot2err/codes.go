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

// Package dot2err defines the closed set of result codes reported by the
// library. Every code is a negative integer and implements the error
// interface, so it can be used as a sentinel with errors.Is and joined with a
// cause and log context using serrors.Join:
//
//	return serrors.JoinNoStack(dot2err.TooManyCertsInTable, nil, "max", max)
//
// CodeOf recovers the code from an arbitrary error chain.
package dot2err

import (
	"errors"
	"fmt"
)

// Code is a library result code. Success is 0, failures are negative.
type Code int32

const (
	// Success is not an error. It is never returned as an error value.
	Success Code = 0

	NullParameters Code = -(iota)
	InvalidCertSize
	ASN1DecodeCertificate
	InvalidSPDUSize
	SPDUDecodeSPDU
	InvalidSignerIDType
	DifferentPSID
	NoSuchSecProfileInTable
	TooManyCertsInTable
	InvalidReconstructedKeyPair
	SignatureVerificationFailed
	SPDUConsistencyExpTimeBeforeGenTimeInSPDU
	SPDUConsistencyGenLocationIsNotInSignerValidRegion
	SPDURelevanceTooOld
	NoConnectionInfo
	NoSufficientCertRequestInfo
	HTTPSTransport
	HTTPSResponse
	InvalidPSID
	InvalidProtocolVersion
	NoIssuerCertInSCCTable
	NoSignerCertInEECache
	SignerCertNoPermission
	DifferentCMHType
	NoAvailableCMH
	NoSuchCMHSlot
	InvalidCMHF
	UnsupportedContentType
	SPDURelevanceFutureData
	SPDURelevanceExpired
	SPDURelevanceTooFar
	SPDURelevanceReplay
	SPDURelevanceCertExpired
	InvalidParams
	Internal
)

var names = map[Code]string{
	Success:                     "Success",
	NullParameters:              "NullParameters",
	InvalidCertSize:             "InvalidCertSize",
	ASN1DecodeCertificate:       "ASN1_DecodeCertificate",
	InvalidSPDUSize:             "InvalidSPDUSize",
	SPDUDecodeSPDU:              "SPDU_DecodeSPDU",
	InvalidSignerIDType:         "InvalidSignerIdType",
	DifferentPSID:               "DifferentPSID",
	NoSuchSecProfileInTable:     "NoSuchSecProfileInTable",
	TooManyCertsInTable:         "TooManyCertsInTable",
	InvalidReconstructedKeyPair: "InvalidReconstructedKeyPair",
	SignatureVerificationFailed: "SignatureVerificationFailed",
	SPDUConsistencyExpTimeBeforeGenTimeInSPDU: "SPDUConsistency_" +
		"ExpTimeBeforeGenTimeInSPDU",
	SPDUConsistencyGenLocationIsNotInSignerValidRegion: "SPDUConsistency_" +
		"GenLocationIsNotInSignerValidRegion",
	SPDURelevanceTooOld:         "SPDURelevance_TooOld",
	NoConnectionInfo:            "NoConnectionInfo",
	NoSufficientCertRequestInfo: "NoSufficientCertRequestInfo",
	HTTPSTransport:              "HTTPSTransport",
	HTTPSResponse:               "HTTPSResponse",
	InvalidPSID:                 "InvalidPSID",
	InvalidProtocolVersion:      "InvalidProtocolVersion",
	NoIssuerCertInSCCTable:      "NoIssuerCertInSCCTable",
	NoSignerCertInEECache:       "NoSignerCertInEECache",
	SignerCertNoPermission:      "SignerCertNoPermission",
	DifferentCMHType:            "DifferentCMHType",
	NoAvailableCMH:              "NoAvailableCMH",
	NoSuchCMHSlot:               "NoSuchCMHSlot",
	InvalidCMHF:                 "InvalidCMHF",
	UnsupportedContentType:      "UnsupportedContentType",
	SPDURelevanceFutureData:     "SPDURelevance_FutureData",
	SPDURelevanceExpired:        "SPDURelevance_Expired",
	SPDURelevanceTooFar:         "SPDURelevance_TooFar",
	SPDURelevanceReplay:         "SPDURelevance_Replay",
	SPDURelevanceCertExpired:    "SPDURelevance_CertExpired",
	InvalidParams:               "InvalidParams",
	Internal:                    "Internal",
}

// Error implements the error interface.
func (c Code) Error() string {
	return c.String()
}

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("Code(%d)", int32(c))
}

// Known reports whether c is one of the defined codes.
func (c Code) Known() bool {
	_, ok := names[c]
	return ok
}

// CodeOf returns the first Code found in the error chain of err. A nil error
// maps to Success, an error without a code maps to Internal.
func CodeOf(err error) Code {
	if err == nil {
		return Success
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Internal
}
