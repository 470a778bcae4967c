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

package cert

// PSIDSCMS is the PSID under which SCMS components carry their role SSP.
const PSIDSCMS = 0x23

// Role is the function of a certificate in the security credential chain.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleRoot
	RoleElector
	RoleICA
	RoleECA
	RolePCA
	RoleRA
	RoleMA
	RoleCRLSigner
	RoleEE
)

func (r Role) String() string {
	switch r {
	case RoleRoot:
		return "root"
	case RoleElector:
		return "elector"
	case RoleICA:
		return "ica"
	case RoleECA:
		return "eca"
	case RolePCA:
		return "pca"
	case RoleRA:
		return "ra"
	case RoleMA:
		return "ma"
	case RoleCRLSigner:
		return "crl-signer"
	case RoleEE:
		return "ee"
	default:
		return "unknown"
	}
}

// SSP choice indices of the SCMS role SSP.
const (
	sspElector = 0
	sspRoot    = 1
	sspPG      = 2
	sspICA     = 3
	sspECA     = 4
	sspACA     = 5
	sspCRL     = 6
	sspDCM     = 7
	sspLA      = 8
	sspLOP     = 9
	sspMA      = 10
	sspRA      = 11
)

// RoleSSP returns the SCMS SSP that Classify maps to role. It returns nil for
// roles without an SSP.
func RoleSSP(role Role) []byte {
	var idx byte
	switch role {
	case RoleRoot:
		idx = sspRoot
	case RoleElector:
		idx = sspElector
	case RoleICA:
		idx = sspICA
	case RoleECA:
		idx = sspECA
	case RolePCA:
		idx = sspACA
	case RoleRA:
		idx = sspRA
	case RoleMA:
		idx = sspMA
	case RoleCRLSigner:
		idx = sspCRL
	default:
		return nil
	}
	// Choice tag followed by the SSP version.
	return []byte{0x80 | idx, 0x01}
}

// Classify derives the role of a certificate. Self-signed certificates are
// roots. Otherwise the SCMS SSP decides, and certificates without one are
// end entities unless they carry issuing permissions.
func Classify(c *Certificate) Role {
	if c.SelfSigned() {
		return RoleRoot
	}
	if ssp, ok := c.SSP(PSIDSCMS); ok && len(ssp) > 0 && ssp[0]&0xc0 == 0x80 {
		switch ssp[0] & 0x3f {
		case sspElector:
			return RoleElector
		case sspRoot:
			return RoleRoot
		case sspICA:
			return RoleICA
		case sspECA:
			return RoleECA
		case sspACA:
			return RolePCA
		case sspCRL:
			return RoleCRLSigner
		case sspMA:
			return RoleMA
		case sspRA:
			return RoleRA
		case sspPG, sspDCM, sspLA, sspLOP:
			return RoleUnknown
		}
	}
	if len(c.TBS.CertIssuePermissions) > 0 {
		return RoleICA
	}
	return RoleEE
}
