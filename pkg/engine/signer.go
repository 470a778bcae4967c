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
	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/spdu"
	"github.com/openv2x/dot2/pkg/store"
)

type signer struct {
	Cert   *cert.Certificate
	Public ecc.Point
}

func (e *Engine) resolveSigner(id spdu.SignerID, psid uint32) (signer, error) {
	var s signer
	switch v := id.(type) {
	case spdu.SignerCertificate:
		pub, err := e.certificateKey(v.Cert)
		if err != nil {
			return signer{}, err
		}
		s = signer{Cert: v.Cert, Public: pub}
	case spdu.SignerDigest:
		entry, ok := e.store.LookupSigner(v.ID)
		if !ok {
			return signer{}, serrors.JoinNoStack(dot2err.NoSignerCertInEECache, nil,
				"h8", v.ID)
		}
		s = signer{Cert: entry.Cert, Public: entry.Public}
	case spdu.SignerSelf:
		return signer{}, serrors.JoinNoStack(dot2err.InvalidSignerIDType, nil,
			"signer", "self")
	default:
		return signer{}, dot2err.InvalidSignerIDType
	}
	if !s.Cert.Permits(psid) {
		return signer{}, serrors.JoinNoStack(dot2err.SignerCertNoPermission, nil,
			"psid", psid, "signer", s.Cert.H8())
	}
	return s, nil
}

// certificateKey verifies an inline signer certificate against its issuer
// in the SCC table and returns its verification key. Verified keys are
// cached by certificate digest, and concurrent verifications of the same
// certificate are collapsed.
func (e *Engine) certificateKey(c *cert.Certificate) (ecc.Point, error) {
	digest := c.Digest()
	if pub, ok := e.signers.Get(digest); ok {
		return pub, nil
	}
	h8 := cert.Hash8(digest)
	v, err, _ := e.verify.Do(string(digest[:]), func() (any, error) {
		id, ok := c.IssuerID()
		if !ok {
			return nil, serrors.JoinNoStack(dot2err.InvalidSignerIDType, nil,
				"reason", "self-signed signer certificate", "signer", h8)
		}
		issuer, ok := e.store.LookupByHash(id)
		if !ok {
			return nil, serrors.JoinNoStack(dot2err.NoIssuerCertInSCCTable, nil,
				"issuer", id, "signer", h8)
		}
		pub, err := store.VerifyIssued(c, issuer)
		if err != nil {
			return nil, err
		}
		e.signers.Add(digest, pub)
		return pub, nil
	})
	if err != nil {
		return ecc.Point{}, err
	}
	return v.(ecc.Point), nil
}
