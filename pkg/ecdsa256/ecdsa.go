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

// Package ecdsa256 implements ECDSA over P-256 with SHA-256 using
// precomputed ephemeral parameters, as used for certificates and SPDUs.
package ecdsa256

import (
	"crypto/sha256"
	"math/big"

	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/precompute"
)

var (
	// ErrInvalidSignature indicates that a signature does not verify.
	ErrInvalidSignature = serrors.New("invalid signature")
	// ErrRetry indicates that the parameters produced a degenerate signature
	// and signing must be repeated with fresh parameters.
	ErrRetry = serrors.New("degenerate signature")
)

// Digest returns SHA-256(SHA-256(data) ‖ SHA-256(signer)). signer is the
// encoded signer certificate, or nil for self-signed data.
func Digest(data, signer []byte) [sha256.Size]byte {
	h1 := sha256.Sum256(data)
	h2 := sha256.Sum256(signer)
	return ecc.SHA256(h1[:], h2[:])
}

// Sign signs digest with priv using the given parameters. form selects how
// R is encoded: ecc.XOnly or a compressed form.
func Sign(priv *big.Int, digest [sha256.Size]byte, p precompute.Params,
	form ecc.PointForm) (cert.Signature, error) {

	if p.RX == nil || p.RX.Sign() == 0 {
		return cert.Signature{}, ErrRetry
	}
	// s = k⁻¹(e + r·d) mod n
	e := ecc.HashToScalar(digest[:])
	s := new(big.Int).Mul(p.RX, priv)
	s.Add(s, e)
	s.Mul(s, p.KInv)
	s.Mod(s, ecc.N)
	if s.Sign() == 0 {
		return cert.Signature{}, ErrRetry
	}
	if form != ecc.XOnly {
		form = ecc.CompressedY0
	}
	return cert.Signature{
		R: ecc.Encode(p.R, form),
		S: ecc.ScalarBytes(s),
	}, nil
}

// SignWith signs with parameters drawn from source, retrying degenerate
// parameters.
func SignWith(source func() (precompute.Params, error), priv *big.Int,
	digest [sha256.Size]byte, form ecc.PointForm) (cert.Signature, error) {

	for i := 0; i < 8; i++ {
		p, err := source()
		if err != nil {
			return cert.Signature{}, err
		}
		sig, err := Sign(priv, digest, p, form)
		if err == ErrRetry {
			continue
		}
		return sig, err
	}
	return cert.Signature{}, ErrRetry
}

// Verify checks sig over digest against pub. Failures carry the
// SignatureVerificationFailed code.
func Verify(pub ecc.Point, digest [sha256.Size]byte, sig cert.Signature) error {
	if pub.IsZero() {
		return serrors.JoinNoStack(dot2err.SignatureVerificationFailed, ecc.ErrIdentity)
	}
	r := ecc.ScalarFromBytes(sig.R.X[:])
	s := new(big.Int).SetBytes(sig.S[:])
	if r.Sign() == 0 || s.Sign() == 0 || s.Cmp(ecc.N) >= 0 {
		return serrors.JoinNoStack(dot2err.SignatureVerificationFailed, ErrInvalidSignature,
			"reason", "scalar out of range")
	}
	w, err := ecc.ModInverse(s)
	if err != nil {
		return serrors.JoinNoStack(dot2err.SignatureVerificationFailed, err)
	}
	e := ecc.HashToScalar(digest[:])
	u1 := ecc.Mod(new(big.Int).Mul(e, w))
	u2 := ecc.Mod(new(big.Int).Mul(r, w))
	x := ecc.BaseMul(u1).Add(pub.Mul(u2))
	if x.IsZero() {
		return serrors.JoinNoStack(dot2err.SignatureVerificationFailed, ErrInvalidSignature)
	}
	xr := x.X()
	if ecc.ScalarFromBytes(xr[:]).Cmp(r) != 0 {
		return serrors.JoinNoStack(dot2err.SignatureVerificationFailed, ErrInvalidSignature)
	}
	if sig.R.Form == ecc.CompressedY0 || sig.R.Form == ecc.CompressedY1 {
		if x.YOdd() != (sig.R.Form == ecc.CompressedY1) {
			return serrors.JoinNoStack(dot2err.SignatureVerificationFailed,
				ErrInvalidSignature, "reason", "R parity mismatch")
		}
	}
	return nil
}
