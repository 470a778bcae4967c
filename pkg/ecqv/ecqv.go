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

// Package ecqv implements Elliptic Curve Qu-Vanstone implicit certificate key
// reconstruction on P-256.
//
// The hash input binding a certificate to its issuer is
//
//	e = SHA-256(H(issuer) ‖ H(TBS)) mod n
//
// where H is SHA-256, H(TBS) hashes the encoded ToBeSignedCertificate and
// H(issuer) hashes the encoded issuer certificate (the empty string for
// self-signed certificates). Given the requester's initial private scalar
// k_init and the private reconstruction value r delivered by the CA, the
// private key is
//
//	priv = e·k_init + r mod n
//
// and anyone holding the certificate can compute the matching public key as
//
//	Q = e·R + Q_issuer.
package ecqv

import (
	"crypto/sha256"
	"math/big"

	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/ecc"
)

// KeyPair is a reconstructed key pair.
type KeyPair struct {
	Private *big.Int
	Public  ecc.Point
}

// SelfHash is H(issuer) for self-signed certificates.
var SelfHash = sha256.Sum256(nil)

// HashInput computes e from the TBS and issuer hashes.
func HashInput(tbsHash, issuerHash [sha256.Size]byte) *big.Int {
	d := ecc.SHA256(issuerHash[:], tbsHash[:])
	return ecc.HashToScalar(d[:])
}

// HashInputFromCert decodes raw with dec and computes e from the certificate
// and the issuer hash.
func HashInputFromCert(dec cert.Decoder, raw []byte,
	issuerHash [sha256.Size]byte) (*big.Int, *cert.Certificate, error) {

	c, err := dec.DecodeCertificate(raw)
	if err != nil {
		return nil, nil, err
	}
	return HashInput(sha256.Sum256(c.TBSRaw), issuerHash), c, nil
}

// ReconstructPrivateKey returns e·kInit + r mod n.
func ReconstructPrivateKey(kInit, r, e *big.Int) *big.Int {
	priv := new(big.Int).Mul(e, kInit)
	priv.Add(priv, r)
	return priv.Mod(priv, ecc.N)
}

// ReconstructPrivateKeyFromCert reconstructs the private key of an implicit
// certificate. When issuerPub is given, the result is checked against the
// public reconstruction and a mismatch fails with
// InvalidReconstructedKeyPair.
func ReconstructPrivateKeyFromCert(dec cert.Decoder, kInit, r *big.Int, raw []byte,
	issuerHash [sha256.Size]byte, issuerPub *ecc.Point) (*KeyPair, error) {

	e, c, err := HashInputFromCert(dec, raw, issuerHash)
	if err != nil {
		return nil, err
	}
	priv := ReconstructPrivateKey(kInit, r, e)
	if priv.Sign() == 0 {
		return nil, serrors.JoinNoStack(dot2err.InvalidReconstructedKeyPair, ecc.ErrZeroScalar)
	}
	kp := &KeyPair{Private: priv, Public: ecc.BaseMul(priv)}
	if issuerPub == nil {
		return kp, nil
	}
	rv, ok := c.TBS.Key.(cert.ReconstructionValue)
	if !ok {
		return nil, serrors.JoinNoStack(dot2err.InvalidReconstructedKeyPair, nil,
			"reason", "certificate carries no reconstruction value")
	}
	q := ReconstructPublicKey(rv.Point, e, *issuerPub)
	if err := VerifyKeyPair(priv, q); err != nil {
		return nil, err
	}
	return kp, nil
}

// ReconstructPublicKey returns e·R + Qi.
func ReconstructPublicKey(r ecc.Point, e *big.Int, qi ecc.Point) ecc.Point {
	return r.Mul(e).Add(qi)
}

// ReconstructPublicKeyFromHashes computes e from the given hashes and
// returns e·R + Qi.
func ReconstructPublicKeyFromHashes(r ecc.Point, tbsHash, issuerHash [sha256.Size]byte,
	qi ecc.Point) ecc.Point {

	return ReconstructPublicKey(r, HashInput(tbsHash, issuerHash), qi)
}

// ReconstructPublicKeyFromCert reconstructs the public key of an encoded
// implicit certificate.
func ReconstructPublicKeyFromCert(dec cert.Decoder, raw []byte,
	issuerHash [sha256.Size]byte, qi ecc.Point) (ecc.Point, error) {

	e, c, err := HashInputFromCert(dec, raw, issuerHash)
	if err != nil {
		return ecc.Point{}, err
	}
	rv, ok := c.TBS.Key.(cert.ReconstructionValue)
	if !ok {
		return ecc.Point{}, serrors.JoinNoStack(dot2err.ASN1DecodeCertificate, nil,
			"reason", "certificate carries no reconstruction value")
	}
	return ReconstructPublicKey(rv.Point, e, qi), nil
}

// ReconstructPublicKeyFromIssuerCert is ReconstructPublicKeyFromCert with
// the issuer hash computed from the encoded issuer certificate.
func ReconstructPublicKeyFromIssuerCert(dec cert.Decoder, raw, issuerRaw []byte,
	qi ecc.Point) (ecc.Point, error) {

	return ReconstructPublicKeyFromCert(dec, raw, sha256.Sum256(issuerRaw), qi)
}

// PublicKey reconstructs the public key of an already decoded implicit
// certificate issued by the certificate with the given hash and key.
func PublicKey(c *cert.Certificate, issuerHash [sha256.Size]byte, qi ecc.Point) (ecc.Point,
	error) {

	rv, ok := c.TBS.Key.(cert.ReconstructionValue)
	if !ok {
		return ecc.Point{}, serrors.New("certificate carries no reconstruction value")
	}
	return ReconstructPublicKeyFromHashes(rv.Point, sha256.Sum256(c.TBSRaw), issuerHash, qi), nil
}

// VerifyKeyPair checks priv·G == q.
func VerifyKeyPair(priv *big.Int, q ecc.Point) error {
	if q.IsZero() || !ecc.BaseMul(priv).Equal(q) {
		return dot2err.InvalidReconstructedKeyPair
	}
	return nil
}
