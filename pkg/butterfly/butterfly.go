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

// Package butterfly implements butterfly key expansion: the derivation of
// per-slot cocoon keys from a seed key pair and an AES-128 expansion key.
package butterfly

import (
	"crypto/aes"
	"encoding/binary"
	"math/big"

	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/ecqv"
)

// KeySize is the size of an expansion key.
const KeySize = 16

// Purpose selects the expansion domain.
type Purpose uint8

const (
	Signing Purpose = iota
	Encryption
)

func (p Purpose) String() string {
	if p == Encryption {
		return "encryption"
	}
	return "signing"
}

// DeriveX builds the 16 byte PRF input for slot (i, j):
// prefix(4) ‖ i(4) ‖ j(4) ‖ 0(4), big-endian, with an all-zero prefix for
// signing and an all-one prefix for encryption.
func DeriveX(p Purpose, i, j uint32) [16]byte {
	var x [16]byte
	if p == Encryption {
		binary.BigEndian.PutUint32(x[0:4], 0xffffffff)
	}
	binary.BigEndian.PutUint32(x[4:8], i)
	binary.BigEndian.PutUint32(x[8:12], j)
	return x
}

// FIntKX computes the 48 byte intermediate value
// (AES_k(x+1) ⊕ (x+1)) ‖ (AES_k(x+2) ⊕ (x+2)) ‖ (AES_k(x+3) ⊕ (x+3)).
// The increment only touches the zero tail of x.
func FIntKX(key [KeySize]byte, x [16]byte) [48]byte {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		// Unreachable, the key length is fixed.
		panic(err)
	}
	var out [48]byte
	for m := 1; m <= 3; m++ {
		in := x
		in[15] ^= byte(m)
		dst := out[(m-1)*16 : m*16]
		block.Encrypt(dst, in[:])
		for k := range dst {
			dst[k] ^= in[k]
		}
	}
	return out
}

// FKX reduces FIntKX modulo n to a 32 byte value.
func FKX(key [KeySize]byte, x [16]byte) [ecc.ScalarSize]byte {
	v := FIntKX(key, x)
	return ecc.ScalarBytes(new(big.Int).SetBytes(v[:]))
}

func expansion(key [KeySize]byte, p Purpose, i, j uint32) *big.Int {
	f := FKX(key, DeriveX(p, i, j))
	return new(big.Int).SetBytes(f[:])
}

// CocoonPrivateKey returns seed + f_k(x(i, j)) mod n.
func CocoonPrivateKey(seed *big.Int, key [KeySize]byte, p Purpose, i, j uint32) *big.Int {
	k := expansion(key, p, i, j)
	k.Add(k, seed)
	return k.Mod(k, ecc.N)
}

// CocoonPublicKey returns seedPub + f_k(x(i, j))·G. It does not need the
// seed private key.
func CocoonPublicKey(seedPub ecc.Point, key [KeySize]byte, p Purpose, i, j uint32) ecc.Point {
	return seedPub.Add(ecc.BaseMul(expansion(key, p, i, j)))
}

// ReconstructPrivateKey derives the signing private key of slot (i, j) of an
// implicit pseudonym certificate: ECQV reconstruction with the signing
// cocoon key as initial private key.
func ReconstructPrivateKey(seed *big.Int, key [KeySize]byte, i, j uint32, r,
	e *big.Int) (*big.Int, error) {

	if seed == nil || r == nil || e == nil {
		return nil, serrors.New("missing key material")
	}
	cocoon := CocoonPrivateKey(seed, key, Signing, i, j)
	priv := ecqv.ReconstructPrivateKey(cocoon, r, e)
	if priv.Sign() == 0 {
		return nil, ecc.ErrZeroScalar
	}
	return priv, nil
}
