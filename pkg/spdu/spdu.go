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

// Package spdu contains the parsed representation of Ieee1609Dot2Data
// envelopes. Decoding and encoding live in package oer.
package spdu

import (
	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/geo"
	"github.com/openv2x/dot2/pkg/tai"
)

// ProtocolVersion is the only supported protocol version.
const ProtocolVersion = 3

// ContentType classifies the content of an SPDU.
type ContentType uint8

const (
	Unsecured ContentType = iota
	Signed
	Encrypted
)

func (t ContentType) String() string {
	switch t {
	case Unsecured:
		return "unsecured"
	case Signed:
		return "signed"
	case Encrypted:
		return "encrypted"
	default:
		return "unknown"
	}
}

// Data is a decoded Ieee1609Dot2Data.
type Data struct {
	ProtocolVersion uint8
	Content         Content
}

// Type returns the content type of d.
func (d *Data) Type() ContentType {
	switch d.Content.(type) {
	case UnsecuredContent:
		return Unsecured
	case *SignedData:
		return Signed
	case EncryptedContent:
		return Encrypted
	default:
		panic("unknown content type")
	}
}

// Content is the SPDU content. The implementations are UnsecuredContent,
// *SignedData and EncryptedContent.
type Content interface {
	content()
}

// UnsecuredContent carries plain application data.
type UnsecuredContent struct {
	Payload []byte
}

func (UnsecuredContent) content() {}

// EncryptedContent keeps the opaque encrypted blob.
type EncryptedContent struct {
	Raw []byte
}

func (EncryptedContent) content() {}

// SignedData is signed content.
type SignedData struct {
	TBS       ToBeSignedData
	Signer    SignerID
	Signature cert.Signature
	// TBSRaw is the encoded ToBeSignedData, set by the decoder.
	TBSRaw []byte
}

func (*SignedData) content() {}

// ToBeSignedData is the signed portion of SignedData.
type ToBeSignedData struct {
	Payload []byte
	Header  HeaderInfo
}

// HeaderInfo carries the security headers. Optional fields are nil when
// absent.
type HeaderInfo struct {
	PSID        uint32
	GenTime     *tai.Time64
	ExpiryTime  *tai.Time64
	GenLocation *geo.Location3D
}

// SignerID identifies the signer. The implementations are SignerDigest,
// SignerCertificate and SignerSelf.
type SignerID interface {
	signer()
}

// SignerDigest references a previously received certificate.
type SignerDigest struct {
	ID cert.HashedID8
}

func (SignerDigest) signer() {}

// SignerCertificate carries the signer certificate inline.
type SignerCertificate struct {
	Cert *cert.Certificate
}

func (SignerCertificate) signer() {}

// SignerSelf is a self-signed SPDU.
type SignerSelf struct{}

func (SignerSelf) signer() {}

// SignerIDType selects the signer identifier when constructing an SPDU.
type SignerIDType uint8

const (
	// SignerIDCertificate always includes the full certificate.
	SignerIDCertificate SignerIDType = iota
	// SignerIDDigest always references the certificate by digest.
	SignerIDDigest
	// SignerIDProfile lets the security profile decide.
	SignerIDProfile
)

func (t SignerIDType) String() string {
	switch t {
	case SignerIDCertificate:
		return "certificate"
	case SignerIDDigest:
		return "digest"
	case SignerIDProfile:
		return "profile"
	default:
		return "unknown"
	}
}
