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

package oer

import (
	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/spdu"
)

// Codec exposes the package functions as a value so that it can be passed
// where a codec interface is expected.
type Codec struct{}

func (Codec) DecodeCertificate(raw []byte) (*cert.Certificate, error) {
	return DecodeCertificate(raw)
}

func (Codec) DecodeSPDU(raw []byte) (*spdu.Data, error) {
	return DecodeSPDU(raw)
}

func (Codec) EncodeSPDU(d *spdu.Data) ([]byte, error) {
	return EncodeSPDU(d)
}

func (Codec) EncodeToBeSignedData(tbs *spdu.ToBeSignedData) ([]byte, error) {
	return EncodeToBeSignedData(tbs)
}
