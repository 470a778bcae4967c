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

// Package profile holds the per-PSID security profiles that decide how SPDUs
// are constructed and which checks are applied when they are processed.
package profile

import (
	"sync"
	"time"

	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/ecc"
)

// Tx controls SPDU construction.
type Tx struct {
	GenTimeHdr     bool
	ExpTimeHdr     bool
	GenLocationHdr bool
	// SPDULifetime sets the expiry header relative to the generation time.
	SPDULifetime time.Duration
	// MinInterCertTime is the minimum interval between two SPDUs signed with
	// the full certificate as signer when the signer is chosen by profile.
	MinInterCertTime time.Duration
	// SignatureForm is ecc.XOnly or ecc.CompressedY0 for compressed R
	// points.
	SignatureForm ecc.PointForm
}

// Rx controls SPDU processing. Every check is off unless enabled.
type Rx struct {
	VerifyData bool
	// ReplayCheck rejects SPDUs seen within ReplayWindow.
	ReplayCheck  bool
	ReplayWindow time.Duration
	// GenTimeInPastCheck rejects SPDUs generated more than ValidityPeriod
	// ago.
	GenTimeInPastCheck bool
	ValidityPeriod     time.Duration
	// GenTimeInFutureCheck rejects SPDUs generated more than
	// AcceptableFutureDataPeriod ahead.
	GenTimeInFutureCheck       bool
	AcceptableFutureDataPeriod time.Duration
	ExpTimeCheck               bool
	// GenLocationDistanceCheck rejects SPDUs generated further than
	// ValidityDistance meters from the receiver.
	GenLocationDistanceCheck bool
	ValidityDistance         uint32
	CertExpiryCheck          bool
	// GenLocationConsistencyCheck rejects SPDUs generated outside the
	// signer's validity region.
	GenLocationConsistencyCheck bool
}

// SecProfile is the security profile of one PSID.
type SecProfile struct {
	PSID uint32
	Tx   Tx
	Rx   Rx
}

// Validate checks p for values the engine cannot act on.
func (p *SecProfile) Validate() error {
	if p.PSID > cert.MaxPSID {
		return serrors.JoinNoStack(dot2err.InvalidPSID, nil, "psid", p.PSID)
	}
	if f := p.Tx.SignatureForm; f != ecc.XOnly && f != ecc.CompressedY0 &&
		f != ecc.CompressedY1 {

		return serrors.JoinNoStack(dot2err.InvalidParams, nil,
			"reason", "unsupported signature form", "form", f)
	}
	if p.Tx.SPDULifetime < 0 || p.Tx.MinInterCertTime < 0 || p.Rx.ReplayWindow < 0 ||
		p.Rx.ValidityPeriod < 0 || p.Rx.AcceptableFutureDataPeriod < 0 {

		return serrors.JoinNoStack(dot2err.InvalidParams, nil,
			"reason", "negative duration", "psid", p.PSID)
	}
	return nil
}

// Table maps PSIDs to profiles. It is safe for concurrent use.
type Table struct {
	mtx      sync.RWMutex
	profiles map[uint32]SecProfile
}

// Add validates p and registers it, replacing an existing profile for the
// same PSID.
func (t *Table) Add(p SecProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if t.profiles == nil {
		t.profiles = make(map[uint32]SecProfile)
	}
	t.profiles[p.PSID] = p
	return nil
}

// Get returns a copy of the profile of psid.
func (t *Table) Get(psid uint32) (SecProfile, bool) {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	p, ok := t.profiles[psid]
	return p, ok
}

func (t *Table) Len() int {
	t.mtx.RLock()
	defer t.mtx.RUnlock()
	return len(t.profiles)
}
