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
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/patrickmn/go-cache"

	"github.com/scionproto/scion/pkg/log"
	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/geo"
	"github.com/openv2x/dot2/pkg/profile"
	"github.com/openv2x/dot2/pkg/spdu"
)

// checkConsistency checks the headers against each other and against the
// signer certificate. Absent headers pass.
func (e *Engine) checkConsistency(ctx context.Context, h *spdu.HeaderInfo,
	signer *cert.Certificate, rx profile.Rx) error {

	if h.GenTime != nil && h.ExpiryTime != nil && *h.GenTime >= *h.ExpiryTime {
		return serrors.JoinNoStack(dot2err.SPDUConsistencyExpTimeBeforeGenTimeInSPDU, nil,
			"gen", *h.GenTime, "exp", *h.ExpiryTime)
	}
	if rx.GenLocationConsistencyCheck && h.GenLocation != nil && signer.TBS.Region != nil {
		if _, ok := signer.TBS.Region.(geo.Identified); ok && e.resolver == nil {
			e.unresolved.Do(func() {
				log.FromCtx(ctx).Debug("No country resolver configured, " +
					"identified regions pass the location consistency check")
			})
		}
		if !signer.TBS.Region.Contains(h.GenLocation.Location, e.resolver) {
			return serrors.JoinNoStack(
				dot2err.SPDUConsistencyGenLocationIsNotInSignerValidRegion, nil,
				"lat", h.GenLocation.Lat, "lon", h.GenLocation.Lon)
		}
	}
	return nil
}

// checkRelevance applies the relevance checks enabled in rx in order: too
// old, future, expired, too far, certificate expired and replay. The replay
// cache only records SPDUs that pass every other check.
func (e *Engine) checkRelevance(h *spdu.HeaderInfo, signer *cert.Certificate, rx profile.Rx,
	params ProcessParams, replayKey [sha256.Size]byte) error {

	now := params.CurrentTime
	if rx.GenTimeInPastCheck && h.GenTime != nil && *h.GenTime < now &&
		now.Sub(*h.GenTime) > rx.ValidityPeriod {

		return serrors.JoinNoStack(dot2err.SPDURelevanceTooOld, nil,
			"gen", *h.GenTime, "now", now)
	}
	if rx.GenTimeInFutureCheck && h.GenTime != nil &&
		*h.GenTime > now.Add(rx.AcceptableFutureDataPeriod) {

		return serrors.JoinNoStack(dot2err.SPDURelevanceFutureData, nil,
			"gen", *h.GenTime, "now", now)
	}
	if rx.ExpTimeCheck && h.ExpiryTime != nil && now > *h.ExpiryTime {
		return serrors.JoinNoStack(dot2err.SPDURelevanceExpired, nil,
			"exp", *h.ExpiryTime, "now", now)
	}
	if rx.GenLocationDistanceCheck && h.GenLocation != nil && params.RxPosition != nil {
		d := geo.Distance(h.GenLocation.Location, *params.RxPosition)
		if d > float64(rx.ValidityDistance) {
			return serrors.JoinNoStack(dot2err.SPDURelevanceTooFar, nil,
				"distance", d, "max", rx.ValidityDistance)
		}
	}
	if rx.CertExpiryCheck && !signer.ValidAt(now) {
		return serrors.JoinNoStack(dot2err.SPDURelevanceCertExpired, nil,
			"signer", signer.H8(), "now", now)
	}
	if rx.ReplayCheck {
		window := rx.ReplayWindow
		if window <= 0 {
			window = cache.DefaultExpiration
		}
		if err := e.replay.Add(hex.EncodeToString(replayKey[:]), struct{}{},
			window); err != nil {

			return serrors.JoinNoStack(dot2err.SPDURelevanceReplay, nil)
		}
	}
	return nil
}
