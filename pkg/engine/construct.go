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

	"github.com/opentracing/opentracing-go"

	"github.com/scionproto/scion/pkg/log"
	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/ecdsa256"
	"github.com/openv2x/dot2/pkg/geo"
	"github.com/openv2x/dot2/pkg/metrics"
	"github.com/openv2x/dot2/pkg/profile"
	"github.com/openv2x/dot2/pkg/spdu"
	"github.com/openv2x/dot2/pkg/store"
	"github.com/openv2x/dot2/pkg/tai"
	"github.com/openv2x/dot2/private/tracing"
)

// ConstructParams are the sender side inputs of Construct.
type ConstructParams struct {
	// Type is spdu.Unsecured or spdu.Signed.
	Type spdu.ContentType
	// Time is the generation time.
	Time tai.Time64
	PSID uint32
	// SignerIDType selects the signer identifier of signed SPDUs.
	SignerIDType spdu.SignerIDType
	// GenLocation is required if the profile includes the generation
	// location header.
	GenLocation *geo.Location3D
	// ExpiryTime overrides the expiry derived from the profile lifetime.
	ExpiryTime *tai.Time64
}

// Construct builds an SPDU carrying payload.
func (e *Engine) Construct(ctx context.Context, params ConstructParams,
	payload []byte) ([]byte, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "engine.construct")
	defer span.Finish()
	tracing.Component(span, "dot2")
	span.SetTag("psid", params.PSID)
	span.SetTag("type", params.Type.String())

	raw, err := e.construct(ctx, params, payload)
	if e.metrics.Constructed != nil {
		metrics.CounterInc(e.metrics.Constructed(resultLabel(err)))
	}
	tracing.ResultLabel(span, resultLabel(err))
	tracing.Error(span, err)
	return raw, err
}

func (e *Engine) construct(ctx context.Context, params ConstructParams,
	payload []byte) ([]byte, error) {

	if payload == nil {
		return nil, dot2err.NullParameters
	}
	if params.PSID > cert.MaxPSID {
		return nil, serrors.JoinNoStack(dot2err.InvalidPSID, nil, "psid", params.PSID)
	}
	switch params.Type {
	case spdu.Unsecured:
		return e.codec.EncodeSPDU(&spdu.Data{
			ProtocolVersion: spdu.ProtocolVersion,
			Content:         spdu.UnsecuredContent{Payload: payload},
		})
	case spdu.Signed:
		return e.constructSigned(ctx, params, payload)
	default:
		return nil, serrors.JoinNoStack(dot2err.UnsupportedContentType, nil,
			"type", params.Type)
	}
}

func (e *Engine) constructSigned(ctx context.Context, params ConstructParams,
	payload []byte) ([]byte, error) {

	p, ok := e.profiles.Get(params.PSID)
	if !ok {
		return nil, serrors.JoinNoStack(dot2err.NoSuchSecProfileInTable, nil,
			"psid", params.PSID)
	}
	header, err := buildHeader(params, p.Tx)
	if err != nil {
		return nil, err
	}
	cmh, err := e.store.SigningCMH(params.PSID, params.Time)
	if err != nil {
		return nil, err
	}
	withCert, release, err := e.useCertificate(params, p.Tx, cmh)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			release()
		}
	}()
	tbs := spdu.ToBeSignedData{Payload: payload, Header: header}
	tbsRaw, err := e.codec.EncodeToBeSignedData(&tbs)
	if err != nil {
		return nil, serrors.Wrap("encoding tbs data", err)
	}
	digest := ecdsa256.Digest(tbsRaw, cmh.Cert.Raw)
	sig, err := ecdsa256.SignWith(e.params.Next, cmh.Private, digest, p.Tx.SignatureForm)
	if err != nil {
		return nil, serrors.JoinNoStack(dot2err.Internal, err, "psid", params.PSID)
	}
	var signer spdu.SignerID = spdu.SignerDigest{ID: cmh.H8}
	if withCert {
		signer = spdu.SignerCertificate{Cert: cmh.Cert}
	}
	raw, err := e.codec.EncodeSPDU(&spdu.Data{
		ProtocolVersion: spdu.ProtocolVersion,
		Content: &spdu.SignedData{
			TBS:       tbs,
			Signer:    signer,
			Signature: sig,
		},
	})
	if err != nil {
		return nil, err
	}
	committed = true
	log.FromCtx(ctx).Debug("Constructed signed SPDU", "psid", params.PSID,
		"with_cert", withCert, "signer", cmh.H8)
	return raw, nil
}

func buildHeader(params ConstructParams, tx profile.Tx) (spdu.HeaderInfo, error) {
	h := spdu.HeaderInfo{PSID: params.PSID}
	if tx.GenTimeHdr {
		gen := params.Time
		h.GenTime = &gen
	}
	if tx.ExpTimeHdr {
		exp := params.Time.Add(tx.SPDULifetime)
		if params.ExpiryTime != nil {
			exp = *params.ExpiryTime
		}
		h.ExpiryTime = &exp
	}
	if tx.GenLocationHdr {
		if params.GenLocation == nil || !params.GenLocation.Valid() {
			return spdu.HeaderInfo{}, serrors.JoinNoStack(dot2err.InvalidParams, nil,
				"reason", "missing or invalid generation location")
		}
		loc := *params.GenLocation
		h.GenLocation = &loc
	}
	return h, nil
}

// useCertificate decides whether the signer is identified by the full
// certificate. In profile mode the certificate is used if none was sent for
// the PSID yet, the signing certificate changed, the clock went backwards or
// at least MinInterCertTime passed since the last one.
//
// A certificate sign is reserved under the engine lock before the decision is
// returned, so concurrent calls for the same PSID agree on a single sender.
// The returned release function undoes the reservation and must be called if
// the SPDU is not produced.
func (e *Engine) useCertificate(params ConstructParams, tx profile.Tx,
	cmh *store.CMHEntry) (bool, func(), error) {

	switch params.SignerIDType {
	case spdu.SignerIDCertificate:
		e.mtx.Lock()
		defer e.mtx.Unlock()
		return true, e.reserveCertSign(params.PSID, params.Time, cmh.H8), nil
	case spdu.SignerIDDigest:
		return false, func() {}, nil
	case spdu.SignerIDProfile:
		e.mtx.Lock()
		defer e.mtx.Unlock()
		last, ok := e.lastCert[params.PSID]
		if ok && last.h8 == cmh.H8 && params.Time >= last.at &&
			params.Time.Sub(last.at) < tx.MinInterCertTime {
			return false, func() {}, nil
		}
		return true, e.reserveCertSign(params.PSID, params.Time, cmh.H8), nil
	default:
		return false, nil, serrors.JoinNoStack(dot2err.InvalidSignerIDType, nil,
			"type", params.SignerIDType)
	}
}

// reserveCertSign records a certificate sign. The caller must hold e.mtx.
func (e *Engine) reserveCertSign(psid uint32, at tai.Time64, h8 cert.HashedID8) func() {
	prev, had := e.lastCert[psid]
	cur := certSign{at: at, h8: h8}
	e.lastCert[psid] = cur
	return func() {
		e.mtx.Lock()
		defer e.mtx.Unlock()
		if e.lastCert[psid] != cur {
			return
		}
		if had {
			e.lastCert[psid] = prev
		} else {
			delete(e.lastCert, psid)
		}
	}
}
