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
	"github.com/openv2x/dot2/pkg/tai"
	"github.com/openv2x/dot2/private/tracing"
)

// ProcessParams are the receiver side inputs of Process.
type ProcessParams struct {
	// ExpectedPSID must match the PSID of signed content.
	ExpectedPSID uint32
	// CurrentTime is the reference for the relevance checks.
	CurrentTime tai.Time64
	// RxPosition is the receiver position for the distance check. It is
	// optional.
	RxPosition *geo.Location
}

// Result is the outcome of processing one SPDU.
type Result struct {
	// Code is Success or the reason the SPDU was rejected.
	Code dot2err.Code
	// Err carries the details of a rejection.
	Err         error
	ContentType spdu.ContentType
	// Payload is the application data. It aliases the processed buffer.
	Payload []byte
	// Header is set for signed content.
	Header spdu.HeaderInfo
	// Signer is set for verified signed content.
	Signer *cert.Certificate
	// SSP is the signer's SSP for the PSID, nil if none.
	SSP []byte
}

// Callback receives processing results together with the caller's parse
// context.
type Callback func(res Result, parseCtx any)

// Process processes raw and delivers the result to cb before it returns.
func (e *Engine) Process(ctx context.Context, raw []byte, params ProcessParams, cb Callback,
	parseCtx any) error {

	span, ctx := opentracing.StartSpanFromContext(ctx, "engine.process")
	defer span.Finish()
	tracing.Component(span, "dot2")
	span.SetTag("psid", params.ExpectedPSID)

	res, err := e.process(ctx, raw, params, cb)
	if err != nil {
		e.countProcessed(err)
		tracing.Error(span, err)
		return err
	}
	e.countProcessed(res.Err)
	tracing.Error(span, res.Err)
	tracing.ResultLabel(span, resultLabel(res.Err))
	if res.Err != nil {
		log.FromCtx(ctx).Debug("SPDU rejected", "psid", params.ExpectedPSID, "err", res.Err)
	}
	cb(res, parseCtx)
	return nil
}

func (e *Engine) countProcessed(err error) {
	if e.metrics.Processed != nil {
		metrics.CounterInc(e.metrics.Processed(resultLabel(err)))
	}
}

// process returns an error for synchronous rejections and a Result for
// everything that is delivered through the callback.
func (e *Engine) process(ctx context.Context, raw []byte, params ProcessParams,
	cb Callback) (Result, error) {

	if len(raw) == 0 || cb == nil {
		return Result{}, dot2err.NullParameters
	}
	if params.ExpectedPSID > cert.MaxPSID {
		return Result{}, serrors.JoinNoStack(dot2err.InvalidPSID, nil,
			"psid", params.ExpectedPSID)
	}
	d, err := e.codec.DecodeSPDU(raw)
	if err != nil {
		return Result{}, err
	}
	if d.ProtocolVersion != spdu.ProtocolVersion {
		return Result{}, serrors.JoinNoStack(dot2err.InvalidProtocolVersion, nil,
			"version", d.ProtocolVersion)
	}
	switch c := d.Content.(type) {
	case spdu.UnsecuredContent:
		return Result{ContentType: spdu.Unsecured, Payload: c.Payload}, nil
	case spdu.EncryptedContent:
		return reject(Result{ContentType: spdu.Encrypted}, dot2err.UnsupportedContentType), nil
	case *spdu.SignedData:
		psid := c.TBS.Header.PSID
		if psid != params.ExpectedPSID {
			return Result{}, serrors.JoinNoStack(dot2err.DifferentPSID, nil,
				"expected", params.ExpectedPSID, "actual", psid)
		}
		p, ok := e.profiles.Get(psid)
		if !ok {
			return Result{}, serrors.JoinNoStack(dot2err.NoSuchSecProfileInTable, nil,
				"psid", psid)
		}
		res := Result{
			ContentType: spdu.Signed,
			Payload:     c.TBS.Payload,
			Header:      c.TBS.Header,
		}
		if !p.Rx.VerifyData {
			return res, nil
		}
		return e.verifySigned(ctx, raw, c, p, params, res), nil
	default:
		return Result{}, serrors.JoinNoStack(dot2err.SPDUDecodeSPDU, nil,
			"reason", "unknown content")
	}
}

func (e *Engine) verifySigned(ctx context.Context, raw []byte, sd *spdu.SignedData,
	p profile.SecProfile, params ProcessParams, res Result) Result {

	signer, err := e.resolveSigner(sd.Signer, p.PSID)
	if err != nil {
		return reject(res, err)
	}
	digest := ecdsa256.Digest(sd.TBSRaw, signer.Cert.Raw)
	if err := ecdsa256.Verify(signer.Public, digest, sd.Signature); err != nil {
		return reject(res, err)
	}
	if c, ok := sd.Signer.(spdu.SignerCertificate); ok {
		e.store.CacheSigner(c.Cert, signer.Public, params.CurrentTime)
	}
	res.Signer = signer.Cert
	res.SSP, _ = signer.Cert.SSP(p.PSID)
	if err := e.checkConsistency(ctx, &sd.TBS.Header, signer.Cert, p.Rx); err != nil {
		return reject(res, err)
	}
	replayKey := sha256.Sum256(raw)
	if err := e.checkRelevance(&sd.TBS.Header, signer.Cert, p.Rx, params,
		replayKey); err != nil {

		return reject(res, err)
	}
	return res
}

func reject(res Result, err error) Result {
	res.Code = dot2err.CodeOf(err)
	res.Err = err
	res.Payload = nil
	return res
}
