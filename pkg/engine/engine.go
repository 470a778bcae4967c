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

// Package engine implements SPDU construction and processing.
//
// Processing runs the state machine
//
//	Decode → ClassifyContent → ResolveSigner → VerifySignature →
//	ConsistencyCheck → RelevanceCheck → Deliver
//
// Parameter, size, decode, protocol version, PSID and profile failures are
// returned synchronously and the callback is not invoked. Every other
// outcome, including verification and policy failures, is delivered through
// the callback before Process returns.
package engine

import (
	"context"
	"crypto/sha256"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/arc/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/scionproto/scion/pkg/log"
	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/pkg/geo"
	"github.com/openv2x/dot2/pkg/metrics"
	"github.com/openv2x/dot2/pkg/precompute"
	"github.com/openv2x/dot2/pkg/profile"
	"github.com/openv2x/dot2/pkg/spdu"
	"github.com/openv2x/dot2/pkg/store"
	"github.com/openv2x/dot2/pkg/tai"
)

const (
	// DefaultSignerCacheSize is the number of verified signer certificates
	// whose keys are kept in memory.
	DefaultSignerCacheSize = 256
	// DefaultReplayWindow applies to profiles that enable the replay check
	// without a window.
	DefaultReplayWindow = 10 * time.Second
)

// Codec encodes and decodes SPDUs.
type Codec interface {
	DecodeSPDU(raw []byte) (*spdu.Data, error)
	EncodeSPDU(d *spdu.Data) ([]byte, error)
	EncodeToBeSignedData(tbs *spdu.ToBeSignedData) ([]byte, error)
}

// Store provides the certificates and signing material.
type Store interface {
	LookupByHash(h8 cert.HashedID8) (*store.SCCEntry, bool)
	LookupSigner(h8 cert.HashedID8) (*store.EEEntry, bool)
	CacheSigner(c *cert.Certificate, pub ecc.Point, now tai.Time64) *store.EEEntry
	SigningCMH(psid uint32, now tai.Time64) (*store.CMHEntry, error)
}

// ParamSource provides precomputed signing parameters.
type ParamSource interface {
	Next() (precompute.Params, error)
}

// Profiles provides the security profiles.
type Profiles interface {
	Get(psid uint32) (profile.SecProfile, bool)
}

// Metrics of the engine. All fields are optional.
type Metrics struct {
	Processed   func(result string) metrics.Counter
	Constructed func(result string) metrics.Counter
}

// Config configures an Engine.
type Config struct {
	Codec    Codec
	Store    Store
	Params   ParamSource
	Profiles Profiles
	// Resolver maps locations to countries for identified regions. It is
	// optional. Without it identified regions are not checked, which is
	// logged once at debug level.
	Resolver geo.CountryResolver
	// SignerCacheSize is the size of the verified signer cache.
	SignerCacheSize int
	Metrics         Metrics
}

// Engine constructs and processes SPDUs. It is safe for concurrent use.
type Engine struct {
	codec    Codec
	store    Store
	params   ParamSource
	profiles Profiles
	resolver geo.CountryResolver
	metrics  Metrics

	// signers caches keys of verified signer certificates by certificate
	// digest.
	signers *arc.ARCCache[[sha256.Size]byte, ecc.Point]
	verify  singleflight.Group
	replay  *cache.Cache

	mtx      sync.Mutex
	lastCert map[uint32]certSign

	// unresolved reports the first identified region that passed unchecked.
	unresolved sync.Once
}

type certSign struct {
	at tai.Time64
	h8 cert.HashedID8
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Codec == nil || cfg.Store == nil || cfg.Params == nil || cfg.Profiles == nil {
		return nil, serrors.New("incomplete engine config")
	}
	if cfg.SignerCacheSize <= 0 {
		cfg.SignerCacheSize = DefaultSignerCacheSize
	}
	signers, err := arc.NewARC[[sha256.Size]byte, ecc.Point](cfg.SignerCacheSize)
	if err != nil {
		return nil, serrors.Wrap("creating signer cache", err)
	}
	return &Engine{
		codec:    cfg.Codec,
		store:    cfg.Store,
		params:   cfg.Params,
		profiles: cfg.Profiles,
		resolver: cfg.Resolver,
		metrics:  cfg.Metrics,
		signers:  signers,
		// Expired replay entries are purged by the ReplayPurger task.
		replay:   cache.New(DefaultReplayWindow, 0),
		lastCert: make(map[uint32]certSign),
	}, nil
}

// ReplayPurger is a periodic task that removes expired entries from the
// replay cache of an engine.
type ReplayPurger struct {
	Engine *Engine
}

func (p ReplayPurger) Name() string {
	return "dot2_replay_purger"
}

func (p ReplayPurger) Run(ctx context.Context) {
	before := p.Engine.replay.ItemCount()
	p.Engine.replay.DeleteExpired()
	if purged := before - p.Engine.replay.ItemCount(); purged > 0 {
		log.FromCtx(ctx).Debug("Purged replay cache", "entries", purged)
	}
}
