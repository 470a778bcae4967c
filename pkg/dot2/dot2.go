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

// Package dot2 is the entry point of the library. A Context owns the
// certificate tables, the security profiles, the signing parameter pipeline
// and the SPDU engine. Contexts are independent of each other and safe for
// concurrent use.
package dot2

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/scionproto/scion/pkg/log"
	"github.com/scionproto/scion/pkg/private/serrors"

	"github.com/openv2x/dot2/pkg/cert"
	"github.com/openv2x/dot2/pkg/dot2err"
	"github.com/openv2x/dot2/pkg/engine"
	"github.com/openv2x/dot2/pkg/geo"
	"github.com/openv2x/dot2/pkg/metrics"
	"github.com/openv2x/dot2/pkg/oer"
	"github.com/openv2x/dot2/pkg/precompute"
	"github.com/openv2x/dot2/pkg/profile"
	"github.com/openv2x/dot2/pkg/store"
	"github.com/openv2x/dot2/pkg/tai"
	"github.com/openv2x/dot2/private/periodic"
	"github.com/openv2x/dot2/private/storage"
	"github.com/openv2x/dot2/private/storage/cleaner"
	"github.com/openv2x/dot2/private/storage/trust"
)

type (
	ProcessParams   = engine.ProcessParams
	ConstructParams = engine.ConstructParams
	Result          = engine.Result
	Callback        = engine.Callback
)

type options struct {
	metrics  []metrics.Option
	enabled  bool
	resolver geo.CountryResolver
	clock    func() time.Time
}

// Option configures optional Context behavior.
type Option func(*options)

// WithMetrics enables prometheus metrics. Without options the metrics are
// registered with the default registerer.
func WithMetrics(opts ...metrics.Option) Option {
	return func(o *options) {
		o.enabled = true
		o.metrics = opts
	}
}

// WithCountryResolver sets the resolver used to check identified regions.
func WithCountryResolver(r geo.CountryResolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithClock replaces the wall clock used by the background EE cache sweep
// and Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// Context is a security context.
type Context struct {
	leaps    *tai.LeapTable
	clock    func() time.Time
	store    *store.Store
	profiles *profile.Table
	params   *precompute.Pipeline
	engine   *engine.Engine
	db       trust.DB
	entropy  io.Closer
	tracer   io.Closer
	runners  []*periodic.Runner

	mtx      sync.RWMutex
	callback Callback

	closeOnce sync.Once
	closeErr  error
}

// New initializes a Context. cfg is completed with defaults and validated.
// If a persistent trust store is configured, its content is loaded into the
// new Context.
func New(cfg Config, opts ...Option) (*Context, error) {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	cfg.InitDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, serrors.Wrap("validating config", err)
	}
	if cfg.Log.Level != "" {
		if err := log.Setup(log.Config{Console: log.ConsoleConfig{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
		}}); err != nil {
			return nil, serrors.Wrap("setting up logging", err)
		}
	}
	var m contextMetrics
	if o.enabled {
		m = newContextMetrics(metrics.ApplyOptions(o.metrics...).Auto())
	}

	c := &Context{
		leaps:    tai.DefaultTable,
		clock:    o.clock,
		profiles: &profile.Table{},
	}
	if err := c.init(cfg, o, m); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Context) init(cfg Config, o options, m contextMetrics) error {
	ctx := context.Background()
	if cfg.Tracing.Enabled {
		tracer, closer, err := cfg.Tracing.NewTracer("dot2")
		if err != nil {
			return serrors.Wrap("creating tracer", err)
		}
		opentracing.SetGlobalTracer(tracer)
		c.tracer = closer
	}
	if cfg.Time.LeapSecondFile != "" {
		leaps, err := tai.LoadLeapTable(cfg.Time.LeapSecondFile)
		if err != nil {
			return err
		}
		c.leaps = leaps
	}
	var random io.Reader = rand.Reader
	if cfg.Entropy.Source != "" {
		f, err := os.Open(cfg.Entropy.Source)
		if err != nil {
			return serrors.Wrap("opening entropy source", err, "path", cfg.Entropy.Source)
		}
		c.entropy = f
		random = &lockedReader{r: f}
	}
	for i := range cfg.Profiles {
		p, err := cfg.Profiles[i].SecProfile()
		if err != nil {
			return err
		}
		if err := c.profiles.Add(p); err != nil {
			return err
		}
	}

	c.store = store.New(store.Config{
		MaxSCCCerts:     cfg.Store.MaxSCCCerts,
		EECacheLifetime: cfg.Store.EECacheLifetime.Duration,
		Decoder:         oer.Codec{},
	}, m.Store)
	c.params = precompute.New(cfg.Precompute.pipeline(), random, m.Precompute)
	e, err := engine.New(engine.Config{
		Codec:           oer.Codec{},
		Store:           c.store,
		Params:          c.params,
		Profiles:        c.profiles,
		Resolver:        o.resolver,
		SignerCacheSize: cfg.Store.SignerCacheSize,
		Metrics:         m.Engine,
	})
	if err != nil {
		return err
	}
	c.engine = e

	db, err := storage.NewTrustStorage(ctx, cfg.Storage, m.Trust)
	if err != nil {
		return err
	}
	c.db = db
	if err := c.restore(ctx); err != nil {
		return serrors.Wrap("restoring trust store", err)
	}

	c.start(engine.ReplayPurger{Engine: c.engine}, m, cfg.Replay.PurgeInterval.Duration)
	if d := cfg.Store.EECacheSweepInterval.Duration; d > 0 {
		c.start(cleaner.New(c.store, c.Now, "dot2_ee_cache", m.Cleaner), m, d)
	}
	return nil
}

func (c *Context) start(task periodic.Task, m contextMetrics, period time.Duration) {
	var pm *periodic.Metrics
	if m.Periodic != nil {
		pm = m.Periodic(task.Name())
	}
	c.runners = append(c.runners, periodic.StartWithMetrics(task, pm, period, period))
}

// restore loads the persisted material in insertion order.
func (c *Context) restore(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	sccs, err := c.db.All(ctx, trust.KindSCC)
	if err != nil {
		return err
	}
	for _, raw := range sccs {
		if _, err := c.store.AddSCCCert(ctx, raw); err != nil {
			return err
		}
	}
	cmhfs, err := c.db.All(ctx, trust.KindCMHF)
	if err != nil {
		return err
	}
	for _, raw := range cmhfs {
		if _, err := c.store.LoadCMHF(ctx, raw); err != nil {
			return err
		}
	}
	log.FromCtx(ctx).Info("Restored trust store", "scc", len(sccs), "cmhf", len(cmhfs))
	slot, ok, err := c.db.ActiveSlot(ctx)
	if err != nil || !ok {
		return err
	}
	return c.store.Rotating.SetActive(slot.I, slot.J)
}

// Close stops the background tasks, drains the precompute queue, closes the
// trust store and flushes the tracer. It is safe to call Close more than once.
func (c *Context) Close() error {
	c.closeOnce.Do(func() {
		for _, r := range c.runners {
			r.Kill()
		}
		if c.params != nil {
			c.params.Close()
		}
		var errs []error
		if c.db != nil {
			if err := c.db.Close(); err != nil {
				errs = append(errs, serrors.Wrap("closing trust store", err))
			}
		}
		if c.entropy != nil {
			if err := c.entropy.Close(); err != nil {
				errs = append(errs, serrors.Wrap("closing entropy source", err))
			}
		}
		if c.tracer != nil {
			if err := c.tracer.Close(); err != nil {
				errs = append(errs, serrors.Wrap("closing tracer", err))
			}
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}

// RegisterCallback sets the callback that receives the results of
// ProcessSPDU. It replaces a previously registered callback.
func (c *Context) RegisterCallback(cb Callback) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.callback = cb
}

// AddSCCCert adds a certificate of the security credential chain. Its issuer
// must already be present unless it is a root.
func (c *Context) AddSCCCert(ctx context.Context, raw []byte) error {
	if len(raw) == 0 {
		return dot2err.NullParameters
	}
	if _, err := c.store.AddSCCCert(ctx, raw); err != nil {
		return err
	}
	return c.persist(ctx, trust.KindSCC, raw)
}

// LoadCMHF loads a CMH file. All CMH files of a Context must be of the same
// type.
func (c *Context) LoadCMHF(ctx context.Context, raw []byte) error {
	if len(raw) == 0 {
		return dot2err.NullParameters
	}
	l, err := c.store.LoadCMHF(ctx, raw)
	if err != nil {
		return err
	}
	if err := c.persist(ctx, trust.KindCMHF, raw); err != nil {
		return err
	}
	if l.Replaced != nil && !bytes.Equal(l.Replaced, raw) {
		if err := c.unpersist(ctx, trust.KindCMHF, l.Replaced); err != nil {
			return err
		}
	}
	return c.syncActiveSlot(ctx)
}

// RemoveSCCCert removes the SCC certificate with the given HashedID8. A
// certificate that issued other SCC certificates or loaded CMH entries
// cannot be removed.
func (c *Context) RemoveSCCCert(ctx context.Context, h8 cert.HashedID8) error {
	e, err := c.store.RemoveSCCCert(ctx, h8)
	if err != nil {
		return err
	}
	return c.unpersist(ctx, trust.KindSCC, e.Cert.Raw)
}

// FlushSCCCerts removes every SCC certificate. CMH material must be flushed
// first.
func (c *Context) FlushSCCCerts(ctx context.Context) error {
	if _, err := c.store.FlushSCC(ctx); err != nil {
		return err
	}
	return c.unpersistAll(ctx, trust.KindSCC)
}

// RemoveCMH removes the sequential CMH entry with the given HashedID8.
func (c *Context) RemoveCMH(ctx context.Context, h8 cert.HashedID8) error {
	e, err := c.store.RemoveSequentialCMH(ctx, h8)
	if err != nil {
		return err
	}
	return c.unpersist(ctx, trust.KindCMHF, e.Source)
}

// RemoveCMHSet removes rotating set i. If the active slot belongs to the
// set, no slot is active afterwards.
func (c *Context) RemoveCMHSet(ctx context.Context, i uint32) error {
	set, err := c.store.RemoveRotatingCMHSet(ctx, i)
	if err != nil {
		return err
	}
	if err := c.unpersist(ctx, trust.KindCMHF, set.Source); err != nil {
		return err
	}
	return c.syncActiveSlot(ctx)
}

// FlushCMH removes all CMH material and the active slot. Afterwards CMH
// files of either type can be loaded.
func (c *Context) FlushCMH(ctx context.Context) error {
	c.store.FlushCMH(ctx)
	if err := c.unpersistAll(ctx, trust.KindCMHF); err != nil {
		return err
	}
	return c.syncActiveSlot(ctx)
}

// FlushEECertCache removes every EE cache entry and returns how many were
// removed.
func (c *Context) FlushEECertCache() int {
	return c.store.FlushEECertCache()
}

func (c *Context) persist(ctx context.Context, kind trust.Kind, raw []byte) error {
	if c.db == nil {
		return nil
	}
	if _, err := c.db.Insert(ctx, kind, raw); err != nil {
		return serrors.JoinNoStack(dot2err.Internal, err, "kind", kind)
	}
	return nil
}

func (c *Context) unpersist(ctx context.Context, kind trust.Kind, raw []byte) error {
	if c.db == nil {
		return nil
	}
	if _, err := c.db.Delete(ctx, kind, raw); err != nil {
		return serrors.JoinNoStack(dot2err.Internal, err, "kind", kind)
	}
	return nil
}

func (c *Context) unpersistAll(ctx context.Context, kind trust.Kind) error {
	if c.db == nil {
		return nil
	}
	if _, err := c.db.DeleteAll(ctx, kind); err != nil {
		return serrors.JoinNoStack(dot2err.Internal, err, "kind", kind)
	}
	return nil
}

// syncActiveSlot forgets the persisted active slot once the store has none.
func (c *Context) syncActiveSlot(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	if _, _, _, ok := c.store.Rotating.Active(); ok {
		return nil
	}
	if err := c.db.ClearActiveSlot(ctx); err != nil {
		return serrors.JoinNoStack(dot2err.Internal, err)
	}
	return nil
}

// AddSecProfile adds or replaces the security profile of p.PSID.
func (c *Context) AddSecProfile(p profile.SecProfile) error {
	return c.profiles.Add(p)
}

// SetActiveCMHSlot selects slot j of rotating set i for signing.
func (c *Context) SetActiveCMHSlot(ctx context.Context, i, j uint32) error {
	if err := c.store.Rotating.SetActive(i, j); err != nil {
		return err
	}
	if c.db == nil {
		return nil
	}
	if err := c.db.SetActiveSlot(ctx, trust.Slot{I: i, J: j}); err != nil {
		return serrors.JoinNoStack(dot2err.Internal, err, "i", i, "j", j)
	}
	return nil
}

// ProcessSPDU processes raw and delivers the result to the registered
// callback before returning. Errors returned directly are not delivered.
func (c *Context) ProcessSPDU(ctx context.Context, raw []byte, params ProcessParams,
	parseCtx any) error {

	c.mtx.RLock()
	cb := c.callback
	c.mtx.RUnlock()
	return c.engine.Process(ctx, raw, params, cb, parseCtx)
}

// ConstructSPDU encodes payload as an unsecured or signed SPDU.
func (c *Context) ConstructSPDU(ctx context.Context, params ConstructParams,
	payload []byte) ([]byte, error) {

	return c.engine.Construct(ctx, params, payload)
}

// RemoveExpiredEECertCache removes EE cache entries that expired at ref and
// returns how many were removed.
func (c *Context) RemoveExpiredEECertCache(ref tai.Time64) int {
	return c.store.RemoveExpiredEECertCache(ref)
}

// Now returns the current time in TAI.
func (c *Context) Now() tai.Time64 {
	return c.leaps.FromTime(c.clock())
}

// PrecomputeStats returns a snapshot of the signing parameter pipeline.
func (c *Context) PrecomputeStats() precompute.Stats {
	return c.params.Stats()
}

// ResultCode returns the result code of err. It returns dot2err.Success for
// nil.
func ResultCode(err error) dot2err.Code {
	return dot2err.CodeOf(err)
}

type lockedReader struct {
	mtx sync.Mutex
	r   io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.r.Read(p)
}
