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

package dot2

import (
	"io"
	"net"
	"strconv"
	"time"

	"github.com/opentracing/opentracing-go"
	jaeger "github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"

	"github.com/scionproto/scion/pkg/private/serrors"
	"github.com/scionproto/scion/pkg/private/util"

	"github.com/openv2x/dot2/pkg/precompute"
	"github.com/openv2x/dot2/pkg/profile"
	"github.com/openv2x/dot2/pkg/store"
	"github.com/openv2x/dot2/private/config"
	"github.com/openv2x/dot2/private/storage"
)

const (
	DefaultPrecomputeInterval = 100 * time.Millisecond
	DefaultReplayPurge        = 10 * time.Second
)

var _ config.Config = (*Config)(nil)

// Config is the configuration of a Context.
type Config struct {
	Log        LogConfig        `toml:"log,omitempty"`
	Tracing    TracingConfig    `toml:"tracing,omitempty"`
	Precompute PrecomputeConfig `toml:"precompute,omitempty"`
	Entropy    EntropyConfig    `toml:"entropy,omitempty"`
	Time       TimeConfig       `toml:"time,omitempty"`
	Store      StoreConfig      `toml:"store,omitempty"`
	Replay     ReplayConfig     `toml:"replay,omitempty"`
	Storage    storage.DBConfig `toml:"storage,omitempty"`
	Profiles   []profile.Config `toml:"profile,omitempty"`
}

func (cfg *Config) InitDefaults() {
	config.InitAll(
		&cfg.Log,
		&cfg.Tracing,
		&cfg.Precompute,
		&cfg.Entropy,
		&cfg.Time,
		&cfg.Store,
		&cfg.Replay,
		&cfg.Storage,
	)
	for i := range cfg.Profiles {
		cfg.Profiles[i].InitDefaults()
	}
}

func (cfg *Config) Validate() error {
	if err := config.ValidateAll(
		&cfg.Log,
		&cfg.Tracing,
		&cfg.Precompute,
		&cfg.Entropy,
		&cfg.Time,
		&cfg.Store,
		&cfg.Replay,
		&cfg.Storage,
	); err != nil {
		return err
	}
	seen := make(map[uint32]bool, len(cfg.Profiles))
	for i := range cfg.Profiles {
		p := &cfg.Profiles[i]
		if err := p.Validate(); err != nil {
			return serrors.Wrap("validating profile", err, "index", i)
		}
		if seen[p.PSID] {
			return serrors.New("duplicate profile", "psid", p.PSID)
		}
		seen[p.PSID] = true
	}
	return nil
}

func (cfg *Config) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteSample(dst, path, ctx,
		&cfg.Log,
		&cfg.Tracing,
		&cfg.Precompute,
		&cfg.Entropy,
		&cfg.Time,
		&cfg.Store,
		&cfg.Replay,
		&cfg.Storage,
	)
	p := path.Extend("profile")
	config.WriteString(dst, "\n[[profile]]\n")
	(&profile.Config{}).Sample(dst, p, ctx)
}

// LogConfig configures the process logger. Logging is left untouched if
// Level is empty.
type LogConfig struct {
	Level  string `toml:"level,omitempty"`
	Format string `toml:"format,omitempty"`
}

func (cfg *LogConfig) InitDefaults() {
	if cfg.Level != "" && cfg.Format == "" {
		cfg.Format = "human"
	}
}

func (cfg *LogConfig) Validate() error {
	switch cfg.Level {
	case "", "debug", "info", "error":
	default:
		return serrors.New("unknown log level", "level", cfg.Level)
	}
	switch cfg.Format {
	case "", "human", "json":
	default:
		return serrors.New("unknown log format", "format", cfg.Format)
	}
	return nil
}

func (cfg *LogConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, logSample)
}

func (cfg *LogConfig) ConfigName() string {
	return "log"
}

// TracingConfig configures the jaeger tracer that receives the spans of the
// library.
type TracingConfig struct {
	Enabled bool `toml:"enabled,omitempty"`
	// Debug samples every trace.
	Debug bool `toml:"debug,omitempty"`
	// Agent is the address of the local jaeger agent.
	Agent string `toml:"agent,omitempty"`
	config.NoValidator
}

func (cfg *TracingConfig) InitDefaults() {
	if cfg.Agent == "" {
		cfg.Agent = net.JoinHostPort(
			jaeger.DefaultUDPSpanServerHost,
			strconv.Itoa(jaeger.DefaultUDPSpanServerPort),
		)
	}
}

func (cfg *TracingConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, tracingSample)
}

func (cfg *TracingConfig) ConfigName() string {
	return "tracing"
}

// NewTracer creates a tracer for the service id. The tracer is a no-op if
// tracing is disabled.
func (cfg *TracingConfig) NewTracer(id string) (opentracing.Tracer, io.Closer, error) {
	traceConfig := jaegercfg.Configuration{
		ServiceName: id,
		Disabled:    !cfg.Enabled,
		Reporter: &jaegercfg.ReporterConfig{
			LocalAgentHostPort: cfg.Agent,
		},
	}
	if cfg.Debug {
		traceConfig.Sampler = &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: 1,
		}
	}
	bp := jaeger.NewBinaryPropagator(nil)
	return traceConfig.NewTracer(
		jaegercfg.Extractor(opentracing.Binary, bp),
		jaegercfg.Injector(opentracing.Binary, bp))
}

// PrecomputeConfig configures the signing parameter pipeline.
type PrecomputeConfig struct {
	// Disable turns the background refill off. Signing then computes the
	// parameters inline.
	Disable    bool         `toml:"disable,omitempty"`
	Interval   util.DurWrap `toml:"interval,omitempty"`
	MaxEntries int          `toml:"max_entries,omitempty"`
	BatchSize  int          `toml:"batch_size,omitempty"`
}

func (cfg *PrecomputeConfig) InitDefaults() {
	if cfg.Interval.Duration == 0 {
		cfg.Interval.Duration = DefaultPrecomputeInterval
	}
	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = precompute.DefaultMaxEntries
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = precompute.DefaultBatchSize
	}
}

func (cfg *PrecomputeConfig) Validate() error {
	if cfg.Interval.Duration < 0 || cfg.MaxEntries < 0 || cfg.BatchSize < 0 {
		return serrors.New("negative precompute setting", "interval", cfg.Interval,
			"max_entries", cfg.MaxEntries, "batch_size", cfg.BatchSize)
	}
	return nil
}

func (cfg *PrecomputeConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, precomputeSample)
}

func (cfg *PrecomputeConfig) ConfigName() string {
	return "precompute"
}

func (cfg *PrecomputeConfig) pipeline() precompute.Config {
	c := precompute.Config{
		Interval:   cfg.Interval.Duration,
		MaxEntries: cfg.MaxEntries,
		BatchSize:  cfg.BatchSize,
	}
	if cfg.Disable {
		c.Interval = precompute.Disabled
	}
	return c
}

// EntropyConfig selects the randomness source.
type EntropyConfig struct {
	// Source is a file such as /dev/urandom. Empty selects crypto/rand.
	Source string `toml:"source,omitempty"`
	config.NoDefaulter
	config.NoValidator
}

func (cfg *EntropyConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, entropySample)
}

func (cfg *EntropyConfig) ConfigName() string {
	return "entropy"
}

// TimeConfig configures the TAI conversion.
type TimeConfig struct {
	// LeapSecondFile is an IERS leap-seconds.list file. Empty selects the
	// built-in table.
	LeapSecondFile string `toml:"leap_second_file,omitempty"`
	config.NoDefaulter
	config.NoValidator
}

func (cfg *TimeConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, timeSample)
}

func (cfg *TimeConfig) ConfigName() string {
	return "time"
}

// StoreConfig configures the certificate tables.
type StoreConfig struct {
	MaxSCCCerts     int          `toml:"max_scc_certs,omitempty"`
	EECacheLifetime util.DurWrap `toml:"ee_cache_lifetime,omitempty"`
	// EECacheSweepInterval enables a periodic EE cache sweep. Zero leaves
	// the sweep to the caller.
	EECacheSweepInterval util.DurWrap `toml:"ee_cache_sweep_interval,omitempty"`
	SignerCacheSize      int          `toml:"signer_cache_size,omitempty"`
}

func (cfg *StoreConfig) InitDefaults() {
	if cfg.MaxSCCCerts == 0 {
		cfg.MaxSCCCerts = store.DefaultMaxSCCCerts
	}
	if cfg.EECacheLifetime.Duration == 0 {
		cfg.EECacheLifetime.Duration = store.DefaultEECacheLifetime
	}
}

func (cfg *StoreConfig) Validate() error {
	if cfg.MaxSCCCerts < 0 || cfg.SignerCacheSize < 0 ||
		cfg.EECacheLifetime.Duration < 0 || cfg.EECacheSweepInterval.Duration < 0 {

		return serrors.New("negative store setting")
	}
	return nil
}

func (cfg *StoreConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, storeSample)
}

func (cfg *StoreConfig) ConfigName() string {
	return "store"
}

// ReplayConfig configures the replay cache maintenance.
type ReplayConfig struct {
	PurgeInterval util.DurWrap `toml:"purge_interval,omitempty"`
}

func (cfg *ReplayConfig) InitDefaults() {
	if cfg.PurgeInterval.Duration == 0 {
		cfg.PurgeInterval.Duration = DefaultReplayPurge
	}
}

func (cfg *ReplayConfig) Validate() error {
	if cfg.PurgeInterval.Duration < 0 {
		return serrors.New("negative replay purge interval")
	}
	return nil
}

func (cfg *ReplayConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, replaySample)
}

func (cfg *ReplayConfig) ConfigName() string {
	return "replay"
}
