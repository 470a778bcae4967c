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

// Package config provides the pattern every configuration block of the
// library follows.
//
// A block implements Config: InitDefaults fills in unset fields, Validate
// checks the result and Sample writes a commented TOML sample of the block.
// Tests decode the sample and compare it with the defaults, which keeps the
// documentation and the implementation consistent.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/scionproto/scion/pkg/private/serrors"
)

// Config is implemented by every configuration block.
type Config interface {
	Sampler
	Validator
	Defaulter
}

// Validator defines the validation part of Config.
type Validator interface {
	// Validate recursively checks that all fields contain valid values.
	Validate() error
}

// Defaulter defines the initialization part of Config.
type Defaulter interface {
	// InitDefaults recursively initializes the default values of all
	// uninitialized fields.
	InitDefaults()
}

// Sampler defines the sample generation part of Config.
type Sampler interface {
	// Sample writes a sample of the block to dst. It panics if writing
	// fails.
	Sample(dst io.Writer, path Path, ctx CtxMap)
}

// TableSampler is a Sampler that is written as its own TOML table.
type TableSampler interface {
	Sampler
	// ConfigName is the table name of the block.
	ConfigName() string
}

// Path is the TOML table path of a block.
type Path []string

// Extend returns a copy of the path with s appended.
func (p Path) Extend(s string) Path {
	c := append(Path(nil), p...)
	return append(c, s)
}

// NoValidator can be embedded by blocks without validation.
type NoValidator struct{}

func (NoValidator) Validate() error {
	return nil
}

// NoDefaulter can be embedded by blocks without defaults.
type NoDefaulter struct{}

func (NoDefaulter) InitDefaults() {}

// StringSampler writes Text as the sample of a table named Name.
type StringSampler struct {
	Text string
	Name string
}

func (s StringSampler) Sample(dst io.Writer, _ Path, _ CtxMap) {
	WriteString(dst, s.Text)
}

func (s StringSampler) ConfigName() string {
	return s.Name
}

// ValidateAll validates all validators and returns the first error.
func ValidateAll(validators ...Validator) error {
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return serrors.Wrap("Unable to validate", err, "type", fmt.Sprintf("%T", v))
		}
	}
	return nil
}

// InitAll initializes all defaulters.
func InitAll(defaulters ...Defaulter) {
	for _, v := range defaulters {
		v.InitDefaults()
	}
}

// Decode decodes a raw TOML config. Unknown keys are an error.
func Decode(raw []byte, cfg any) error {
	return toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(cfg)
}

// LoadFile decodes the TOML file into cfg.
func LoadFile(file string, cfg any) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	return Decode(raw, cfg)
}

// Load decodes the TOML file into cfg, initializes the defaults and
// validates the result.
func Load(file string, cfg Config) error {
	if err := LoadFile(file, cfg); err != nil {
		return serrors.Wrap("loading config", err, "file", file)
	}
	cfg.InitDefaults()
	if err := cfg.Validate(); err != nil {
		return serrors.Wrap("validating config", err, "file", file)
	}
	return nil
}
