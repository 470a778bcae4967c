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

package profile

import (
	"fmt"
	"io"
	"strings"

	"github.com/scionproto/scion/pkg/private/serrors"
	"github.com/scionproto/scion/pkg/private/util"

	"github.com/openv2x/dot2/pkg/ecc"
	"github.com/openv2x/dot2/private/config"
)

// Signature forms accepted in configuration files.
const (
	FormXOnly      = "x-only"
	FormCompressed = "compressed"
)

// TxConfig is the TOML form of Tx.
type TxConfig struct {
	GenTimeHdr       bool         `toml:"gen_time_hdr,omitempty"`
	ExpTimeHdr       bool         `toml:"exp_time_hdr,omitempty"`
	GenLocationHdr   bool         `toml:"gen_location_hdr,omitempty"`
	SPDULifetime     util.DurWrap `toml:"spdu_lifetime,omitempty"`
	MinInterCertTime util.DurWrap `toml:"min_inter_cert_time,omitempty"`
	SignatureForm    string       `toml:"signature_form,omitempty"`
}

// RxConfig is the TOML form of Rx.
type RxConfig struct {
	VerifyData                  bool         `toml:"verify_data,omitempty"`
	ReplayCheck                 bool         `toml:"replay_check,omitempty"`
	ReplayWindow                util.DurWrap `toml:"replay_window,omitempty"`
	GenTimeInPastCheck          bool         `toml:"gen_time_in_past_check,omitempty"`
	ValidityPeriod              util.DurWrap `toml:"validity_period,omitempty"`
	GenTimeInFutureCheck        bool         `toml:"gen_time_in_future_check,omitempty"`
	AcceptableFutureDataPeriod  util.DurWrap `toml:"acceptable_future_data_period,omitempty"`
	ExpTimeCheck                bool         `toml:"exp_time_check,omitempty"`
	GenLocationDistanceCheck    bool         `toml:"gen_location_distance_check,omitempty"`
	ValidityDistance            uint32       `toml:"validity_distance,omitempty"`
	CertExpiryCheck             bool         `toml:"cert_expiry_check,omitempty"`
	GenLocationConsistencyCheck bool         `toml:"gen_location_consistency_check,omitempty"`
}

// Config is the TOML form of a SecProfile.
type Config struct {
	PSID uint32   `toml:"psid"`
	Tx   TxConfig `toml:"tx,omitempty"`
	Rx   RxConfig `toml:"rx,omitempty"`
}

var _ config.Config = (*Config)(nil)

func (c *Config) InitDefaults() {
	if c.Tx.SignatureForm == "" {
		c.Tx.SignatureForm = FormXOnly
	}
}

func (c *Config) Validate() error {
	p, err := c.SecProfile()
	if err != nil {
		return err
	}
	return p.Validate()
}

// Sample writes a commented profile entry. The tx and rx tables are nested
// under path.
func (c *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteString(dst, sampleHead)
	for _, table := range []struct{ name, body string }{
		{name: "tx", body: sampleTx},
		{name: "rx", body: sampleRx},
	} {
		header := strings.Join(path.Extend(table.name), ".")
		config.WriteString(dst, fmt.Sprintf("\n[%s]\n%s", header, table.body))
	}
}

func (c *Config) ConfigName() string {
	return "profile"
}

// SecProfile converts the configuration.
func (c *Config) SecProfile() (SecProfile, error) {
	var form ecc.PointForm
	switch c.Tx.SignatureForm {
	case FormXOnly, "":
		form = ecc.XOnly
	case FormCompressed:
		form = ecc.CompressedY0
	default:
		return SecProfile{}, serrors.New("unknown signature form",
			"form", c.Tx.SignatureForm, "psid", c.PSID)
	}
	return SecProfile{
		PSID: c.PSID,
		Tx: Tx{
			GenTimeHdr:       c.Tx.GenTimeHdr,
			ExpTimeHdr:       c.Tx.ExpTimeHdr,
			GenLocationHdr:   c.Tx.GenLocationHdr,
			SPDULifetime:     c.Tx.SPDULifetime.Duration,
			MinInterCertTime: c.Tx.MinInterCertTime.Duration,
			SignatureForm:    form,
		},
		Rx: Rx{
			VerifyData:                  c.Rx.VerifyData,
			ReplayCheck:                 c.Rx.ReplayCheck,
			ReplayWindow:                c.Rx.ReplayWindow.Duration,
			GenTimeInPastCheck:          c.Rx.GenTimeInPastCheck,
			ValidityPeriod:              c.Rx.ValidityPeriod.Duration,
			GenTimeInFutureCheck:        c.Rx.GenTimeInFutureCheck,
			AcceptableFutureDataPeriod:  c.Rx.AcceptableFutureDataPeriod.Duration,
			ExpTimeCheck:                c.Rx.ExpTimeCheck,
			GenLocationDistanceCheck:    c.Rx.GenLocationDistanceCheck,
			ValidityDistance:            c.Rx.ValidityDistance,
			CertExpiryCheck:             c.Rx.CertExpiryCheck,
			GenLocationConsistencyCheck: c.Rx.GenLocationConsistencyCheck,
		},
	}, nil
}

const (
	sampleHead = `# The PSID the profile applies to. (required)
psid = 32
`
	sampleTx = `# Include the generation time header. (default false)
gen_time_hdr = true
# Include the expiry time header. (default false)
exp_time_hdr = false
# Include the generation location header. (default false)
gen_location_hdr = false
# Lifetime used for the expiry time header.
spdu_lifetime = "30s"
# Minimum interval between SPDUs signed with the full certificate.
min_inter_cert_time = "450ms"
# Signature R point form, "x-only" or "compressed". (default "x-only")
signature_form = "x-only"
`
	sampleRx = `verify_data = true
replay_check = true
replay_window = "5s"
gen_time_in_past_check = true
validity_period = "10s"
gen_time_in_future_check = true
acceptable_future_data_period = "1s"
exp_time_check = true
gen_location_distance_check = false
# Maximum distance to the sender in meters.
validity_distance = 0
cert_expiry_check = true
gen_location_consistency_check = false
`
)
