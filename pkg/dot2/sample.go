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

const logSample = `# Log level: "debug", "info" or "error". Leave empty to keep the process
# logger as is. (default "")
level = "info"
# Log format: "human" or "json". (default "human")
format = "human"
`

const tracingSample = `# Report spans to a jaeger agent. (default false)
enabled = false
# Sample every trace. (default false)
debug = false
# Address of the local agent that handles the reported traces.
# (default "localhost:6831")
agent = "localhost:6831"
`

const precomputeSample = `# Disable the background refill of signing parameters. (default false)
disable = false
# Refill interval. (default "100ms")
interval = "100ms"
# Maximum number of queued parameters. (default 100)
max_entries = 100
# Parameters added per refill at most. (default 10)
batch_size = 10
`

const entropySample = `# Randomness source file. Empty selects the operating system CSPRNG.
# (default "")
source = "/dev/urandom"
`

const timeSample = `# IERS leap-seconds.list file. Empty selects the built-in table.
# (default "")
leap_second_file = ""
`

const storeSample = `# Maximum number of SCC certificates. (default 64)
max_scc_certs = 64
# Time a verified signer certificate stays in the EE cache. (default "10m")
ee_cache_lifetime = "10m"
# Interval of the EE cache sweep. Zero disables it. (default "0s")
ee_cache_sweep_interval = "1m"
# Number of verified signer keys kept. (default 256)
signer_cache_size = 256
`

const replaySample = `# Interval at which expired replay cache entries are purged. (default "10s")
purge_interval = "10s"
`
