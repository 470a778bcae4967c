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

package storage

const sample = `# The trust store backend: "sqlite", "bbolt", or empty to keep loaded
# certificates and CMH files in memory only. (default "")
backend = "sqlite"

# The database file. Required for persistent backends.
connection = "/var/lib/dot2/trust.db"
`
