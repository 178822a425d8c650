// SPDX-License-Identifier: GPL-3.0-or-later
package migrations

import "embed"

//go:embed sql/*.sql
var Files embed.FS

const Root = "sql"
