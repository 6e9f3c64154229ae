// Package migrations embeds the SQL schema for every supported driver. Each
// driver has its own directory of golang-migrate files.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite3/*.sql
var FS embed.FS
