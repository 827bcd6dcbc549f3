// Package migrations embeds the SQL schema files for the Postgres adapter.
package migrations

import "embed"

// FS contains the ordered migration files.
//
//go:embed *.sql
var FS embed.FS
