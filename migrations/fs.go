// Package migrations embeds the SQL schema migrations for the identity service.
package migrations

import "embed"

// FS contains the versioned .up.sql migration files, applied in name order.
//
//go:embed *.sql
var FS embed.FS
