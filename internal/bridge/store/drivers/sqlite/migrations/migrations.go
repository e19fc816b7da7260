// Package migrations embeds the sqlite schema migrations so the binary
// can bootstrap its own database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
