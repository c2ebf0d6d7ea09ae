// Package migrations embeds the goose SQL migrations so they can be applied
// from the server binary without shipping loose files.
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
