// Package migrations embeds the goose SQL migration files.
package migrations

import "embed"

// FS contains the embedded migration files, applied in lexical order by goose.
//
//go:embed *.sql
var FS embed.FS
