// Package migrations embeds the MySQL schema so the binaries carry it.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
