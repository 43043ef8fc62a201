// Package migrations embeds the goose SQL migrations for the postgres backend.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
