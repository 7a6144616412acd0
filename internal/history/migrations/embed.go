// Package migrations holds the goose migrations for the upload history database.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
