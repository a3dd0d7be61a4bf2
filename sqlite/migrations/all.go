// Package migrations holds the embedded schema migration scripts for the
// catalog metadata database.
package migrations

import "embed"

//go:embed *.sql
var All embed.FS
