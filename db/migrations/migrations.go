// Package migrations embeds the schema migration files so migrations can run
// at startup without a deployed migrations directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
