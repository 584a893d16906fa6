// Package migrations embeds the SQL migrations so the server and the migrate
// CLI can apply them without a checkout of this directory.
package migrations

import "embed"

// FS holds every *.up.sql / *.down.sql pair in this directory.
//
//go:embed *.sql
var FS embed.FS
