// Package migrations contains embedded SQL migrations for the SQLite store.
package migrations

import "embed"

// Root is the directory inside FS holding the timeline migrations.
const Root = "timeline"

//go:embed timeline/*.sql
var FS embed.FS
