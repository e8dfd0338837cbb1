// Package timeouts defines the timeout constants shared by mindchart commands
// and stores.
package timeouts

import "time"

// SQLiteBusy caps how long a SQLite connection waits on a locked database
// before failing a statement.
const SQLiteBusy = 5 * time.Second

// TelemetryShutdown limits how long a command waits for pending spans to
// flush on exit.
const TelemetryShutdown = 5 * time.Second
