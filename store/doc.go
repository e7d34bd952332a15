// Package store persists account records keyed by the authority URL they were
// issued for.
//
// The steady-state format is a JSON snapshot addressed by an afs URL, so
// production writes a file under the per-user config directory while tests can
// target mem://. One-time migration from the legacy bbolt settings database is
// kept separate from steady-state logic: a LegacySource enumerates raw entries
// and the pure Migrate function resolves the record for an authority.
package store
