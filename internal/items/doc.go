// Package items persists photographed samples in SQLite and defines their
// lifecycle statuses.
//
// The Store manages database connections, schema initialization, stats and
// health queries, and the naming write path. Group, assigned name, and group
// confidence are only ever written together through UpdateNaming (or
// UpdateName for a resequenced name) so a group never changes without its name
// being recomputed or cleared. Capture timestamps are written once at insert
// time and never updated.
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package items
