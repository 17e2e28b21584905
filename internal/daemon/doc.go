// Package daemon coordinates the long-running samplesort process.
//
// It wires configuration, the item store, the Name Allocator, the grouping
// service and the websocket hub into a single lifecycle with flock-based
// locking to prevent multiple instances writing names into the same pool. On
// start the name index is rebuilt from the store and any duplicated names
// are repaired before the HTTP API accepts edits. An optional ticker runs the
// weighted auto-group sweep.
//
// Keep orchestration here: matching and naming rules live in their own
// packages while the daemon focuses on startup, shutdown and transport.
package daemon
