// Package main provides the samplesort command-line interface.
//
// The serve command runs the daemon: the HTTP API, the websocket observer hub
// and the optional auto-group schedule. Every other command opens the item
// database directly and refuses to mutate it while a daemon holds the
// instance lock, pointing the operator at the HTTP API instead.
package main
