// Package client talks to a running samplesort daemon over its HTTP API.
//
// The CLI uses it to tell whether a daemon is up before falling back to the
// local database.
package client
