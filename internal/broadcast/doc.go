// Package broadcast fans grouping deltas out to websocket observers.
//
// The Hub owns the client set in a single loop goroutine. Slow clients whose
// send buffer fills are dropped rather than allowed to stall the grouping
// service; observers reconnect and refetch state over the HTTP API.
package broadcast
