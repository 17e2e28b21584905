// Package notifications pushes grouping summaries to ntfy.
//
// Sweeps and repair passes publish enumerated events through the Service
// interface. The ntfy implementation sends plain-text bodies with Title, Tags
// and Priority headers and sits behind a circuit breaker, so a dead endpoint
// costs one fast failure instead of a request timeout per event. When no topic
// is configured NewService returns a no-op.
package notifications
