// Package api defines wire-format types and converters for the HTTP API.
// It translates internal item, naming and sweep models into transport-friendly
// DTOs so clients never couple to internal types.
//
// # Key Types
//
// Item: transport representation of one photographed sample with its group,
// assigned name, confidence and lifecycle status.
//
// EditResponse: the item after an extraction, manual edit or retry plus the
// resequencing report of the groups it touched.
//
// SweepResponse: the outcome of a weighted or strict sweep.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Statuses are exposed as lowercase strings and
// timestamps use RFC3339 with milliseconds. Resequencing failures travel as
// plain messages inside the report; a partial report still comes with a 200
// because the triggering edit was applied.
package api
