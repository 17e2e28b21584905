// Package config loads, normalizes, and validates samplesort configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SAMPLESORT_API_TOKEN. The Config type centralizes every knob the daemon and
// CLI need: storage locations, grouping window and scoring weights, naming
// limits, and the code-format rules used to decide whether an extracted or
// manually entered group is authoritative.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
