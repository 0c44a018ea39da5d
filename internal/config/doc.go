// Package config loads, normalizes, and validates banshee configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BANSHEE_NTFY_TOPIC. The Config type centralizes every knob the CLI and the
// transaction framework need so scratch, library, and state directories are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
