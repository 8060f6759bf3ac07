// Package config loads, normalizes, and validates home-server configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files from an explicit --config path, a
// config.toml beside the working directory, or the per-user default under
// ~/.config/home-server. The Config type centralizes every knob the CLI
// needs, from library directories to resample pool sizing.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical strategy names, and clear validation errors.
package config
