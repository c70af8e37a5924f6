// Package config loads, normalizes, and validates makeupexam configuration.
//
// It supplies repository defaults (including the portal URL and the constant
// office, phone and campus values typed into every request), expands user
// paths with tilde shortcuts, reads TOML files, and honours environment
// fallbacks such as MAKEUPEXAM_CDP_ENDPOINT and MAKEUPEXAM_API_TOKEN.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
