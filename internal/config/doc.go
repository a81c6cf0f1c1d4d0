// Package config loads, normalizes, and validates subforge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY. Translation prompt templates are stored as named tables so
// users can keep several and switch the active one.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
