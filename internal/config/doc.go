// Package config loads, normalizes, and validates limpa's TOML configuration.
package config
