// Package config loads, normalizes, and validates the seedpipe TOML
// configuration. Configuration is constructed once at startup and passed into
// components explicitly; nothing reads ambient global state after Load
// returns.
package config
