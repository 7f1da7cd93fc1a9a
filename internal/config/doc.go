// Package config loads, validates, and defaults preroll's TOML configuration.
//
// Configuration lives at ~/.config/preroll/config.toml (or ./preroll.toml for
// project-local overrides) and is optional; every field has a usable default.
// Path fields are tilde-expanded and normalized to absolute paths at load time.
package config
