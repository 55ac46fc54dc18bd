// Package config loads, normalizes, and validates miqa configuration.
//
// Configuration lives in TOML (default ~/.config/miqa/config.toml, falling back
// to ./miqa.toml). Load applies defaults, expands directory paths, honours the
// MIQA_API_TOKEN and MIQA_ADMIN_TOKEN environment overrides, and validates the
// result. Import and export locations are kept verbatim because they seed
// persisted settings and are expanded when used.
package config
