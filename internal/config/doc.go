// Package config loads and validates the reelmatch TOML configuration.
//
// Configuration resolves from an explicit --config path, then
// ~/.config/reelmatch/config.toml, then ./reelmatch.toml. A missing file is
// not an error: defaults cover every setting.
package config
