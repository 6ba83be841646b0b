// Package config loads kaatna's TOML configuration.
//
// Load starts from Default, decodes the first file found (explicit path,
// ~/.config/kaatna/config.toml, then ./kaatna.toml), normalizes values and
// validates them. Command line flags are applied on top by the CLI, which then
// calls Prepare to re-run normalization and validation. Every validation
// failure wraps faults.ErrConfig.
package config
