// Package config loads, normalizes, and validates Spectra configuration.
//
// Values are layered: built-in defaults, then the TOML file, then the
// environment (including a .env file in the working directory). Command-line
// flags are applied by the CLI on top of the loaded Config.
package config
