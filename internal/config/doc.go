// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is resolved in order: compiled defaults, then the first config
// file found (~/.config/wpstack/config.cue or XDG equivalent, ./wpstack.cue,
// /etc/wpstack/config.cue), then WPSTACK_* environment variables. A --config
// flag bypasses the lookup and reads the named file exclusively.
//
// Config files are validated against a CUE schema (config_schema.cue) before
// merging, so typos in keys and out-of-range values fail with a schema error
// naming the offending field rather than being silently dropped.
package config
