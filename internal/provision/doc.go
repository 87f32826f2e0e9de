// SPDX-License-Identifier: MPL-2.0

// Package provision implements the step engine at the heart of wpstack.
//
// A provisioning run is an ordered list of idempotent steps. Each step
// checks whether its effect is already present and either skips or applies;
// the runner drives them sequentially and aborts on the first failure.
// Re-running a completed sequence applies nothing, including the final web
// server restart, which only fires when an earlier step changed something.
package provision
