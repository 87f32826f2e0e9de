// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// This package defines error types that include remediation steps, plus a
// catalog of known provisioning failures with Markdown-formatted guidance
// rendered in the terminal when a run aborts.
package issue
