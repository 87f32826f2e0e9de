// SPDX-License-Identifier: MPL-2.0

// Package tui provides the terminal niceties around a provisioning run:
// a decorative progress spinner and no-echo password prompts. Both degrade
// to plain behavior when not attached to a terminal, so redirected and
// scripted runs stay clean.
package tui
