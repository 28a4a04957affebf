// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version exposes build version information injected via ldflags.
package version

import "fmt"

var (
	// Version is the semantic version, set at build time.
	Version = "dev"
	// GitCommit is the git commit hash, set at build time.
	GitCommit = "unknown"
	// BuildTime is the build timestamp, set at build time.
	BuildTime = "unknown"
)

// String returns a human-readable version line.
func String() string {
	return fmt.Sprintf("papyrus %s (%s, built %s)", Version, GitCommit, BuildTime)
}
