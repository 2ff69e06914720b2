// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup spawns encoder subprocesses in their own process group so
// that a stop reaches every child they fork.
package procgroup
