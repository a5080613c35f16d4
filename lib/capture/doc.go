// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture redirects the process's stdout and stderr into an
// arbitrary sink. The daemon points the redirection at the console
// ring buffer so everything the host program prints becomes remote
// console history, while keeping a handle on the original descriptors
// for local mirroring and the subsystem's own diagnostics.
package capture
