// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The console subsystem promises that no producer or session loop ever
// blocks without a bound. Those bounds are all expressed against a
// [Clock] so tests can exercise the timeout branches without real
// sleeps: production code takes [Real], tests take [Fake] and call
// Advance to fire pending waits deterministically.
package clock
