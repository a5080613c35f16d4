// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// The console tests coordinate goroutines (session loops, capture
// pumps) through channels. These helpers wrap the select-with-timeout
// pattern so a wedged goroutine fails the test with a message instead
// of hanging the whole run.
package testutil
