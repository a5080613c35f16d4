// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

// Package console implements the remote log console: a bounded
// in-memory capture of the device's output stream, served to one
// viewer at a time over the telnet protocol, with typed commands
// accepted back from the viewer.
//
// The data flow has four pieces:
//
//   - [RingBuffer]: fixed-capacity byte queue between producers and the
//     drain pump. Bounded lock waits, oldest-first eviction when full,
//     silent drop when even the bounded wait fails. Producers never
//     stall on the log path.
//   - [Sink]: the io.Writer producers actually hit. Mirrors to a
//     secondary device when configured, feeds the ring, and trims the
//     ring past 75% occupancy while no viewer is attached.
//   - [Server]: serial TCP accept loop holding the single session slot.
//     Each session runs a cooperative loop: bounded receive, decode,
//     one chunked drain, send. The backlog buffered before connect goes
//     out in one unchunked flush.
//   - the telnet package: negotiation and framing; see [telnet.Session].
//
// Decoded input lines pass through a historical escape-stripping rule
// (see prepareCommand), blank lines are dropped, and the remainder is
// handed to the host's [CommandRunner].
//
// Every stage is allowed to lose data: this is best-effort telemetry
// transport, not a log store.
package console
