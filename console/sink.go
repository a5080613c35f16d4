// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"io"
	"log/slog"
	"sync/atomic"
)

// highWaterRatio is the occupancy threshold at which buffered content
// is discarded down below the threshold while no viewer is attached.
// Keeps an unobserved device from pinning the buffer at capacity and
// forcing every later write through the eviction path.
const highWaterRatio = 0.75

// Sink is the producer-facing capture writer. The redirected
// stdout/stderr stream lands here from arbitrary goroutines; each write
// is mirrored (when a mirror is configured), buffered in the ring, and
// trimmed by the idle high-water rule.
//
// Write never blocks beyond the ring's bounded lock wait and never
// reports an error: the log path is fire-and-forget and producer
// liveness wins over log completeness.
type Sink struct {
	ring   *RingBuffer
	mirror io.Writer // nil when mirroring is disabled
	logger *slog.Logger

	// attached is owned by the server: true while a viewer session
	// occupies the slot. Read here to decide whether high-water
	// trimming applies.
	attached *atomic.Bool

	dropped atomic.Uint64
}

// NewSink creates the capture sink. mirror may be nil. attached is the
// server's session-slot flag; pass a fresh atomic.Bool when running
// without a server (capture-only mode).
func NewSink(ring *RingBuffer, mirror io.Writer, attached *atomic.Bool, logger *slog.Logger) *Sink {
	return &Sink{
		ring:     ring,
		mirror:   mirror,
		logger:   logger,
		attached: attached,
	}
}

// Write implements io.Writer. It always reports full success: drops are
// counted and logged locally, never surfaced to the producer.
func (s *Sink) Write(p []byte) (int, error) {
	if s.mirror != nil {
		// Mirror failures are non-fatal; the mirror is best-effort.
		if _, err := s.mirror.Write(p); err != nil {
			s.logger.Debug("mirror write failed", "error", err)
		}
	}

	if !s.ring.TryWrite(p) {
		s.dropped.Add(uint64(len(p)))
		s.logger.Debug("log bytes dropped", "count", len(p), "total_dropped", s.dropped.Load())
	}

	// With no viewer attached the pump is not draining; once the
	// buffer reaches the high-water mark, discard oldest content down
	// below the threshold so producers keep a fast path.
	if !s.attached.Load() {
		threshold := int(highWaterRatio * float64(s.ring.Cap()))
		if used := s.ring.Len(); used >= threshold {
			s.ring.Evict(used - threshold + 1)
		}
	}

	return len(p), nil
}

// DroppedBytes returns the total number of bytes dropped on the write
// path since startup.
func (s *Sink) DroppedBytes() uint64 {
	return s.dropped.Load()
}
