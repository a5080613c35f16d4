// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"time"

	"github.com/devconsole-io/devconsole/lib/clock"
)

// DefaultCapacity is the default ring buffer size in bytes. A few KB
// holds the most recent burst of device output; the buffer is a lossy
// sliding window, not a log store.
const DefaultCapacity = 4000

// DefaultLockWait bounds how long a producer or the drain pump waits
// for the buffer lock before giving up. Producers may be time-critical
// logging paths; they drop rather than stall.
const DefaultLockWait = 50 * time.Millisecond

// RingBuffer is a fixed-capacity byte queue shared between arbitrary
// producer goroutines and one drain loop. Writes that find the buffer
// full evict the oldest content to make room; writes that cannot take
// the lock within the bounded wait drop their payload. Occupancy never
// exceeds the capacity, and no caller ever blocks past the lock bound.
//
// All methods are safe for concurrent use.
type RingBuffer struct {
	clock    clock.Clock
	lockWait time.Duration

	// sem is a one-slot semaphore guarding the fields below. A channel
	// rather than sync.Mutex so acquisition can race a clock timeout.
	sem chan struct{}

	data   []byte
	start  int // index of the oldest byte
	length int // bytes currently buffered
}

// NewRingBuffer creates a ring buffer holding up to capacity bytes,
// using clk for its bounded lock waits. Panics if capacity is not
// positive.
func NewRingBuffer(capacity int, clk clock.Clock) *RingBuffer {
	if capacity <= 0 {
		panic("console: non-positive ring buffer capacity")
	}
	return &RingBuffer{
		clock:    clk,
		lockWait: DefaultLockWait,
		sem:      make(chan struct{}, 1),
		data:     make([]byte, capacity),
	}
}

// acquire takes the buffer lock, waiting at most lockWait. Reports
// whether the lock was obtained.
func (r *RingBuffer) acquire() bool {
	select {
	case r.sem <- struct{}{}:
		return true
	default:
	}
	select {
	case r.sem <- struct{}{}:
		return true
	case <-r.clock.After(r.lockWait):
		return false
	}
}

func (r *RingBuffer) release() {
	<-r.sem
}

// TryWrite enqueues p atomically: either every byte is buffered or none
// is. If the buffer lacks room, at least len(p) bytes of the oldest
// content are evicted first and the enqueue retried once. Returns false
// when the payload was dropped: lock wait exceeded, or p is larger than
// the whole buffer even after eviction.
func (r *RingBuffer) TryWrite(p []byte) bool {
	if len(p) == 0 {
		return true
	}
	if !r.acquire() {
		return false
	}
	defer r.release()

	if len(p) > len(r.data)-r.length {
		r.evictLocked(len(p))
	}
	if len(p) > len(r.data)-r.length {
		return false
	}

	end := (r.start + r.length) % len(r.data)
	for offset := 0; offset < len(p); {
		run := len(r.data) - end
		if run > len(p)-offset {
			run = len(p) - offset
		}
		copy(r.data[end:end+run], p[offset:offset+run])
		end = (end + run) % len(r.data)
		offset += run
	}
	r.length += len(p)
	return true
}

// TryDrain removes and returns up to max of the oldest buffered bytes.
// max == 0 drains everything currently buffered. Returns nil when the
// buffer is empty or the lock wait was exceeded.
func (r *RingBuffer) TryDrain(max int) []byte {
	if !r.acquire() {
		return nil
	}
	defer r.release()

	n := r.length
	if max > 0 && n > max {
		n = max
	}
	if n == 0 {
		return nil
	}

	out := make([]byte, n)
	for copied := 0; copied < n; {
		run := len(r.data) - r.start
		if run > n-copied {
			run = n - copied
		}
		copy(out[copied:copied+run], r.data[r.start:r.start+run])
		r.start = (r.start + run) % len(r.data)
		copied += run
	}
	r.length -= n
	return out
}

// Evict discards up to n of the oldest buffered bytes without returning
// them. Used by the idle high-water policy when no viewer is attached.
func (r *RingBuffer) Evict(n int) {
	if n <= 0 || !r.acquire() {
		return
	}
	defer r.release()
	r.evictLocked(n)
}

// evictLocked discards up to n oldest bytes. Caller holds the lock.
func (r *RingBuffer) evictLocked(n int) {
	if n > r.length {
		n = r.length
	}
	r.start = (r.start + n) % len(r.data)
	r.length -= n
}

// OccupancyRatio returns buffered/capacity in [0, 1]. Returns 0 when
// the lock wait is exceeded; the ratio is advisory and callers only use
// it for backpressure decisions.
func (r *RingBuffer) OccupancyRatio() float64 {
	if !r.acquire() {
		return 0
	}
	defer r.release()
	return float64(r.length) / float64(len(r.data))
}

// Len returns the number of buffered bytes (0 on lock timeout).
func (r *RingBuffer) Len() int {
	if !r.acquire() {
		return 0
	}
	defer r.release()
	return r.length
}

// Cap returns the buffer capacity in bytes.
func (r *RingBuffer) Cap() int {
	return len(r.data)
}
