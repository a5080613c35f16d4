// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/devconsole-io/devconsole/lib/clock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSinkWriteNeverFails(t *testing.T) {
	t.Parallel()
	ring := NewRingBuffer(8, clock.Real())
	var attached atomic.Bool
	sink := NewSink(ring, nil, &attached, discardLogger())

	// Larger than the whole buffer: dropped internally, reported as
	// written. Producers never see log-path failures.
	n, err := sink.Write(make([]byte, 64))
	if err != nil || n != 64 {
		t.Errorf("Write: got (%d, %v), want (64, nil)", n, err)
	}
	if sink.DroppedBytes() != 64 {
		t.Errorf("DroppedBytes: got %d, want 64", sink.DroppedBytes())
	}
}

func TestSinkIdleHighWaterEvicts(t *testing.T) {
	t.Parallel()
	ring := NewRingBuffer(1000, clock.Real())
	var attached atomic.Bool
	sink := NewSink(ring, nil, &attached, discardLogger())

	// Fill to just under the high-water mark.
	sink.Write(make([]byte, 700))
	if ring.Len() != 700 {
		t.Fatalf("Len: got %d, want 700", ring.Len())
	}

	// The write that crosses 75% triggers eviction down below the
	// threshold: occupancy does not accumulate unbounded while nobody
	// is watching.
	sink.Write(make([]byte, 100))
	if got := ring.Len(); got >= 750 {
		t.Errorf("Len after high-water write: got %d, want below 750", got)
	}

	// Even a write that lands far past the threshold is trimmed back
	// below it in the same call.
	sink.Write(make([]byte, 240))
	if got := ring.Len(); got >= 750 {
		t.Errorf("Len after deep overshoot: got %d, want below 750", got)
	}
}

func TestSinkAttachedViewerSuppressesIdleEviction(t *testing.T) {
	t.Parallel()
	ring := NewRingBuffer(1000, clock.Real())
	var attached atomic.Bool
	attached.Store(true)
	sink := NewSink(ring, nil, &attached, discardLogger())

	sink.Write(make([]byte, 700))
	sink.Write(make([]byte, 100))
	if got := ring.Len(); got != 800 {
		t.Errorf("Len with viewer attached: got %d, want 800", got)
	}
}

func TestSinkMirrors(t *testing.T) {
	t.Parallel()
	ring := NewRingBuffer(1000, clock.Real())
	var attached atomic.Bool
	var mirror bytes.Buffer
	sink := NewSink(ring, &mirror, &attached, discardLogger())

	sink.Write([]byte("boot ok\n"))
	if got := mirror.String(); got != "boot ok\n" {
		t.Errorf("mirror: got %q, want %q", got, "boot ok\n")
	}
	if got := ring.TryDrain(0); !bytes.Equal(got, []byte("boot ok\n")) {
		t.Errorf("ring: got %q, want %q", got, "boot ok\n")
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("device gone")
}

func TestSinkMirrorFailureNonFatal(t *testing.T) {
	t.Parallel()
	ring := NewRingBuffer(1000, clock.Real())
	var attached atomic.Bool
	sink := NewSink(ring, failingWriter{}, &attached, discardLogger())

	n, err := sink.Write([]byte("still captured"))
	if err != nil || n != 14 {
		t.Errorf("Write with failing mirror: got (%d, %v), want (14, nil)", n, err)
	}
	if got := ring.TryDrain(0); !bytes.Equal(got, []byte("still captured")) {
		t.Errorf("ring after mirror failure: got %q, want %q", got, "still captured")
	}
}
