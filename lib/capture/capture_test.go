// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
)

// lockedBuffer serializes writes from the pump goroutine against test
// reads.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Redirection tests rewire the process-global descriptors, so they
// must not run in parallel with anything.

func TestRedirectCapturesStdoutAndStderr(t *testing.T) {
	sink := &lockedBuffer{}
	capture, err := Redirect(sink)
	if err != nil {
		t.Fatalf("Redirect failed: %v", err)
	}

	fmt.Fprintln(os.Stdout, "boot: radio up")
	fmt.Fprintln(os.Stderr, "warn: low voltage")

	if err := capture.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	got := sink.String()
	if !strings.Contains(got, "boot: radio up\n") {
		t.Errorf("stdout output missing from sink: %q", got)
	}
	if !strings.Contains(got, "warn: low voltage\n") {
		t.Errorf("stderr output missing from sink: %q", got)
	}
}

func TestRestoreStopsCapture(t *testing.T) {
	sink := &lockedBuffer{}
	capture, err := Redirect(sink)
	if err != nil {
		t.Fatalf("Redirect failed: %v", err)
	}
	fmt.Fprintln(os.Stdout, "captured")
	if err := capture.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	before := sink.String()
	fmt.Fprintln(os.Stdout, "after restore")
	if got := sink.String(); got != before {
		t.Errorf("sink grew after Restore: %q -> %q", before, got)
	}
	if !strings.Contains(before, "captured\n") {
		t.Errorf("pre-restore output missing: %q", before)
	}
}

func TestOriginalSurvivesRestore(t *testing.T) {
	sink := &lockedBuffer{}
	capture, err := Redirect(sink)
	if err != nil {
		t.Fatalf("Redirect failed: %v", err)
	}
	original := capture.Original()
	if original == nil {
		t.Fatal("Original returned nil")
	}
	if err := capture.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	// The handle must still accept writes after Restore.
	if _, err := original.Write(nil); err != nil {
		t.Errorf("writing to Original after Restore: %v", err)
	}
}
