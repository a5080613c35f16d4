// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"bytes"
	"testing"
)

func TestPrepareCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		line    []byte
		want    string
		forward bool
	}{
		{
			name:    "plain command",
			line:    []byte("status\r\n"),
			want:    "status",
			forward: true,
		},
		{
			name:    "bare newline terminator",
			line:    []byte("reboot\n"),
			want:    "reboot",
			forward: true,
		},
		{
			name:    "escape prefix stripped through n plus one byte",
			line:    []byte("\x1b[nXstatus\r\n"),
			want:    "status",
			forward: true,
		},
		{
			name:    "blank line discarded",
			line:    []byte("\r\n"),
			forward: false,
		},
		{
			name:    "leading linefeed discarded",
			line:    []byte("\nstatus"),
			forward: false,
		},
		{
			name:    "empty input discarded",
			line:    nil,
			forward: false,
		},
		{
			name:    "escape with no n byte discarded",
			line:    []byte("\x1b[A"),
			forward: false,
		},
		{
			name:    "escape stripping leaves blank line discarded",
			line:    []byte("\x1b[nX\r\n"),
			forward: false,
		},
		{
			name:    "terminator only after strip discarded",
			line:    []byte("\x1bn\r"),
			forward: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := prepareCommand(tt.line)
			if ok != tt.forward {
				t.Fatalf("forward: got %v, want %v", ok, tt.forward)
			}
			if ok && got != tt.want {
				t.Errorf("command: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLineAssemblerSplitsOnTerminator(t *testing.T) {
	t.Parallel()
	assembler := &lineAssembler{}

	if lines := assembler.push([]byte("sta")); lines != nil {
		t.Errorf("partial line: got %q, want none", lines)
	}
	lines := assembler.push([]byte("tus\r\nreb"))
	if len(lines) != 1 || !bytes.Equal(lines[0], []byte("status\r")) {
		t.Errorf("completed lines: got %q, want [status\\r]", lines)
	}
	lines = assembler.push([]byte("oot\n"))
	if len(lines) != 1 || !bytes.Equal(lines[0], []byte("reboot\n")) {
		t.Errorf("completed lines: got %q, want [reboot\\n]", lines)
	}
}

func TestLineAssemblerMultipleLinesInOnePush(t *testing.T) {
	t.Parallel()
	assembler := &lineAssembler{}

	lines := assembler.push([]byte("one\ntwo\n"))
	if len(lines) != 2 {
		t.Fatalf("lines: got %d, want 2", len(lines))
	}
	if !bytes.Equal(lines[0], []byte("one\n")) || !bytes.Equal(lines[1], []byte("two\n")) {
		t.Errorf("lines: got %q", lines)
	}
}

func TestLineAssemblerBareCRCompletesLine(t *testing.T) {
	t.Parallel()
	assembler := &lineAssembler{}

	// A raw-mode terminal's enter key sends a lone CR.
	lines := assembler.push([]byte("status\r"))
	if len(lines) != 1 || !bytes.Equal(lines[0], []byte("status\r")) {
		t.Errorf("CR-terminated line: got %q, want [status\\r]", lines)
	}
}

func TestLineAssemblerCRNulTerminator(t *testing.T) {
	t.Parallel()
	assembler := &lineAssembler{}

	// Character-mode telnet clients send CR NUL for enter. The NUL
	// belongs to the terminator and must not start the next line.
	lines := assembler.push([]byte("status\r\x00reboot\r\x00"))
	if len(lines) != 2 {
		t.Fatalf("lines: got %d, want 2", len(lines))
	}
	if !bytes.Equal(lines[0], []byte("status\r")) || !bytes.Equal(lines[1], []byte("reboot\r")) {
		t.Errorf("lines: got %q", lines)
	}
}

func TestLineAssemblerCRLFNoPhantomBlankLine(t *testing.T) {
	t.Parallel()
	assembler := &lineAssembler{}

	lines := assembler.push([]byte("one\r\ntwo\r\n"))
	if len(lines) != 2 {
		t.Fatalf("lines: got %d, want 2 (LF after CR must not complete a blank line)", len(lines))
	}
	if !bytes.Equal(lines[0], []byte("one\r")) || !bytes.Equal(lines[1], []byte("two\r")) {
		t.Errorf("lines: got %q", lines)
	}
}

func TestLineAssemblerCRLFSplitAcrossPushes(t *testing.T) {
	t.Parallel()
	assembler := &lineAssembler{}

	lines := assembler.push([]byte("one\r"))
	if len(lines) != 1 || !bytes.Equal(lines[0], []byte("one\r")) {
		t.Fatalf("first push: got %q, want [one\\r]", lines)
	}
	// The LF arriving in the next read still belongs to the CR.
	if lines := assembler.push([]byte("\ntwo\r")); len(lines) != 1 || !bytes.Equal(lines[0], []byte("two\r")) {
		t.Errorf("second push: got %q, want [two\\r]", lines)
	}
}

func TestLineAssemblerDropsOversizedLine(t *testing.T) {
	t.Parallel()
	assembler := &lineAssembler{}

	assembler.push(bytes.Repeat([]byte{'x'}, maxLineBytes))
	lines := assembler.push([]byte("short\n"))
	if len(lines) != 1 || !bytes.Equal(lines[0], []byte("short\n")) {
		t.Errorf("after oversized line: got %q, want [short\\n]", lines)
	}
}
