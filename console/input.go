// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

package console

import "context"

// CommandRunner executes one decoded input line from the viewer. The
// console invokes it once per non-blank line; implementations route to
// whatever command table the host process provides.
type CommandRunner interface {
	Run(ctx context.Context, command string)
}

// RunnerFunc adapts a function to the CommandRunner interface.
type RunnerFunc func(ctx context.Context, command string)

// Run calls f(ctx, command).
func (f RunnerFunc) Run(ctx context.Context, command string) { f(ctx, command) }

// escape is ASCII ESC, the first byte of terminal control sequences.
const escape = 0x1B

// maxLineBytes bounds the pending input line. A viewer that never
// sends a terminator does not grow the buffer without limit; the
// oversized line is discarded.
const maxLineBytes = 1024

// lineAssembler accumulates decoded input bytes until a line
// terminator completes a line. One instance per session, reset per
// line. Both LF and bare CR terminate a line: a raw-mode terminal's
// enter key emits a lone CR, and character-mode telnet clients send
// CR NUL. The byte following a CR is swallowed when it is LF or NUL
// so CRLF and CR NUL do not produce a phantom blank line.
type lineAssembler struct {
	pending []byte

	// afterCR: the previous byte was a CR that completed a line; an
	// immediately following LF or NUL belongs to that terminator.
	afterCR bool
}

// push appends data and returns any lines completed by it, terminator
// included.
func (a *lineAssembler) push(data []byte) [][]byte {
	var lines [][]byte
	for _, b := range data {
		if a.afterCR {
			a.afterCR = false
			if b == '\n' || b == 0x00 {
				continue
			}
		}
		a.pending = append(a.pending, b)
		if b == '\n' || b == '\r' {
			a.afterCR = b == '\r'
			line := make([]byte, len(a.pending))
			copy(line, a.pending)
			lines = append(lines, line)
			a.pending = a.pending[:0]
		} else if len(a.pending) >= maxLineBytes {
			a.pending = a.pending[:0]
		}
	}
	return lines
}

// prepareCommand applies the input post-processing rules to one decoded
// line and returns the command to execute. ok is false when the line is
// blank after stripping and nothing should be forwarded.
//
// The escape rule is historical and deliberately literal: a line
// starting with ESC is scanned forward to the first 'n' byte, and that
// byte plus one more are discarded with the prefix. It targets the
// escape sequences a particular terminal sends for navigation keys; a
// line whose text legitimately contains 'n' after an ESC prefix will be
// over-stripped. Reproduced as documented rather than generalized.
func prepareCommand(line []byte) (command string, ok bool) {
	if len(line) > 0 && line[0] == escape {
		i := 0
		for i < len(line) && line[i] != 'n' {
			i++
		}
		// Skip the 'n' itself and the byte after it.
		i += 2
		if i >= len(line) {
			return "", false
		}
		line = line[i:]
	}

	if len(line) == 0 || line[0] == '\r' || line[0] == '\n' {
		return "", false
	}

	// Trim the line terminator the viewer's enter key appended.
	end := len(line)
	for end > 0 && (line[end-1] == '\r' || line[end-1] == '\n') {
		end--
	}
	if end == 0 {
		return "", false
	}
	return string(line[:end]), true
}
