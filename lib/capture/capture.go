// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// stdoutFd and stderrFd are the well-known file descriptor numbers the
// redirection replaces.
const (
	stdoutFd = 1
	stderrFd = 2
)

// Capture owns an active stdout/stderr redirection. Everything the
// process writes to either descriptor lands in the sink; the
// pre-redirect descriptors stay available through Original.
type Capture struct {
	sink io.Writer

	savedStdout int
	savedStderr int
	original    *os.File

	pipeReader *os.File
	pipeWriter *os.File

	done chan struct{}
}

// Redirect replaces the process's standard output and standard error
// with the write end of a pipe and pumps the read end into sink. The
// pump runs until Restore is called. Sink writes happen on the pump
// goroutine; the console sink is safe for that.
//
// Only the write path carries real semantics; open/close/stat of the
// original character-device shim collapse into plain pipe lifecycle
// here.
func Redirect(sink io.Writer) (*Capture, error) {
	savedStdout, err := unix.Dup(stdoutFd)
	if err != nil {
		return nil, fmt.Errorf("duplicating stdout: %w", err)
	}
	savedStderr, err := unix.Dup(stderrFd)
	if err != nil {
		unix.Close(savedStdout)
		return nil, fmt.Errorf("duplicating stderr: %w", err)
	}

	pipeReader, pipeWriter, err := os.Pipe()
	if err != nil {
		unix.Close(savedStdout)
		unix.Close(savedStderr)
		return nil, fmt.Errorf("creating capture pipe: %w", err)
	}

	if err := unix.Dup2(int(pipeWriter.Fd()), stdoutFd); err != nil {
		unix.Close(savedStdout)
		unix.Close(savedStderr)
		pipeReader.Close()
		pipeWriter.Close()
		return nil, fmt.Errorf("redirecting stdout: %w", err)
	}
	if err := unix.Dup2(int(pipeWriter.Fd()), stderrFd); err != nil {
		// Put stdout back before giving up.
		_ = unix.Dup2(savedStdout, stdoutFd)
		unix.Close(savedStdout)
		unix.Close(savedStderr)
		pipeReader.Close()
		pipeWriter.Close()
		return nil, fmt.Errorf("redirecting stderr: %w", err)
	}

	capture := &Capture{
		sink:        sink,
		savedStdout: savedStdout,
		savedStderr: savedStderr,
		original:    os.NewFile(uintptr(savedStdout), "/dev/stdout"),
		pipeReader:  pipeReader,
		pipeWriter:  pipeWriter,
		done:        make(chan struct{}),
	}
	go capture.pump()
	return capture, nil
}

// pump copies pipe output into the sink until the write side closes.
func (c *Capture) pump() {
	defer close(c.done)
	buffer := make([]byte, 4096)
	for {
		n, err := c.pipeReader.Read(buffer)
		if n > 0 {
			// The sink never returns an error by contract; ignore it
			// so a misbehaving sink cannot stop the pump early.
			_, _ = c.sink.Write(buffer[:n])
		}
		if err != nil {
			return
		}
	}
}

// Original returns the pre-redirect standard output. Diagnostics of
// the console subsystem itself go here so they cannot feed back into
// the capture pipe, and it is the default mirror device.
func (c *Capture) Original() *os.File {
	return c.original
}

// Restore puts the original descriptors back, stops the pump, and
// drains whatever was still in the pipe into the sink. The Capture is
// unusable afterwards; Original stays valid.
func (c *Capture) Restore() error {
	if err := unix.Dup2(c.savedStdout, stdoutFd); err != nil {
		return fmt.Errorf("restoring stdout: %w", err)
	}
	if err := unix.Dup2(c.savedStderr, stderrFd); err != nil {
		return fmt.Errorf("restoring stderr: %w", err)
	}
	unix.Close(c.savedStderr)

	// Dropping the last write-side reference delivers EOF to the pump
	// once the pipe is drained.
	if err := c.pipeWriter.Close(); err != nil {
		return fmt.Errorf("closing capture pipe: %w", err)
	}
	<-c.done
	return c.pipeReader.Close()
}
