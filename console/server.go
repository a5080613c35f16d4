// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/devconsole-io/devconsole/telnet"
)

// DefaultChunkBytes bounds one drain-and-send cycle. Chunking keeps a
// large backlog flush from monopolizing the socket and starving
// negotiation replies; per-iteration latency stays predictable.
const DefaultChunkBytes = 500

// DefaultListen is the conventional telnet port.
const DefaultListen = ":23"

// receiveBufferSize is the per-session read buffer.
const receiveBufferSize = 1024

// receiveWait bounds one socket receive attempt. The session loop is
// cooperative: receive for at most this long, then run a drain cycle.
const receiveWait = 50 * time.Millisecond

// ServerConfig carries the tunables the server needs. Zero values fall
// back to the package defaults.
type ServerConfig struct {
	// Listen is the TCP listen address, e.g. ":23".
	Listen string

	// ChunkBytes is the per-cycle drain limit.
	ChunkBytes int

	// TerminalType answers the peer's terminal-type query.
	TerminalType string
}

// Server owns the listening socket, the single session slot, and the
// drain pump. One viewer at a time: sessions are strictly serial, and a
// second connection waits in the accept backlog until the slot frees.
type Server struct {
	listen   string
	chunk    int
	termType string

	ring   *RingBuffer
	runner CommandRunner
	echo   io.Writer // mirror for accepted commands; nil when disabled
	logger *slog.Logger

	// attached is the session-slot flag: true from accept to teardown.
	// Shared with the Sink for the idle high-water rule.
	attached atomic.Bool

	// ready is closed once the listener is bound; addr then holds the
	// bound address. Lets callers use ":0" and discover the port.
	ready chan struct{}
	addr  atomic.Value // string
}

// NewServer creates the console server. runner receives decoded input
// lines; echo (optional) receives a copy of each accepted command, the
// way the original device echoed commands to its serial port.
func NewServer(cfg ServerConfig, ring *RingBuffer, runner CommandRunner, echo io.Writer, logger *slog.Logger) *Server {
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.ChunkBytes <= 0 {
		cfg.ChunkBytes = DefaultChunkBytes
	}
	if cfg.TerminalType == "" {
		cfg.TerminalType = "devconsole"
	}
	return &Server{
		listen:   cfg.Listen,
		chunk:    cfg.ChunkBytes,
		termType: cfg.TerminalType,
		ring:     ring,
		runner:   runner,
		echo:     echo,
		logger:   logger,
		ready:    make(chan struct{}),
	}
}

// Attached returns the server's session-slot flag for sharing with a
// Sink.
func (s *Server) Attached() *atomic.Bool {
	return &s.attached
}

// Ready returns a channel closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Address returns the bound listen address. Valid after Ready closes.
func (s *Server) Address() string {
	if addr, ok := s.addr.Load().(string); ok {
		return addr
	}
	return ""
}

// Serve binds the listener and runs the serial accept loop until ctx
// is cancelled. Failing to bind is fatal to the subsystem and returned
// immediately. A transient accept error is logged and the loop
// continues.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("console listen on %s: %w", s.listen, err)
	}
	defer listener.Close()

	s.addr.Store(listener.Addr().String())
	close(s.ready)

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("console listening", "address", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.logger.Info("viewer connected", "remote", conn.RemoteAddr().String())
		s.runSession(ctx, conn)
		s.logger.Info("viewer session ended", "remote", conn.RemoteAddr().String())
	}
}

// runSession drives one viewer connection to completion: negotiation,
// initial full flush, then the cooperative receive/drain loop. The
// session slot is occupied for the duration.
func (s *Server) runSession(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	s.attached.Store(true)
	defer s.attached.Store(false)

	session := telnet.NewSession(telnet.ServerPolicy())
	input := &lineAssembler{}
	s.dispatch(ctx, conn, session, input, session.Start())

	// Everything buffered before the viewer arrived goes out in one
	// flush; chunking only applies to live output.
	s.pump(conn, session, 0)

	buffer := make([]byte, receiveBufferSize)
	for {
		if ctx.Err() != nil {
			return
		}

		// Bounded receive attempt. A deadline expiry is the would-block
		// case and keeps the loop cooperative; anything else ends the
		// session.
		if err := conn.SetReadDeadline(time.Now().Add(receiveWait)); err != nil {
			return
		}
		n, err := conn.Read(buffer)
		if n > 0 {
			s.dispatch(ctx, conn, session, input, session.Receive(buffer[:n]))
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				// Would block: nothing received this cycle.
			} else {
				if !errors.Is(err, io.EOF) {
					s.logger.Debug("session receive failed", "error", err)
				}
				return
			}
		}

		s.pump(conn, session, s.chunk)
	}
}

// pump moves one batch of buffered log output to the wire. max == 0
// drains the whole backlog. Transmit failures are logged and otherwise
// ignored; the receive step detects the dead socket on its next cycle.
func (s *Server) pump(conn net.Conn, session *telnet.Session, max int) {
	data := s.ring.TryDrain(max)
	if len(data) == 0 {
		return
	}
	if _, err := conn.Write(session.EncodeText(data)); err != nil {
		s.logger.Debug("session send failed", "error", err)
	}
}

// dispatch reacts to decoder events: protocol bytes go back out, data
// lines run commands, terminal-type queries get the configured answer,
// and the rest is logged.
func (s *Server) dispatch(ctx context.Context, conn net.Conn, session *telnet.Session, input *lineAssembler, events []telnet.Event) {
	for _, event := range events {
		switch event.Kind {
		case telnet.EventSend:
			if _, err := conn.Write(event.Data); err != nil {
				s.logger.Debug("negotiation send failed", "error", err)
			}

		case telnet.EventData:
			for _, line := range input.push(event.Data) {
				command, ok := prepareCommand(line)
				if !ok {
					continue
				}
				if s.echo != nil {
					if _, err := io.WriteString(s.echo, command+"\n"); err != nil {
						s.logger.Debug("command echo failed", "error", err)
					}
				}
				s.runner.Run(ctx, command)
			}

		case telnet.EventTerminalTypeQuery:
			if _, err := conn.Write(session.TerminalTypeReply(s.termType)); err != nil {
				s.logger.Debug("terminal type reply failed", "error", err)
			}

		case telnet.EventNegotiation:
			s.logger.Debug("option negotiated",
				"verb", telnet.CommandName(event.Command), "option", event.Option)

		default:
			s.logger.Debug("telnet event ignored",
				"verb", telnet.CommandName(event.Command), "option", event.Option)
		}
	}
}
