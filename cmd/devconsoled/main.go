// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

// Devconsoled captures the host process's stdout/stderr into a bounded
// ring buffer and serves it to a single telnet viewer. It is meant to
// wrap a long-running program on a small device: everything the
// program prints becomes remotely viewable console history, and lines
// typed by the viewer come back as commands.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/devconsole-io/devconsole/console"
	"github.com/devconsole-io/devconsole/lib/capture"
	"github.com/devconsole-io/devconsole/lib/clock"
	"github.com/devconsole-io/devconsole/lib/config"
	"github.com/devconsole-io/devconsole/lib/process"
	"github.com/devconsole-io/devconsole/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var listen string
	var showVersion bool

	pflag.StringVar(&configPath, "config", "", "path to config file (or set DEVCONSOLE_CONFIG)")
	pflag.StringVar(&listen, "listen", "", "listen address, overrides the config file")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("devconsoled %s\n", version.Info())
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if listen != "" {
		cfg.Console.Listen = listen
	}

	// Disabled means exactly that: no capture, no listener, no output.
	if !cfg.Console.Enabled() {
		return nil
	}

	// The capture pipe has to be in place before anything else prints,
	// but the sink it feeds needs handles that only exist after the
	// redirect (the dup of the original stdout). The late-bound writer
	// bridges the gap; bytes arriving before the sink is bound are
	// dropped, matching the sink's own fire-and-forget contract.
	deferred := &deferredWriter{}
	redirection, err := capture.Redirect(deferred)
	if err != nil {
		return fmt.Errorf("installing capture: %w", err)
	}
	defer redirection.Restore()

	// Diagnostics bypass the captured descriptors so the subsystem's
	// own logging cannot feed back into the ring.
	logger := slog.New(slog.NewJSONHandler(redirection.Original(), &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var mirror io.Writer
	if cfg.Console.MirrorEnabled() {
		if cfg.Console.MirrorDevice != "" {
			device, err := os.OpenFile(cfg.Console.MirrorDevice, os.O_WRONLY, 0)
			if err != nil {
				return fmt.Errorf("opening mirror device: %w", err)
			}
			defer device.Close()
			mirror = device
		} else {
			mirror = redirection.Original()
		}
	}

	// Default command engine: record the command in the console stream
	// (os.Stdout is the capture pipe here, so the echo becomes shared
	// history) and in the structured log.
	runner := console.RunnerFunc(func(ctx context.Context, command string) {
		logger.Info("console command", "command", command)
	})

	ring := console.NewRingBuffer(cfg.Console.BufferBytes, clock.Real())
	server := console.NewServer(console.ServerConfig{
		Listen:       cfg.Console.Listen,
		ChunkBytes:   cfg.Console.ChunkBytes,
		TerminalType: cfg.Console.TerminalType,
	}, ring, runner, os.Stdout, logger)
	deferred.Bind(console.NewSink(ring, mirror, server.Attached(), logger))

	logger.Info("devconsoled starting",
		"version", version.Info(),
		"listen", cfg.Console.Listen,
		"buffer_bytes", cfg.Console.BufferBytes,
		"chunk_bytes", cfg.Console.ChunkBytes,
		"mirroring", cfg.Console.MirrorEnabled(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("console server: %w", err)
	}
	logger.Info("devconsoled stopped")
	return nil
}

// deferredWriter forwards writes to a target bound after construction.
// Writes before Bind succeed and go nowhere.
type deferredWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (d *deferredWriter) Bind(w io.Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.w = w
}

func (d *deferredWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.w == nil {
		return len(p), nil
	}
	return d.w.Write(p)
}
