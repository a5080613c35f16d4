// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devconsole.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "console:\n  enable: \"Y\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Console.Listen != ":23" {
		t.Errorf("Listen: got %q, want :23", cfg.Console.Listen)
	}
	if cfg.Console.ChunkBytes != 500 {
		t.Errorf("ChunkBytes: got %d, want 500", cfg.Console.ChunkBytes)
	}
	if cfg.Console.BufferBytes != 4000 {
		t.Errorf("BufferBytes: got %d, want 4000", cfg.Console.BufferBytes)
	}
	if cfg.Console.TerminalType != "devconsole" {
		t.Errorf("TerminalType: got %q, want devconsole", cfg.Console.TerminalType)
	}
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `console:
  enable: "D"
  listen: "127.0.0.1:2323"
  chunk_bytes: 300
  buffer_bytes: 2000
  mirror_device: /dev/ttyS0
  terminal_type: xterm
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Console.Listen != "127.0.0.1:2323" {
		t.Errorf("Listen: got %q", cfg.Console.Listen)
	}
	if cfg.Console.ChunkBytes != 300 || cfg.Console.BufferBytes != 2000 {
		t.Errorf("sizes: got chunk %d buffer %d", cfg.Console.ChunkBytes, cfg.Console.BufferBytes)
	}
	if cfg.Console.MirrorDevice != "/dev/ttyS0" {
		t.Errorf("MirrorDevice: got %q", cfg.Console.MirrorDevice)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load of missing file: got nil error")
	}
}

func TestLoadEnvVarFallback(t *testing.T) {
	path := writeConfig(t, "console:\n  enable: \"Y\"\n  chunk_bytes: 99\n")
	t.Setenv(EnvVar, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Console.ChunkBytes != 99 {
		t.Errorf("ChunkBytes from env-selected file: got %d, want 99", cfg.Console.ChunkBytes)
	}
}

func TestLoadNoPathUsesDefaults(t *testing.T) {
	t.Setenv(EnvVar, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Console.Enabled() {
		t.Error("default config: console enabled, want disabled")
	}
	if cfg.Console.BufferBytes != 4000 {
		t.Errorf("BufferBytes: got %d, want 4000", cfg.Console.BufferBytes)
	}
}

func TestEnableModes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		enable  string
		enabled bool
		mirror  bool
	}{
		{"", false, false},
		{"Y", true, false},
		{"y", true, false},
		{"X", true, false},
		{"D", true, true},
		{"d", true, true},
		{"N", false, false},
		{"yes", false, false},
	}
	for _, tt := range tests {
		c := ConsoleConfig{Enable: tt.enable}
		if got := c.Enabled(); got != tt.enabled {
			t.Errorf("Enabled(%q): got %v, want %v", tt.enable, got, tt.enabled)
		}
		if got := c.MirrorEnabled(); got != tt.mirror {
			t.Errorf("MirrorEnabled(%q): got %v, want %v", tt.enable, got, tt.mirror)
		}
	}
}
