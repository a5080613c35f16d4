// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for devconsole binaries.
//
// Configuration is loaded from a single YAML file specified by:
//   - DEVCONSOLE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no discovery fallbacks or hidden overrides. When neither is
// set the built-in defaults apply, matching the device's behavior with
// an empty settings store.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "DEVCONSOLE_CONFIG"

// Config is the top-level configuration.
type Config struct {
	// Console configures the remote log console.
	Console ConsoleConfig `yaml:"console"`
}

// ConsoleConfig is the console subsystem's configuration surface.
type ConsoleConfig struct {
	// Enable is the letter-coded mode flag carried over from the
	// device's settings store: empty disables the console, "Y" or "X"
	// enables it, "D" enables it with mirroring to the secondary
	// device. Case-insensitive.
	Enable string `yaml:"enable"`

	// Listen is the TCP listen address. Default ":23".
	Listen string `yaml:"listen"`

	// ChunkBytes is the number of buffered bytes drained per session
	// loop iteration. Default 500.
	ChunkBytes int `yaml:"chunk_bytes"`

	// BufferBytes is the log ring buffer capacity. Default 4000.
	BufferBytes int `yaml:"buffer_bytes"`

	// MirrorDevice is the path of the secondary sink character device.
	// Empty means the process's original standard output.
	MirrorDevice string `yaml:"mirror_device"`

	// TerminalType answers the viewer's terminal-type query.
	// Default "devconsole".
	TerminalType string `yaml:"terminal_type"`
}

// Default returns the built-in configuration: console disabled, device
// defaults everywhere else.
func Default() *Config {
	cfg := &Config{}
	cfg.normalize()
	return cfg
}

// Load reads the configuration file selected by flagPath (the --config
// flag) or, when that is empty, the DEVCONSOLE_CONFIG environment
// variable. With neither set it returns Default().
func Load(flagPath string) (*Config, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize applies defaults to absent or non-positive values, the way
// the device treated missing or garbage settings entries.
func (c *Config) normalize() {
	if c.Console.Listen == "" {
		c.Console.Listen = ":23"
	}
	if c.Console.ChunkBytes <= 0 {
		c.Console.ChunkBytes = 500
	}
	if c.Console.BufferBytes <= 0 {
		c.Console.BufferBytes = 4000
	}
	if c.Console.TerminalType == "" {
		c.Console.TerminalType = "devconsole"
	}
}

// Enabled reports whether the console should run at all.
func (c ConsoleConfig) Enabled() bool {
	mode := strings.ToUpper(strings.TrimSpace(c.Enable))
	return mode != "" && strings.Contains("YXD", mode)
}

// MirrorEnabled reports whether captured output and accepted commands
// are mirrored to the secondary device.
func (c ConsoleConfig) MirrorEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(c.Enable), "D")
}
