// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

// Devconsole-attach is an interactive viewer for a devconsoled
// instance. It dials the console port, answers the server's option
// negotiation, puts the local terminal into raw mode, and relays bytes
// both ways until the connection closes or the user presses Ctrl-].
//
// Usage:
//
//	devconsole-attach [address]
//
// The address defaults to localhost:23.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/devconsole-io/devconsole/lib/process"
	"github.com/devconsole-io/devconsole/lib/version"
	"github.com/devconsole-io/devconsole/telnet"
)

const defaultAddress = "localhost:23"

// detachKey ends the session locally (Ctrl-]).
const detachKey = 0x1d

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var showVersion bool
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("devconsole-attach %s\n", version.Info())
		return nil
	}

	address := defaultAddress
	if pflag.NArg() > 0 {
		address = pflag.Arg(0)
	}

	conn, err := net.Dial("tcp", address)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", address, err)
	}
	defer conn.Close()

	terminalType := os.Getenv("TERM")
	if terminalType == "" {
		terminalType = "unknown"
	}

	// Accept binary transmission both ways, keep echo local, and
	// offer to answer the terminal-type query. Everything else is
	// refused by default.
	session := telnet.NewSession([]telnet.OptionPolicy{
		{Option: telnet.OptBinary, Local: telnet.WILL, Remote: telnet.DO},
		{Option: telnet.OptEcho, Local: telnet.WILL, Remote: telnet.DONT},
		{Option: telnet.OptTTYPE, Local: telnet.WILL, Remote: telnet.DONT},
	})

	// The session is shared between the keyboard relay and the
	// receive loop and is not safe for concurrent use.
	var sessionMu sync.Mutex

	stdinFd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(stdinFd)
	if err != nil {
		return fmt.Errorf("setting terminal raw mode: %w", err)
	}
	defer term.Restore(stdinFd, oldState)

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChannel
		term.Restore(stdinFd, oldState)
		conn.Close()
		os.Exit(0)
	}()

	fmt.Fprintf(os.Stderr, "connected to %s, detach with Ctrl-]\r\n", address)

	// Keyboard relay. Closing the connection unblocks the receive
	// loop below.
	go func() {
		buffer := make([]byte, 256)
		for {
			n, err := os.Stdin.Read(buffer)
			if n > 0 {
				chunk := buffer[:n]
				for _, b := range chunk {
					if b == detachKey {
						conn.Close()
						return
					}
				}
				sessionMu.Lock()
				encoded := session.EncodeText(chunk)
				sessionMu.Unlock()
				if _, err := conn.Write(encoded); err != nil {
					return
				}
			}
			if err != nil {
				conn.Close()
				return
			}
		}
	}()

	buffer := make([]byte, 4096)
	for {
		n, err := conn.Read(buffer)
		if n > 0 {
			sessionMu.Lock()
			events := session.Receive(buffer[:n])
			sessionMu.Unlock()
			for _, event := range events {
				switch event.Kind {
				case telnet.EventSend:
					if _, err := conn.Write(event.Data); err != nil {
						return nil
					}
				case telnet.EventData:
					os.Stdout.Write(event.Data)
				case telnet.EventTerminalTypeQuery:
					if _, err := conn.Write(session.TerminalTypeReply(terminalType)); err != nil {
						return nil
					}
				}
			}
		}
		if err != nil {
			return nil
		}
	}
}
