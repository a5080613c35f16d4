// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

// Package telnet implements the option-negotiation and framing layer of
// the console's wire protocol (RFC 854 and friends).
//
// [Session] is a pure state machine: feed it inbound socket bytes with
// Receive and it returns a stream of events: protocol bytes that must
// go back out ([EventSend]), decoded viewer input ([EventData]), and a
// terminal-type query that the caller answers with TerminalTypeReply.
// Outbound payload goes through EncodeText, which doubles IAC bytes and
// expands LF to CRLF until binary transmission is negotiated.
//
// Negotiation follows a fixed table ([OptionPolicy], [ServerPolicy]):
// each side's stance per option is decided at compile time and the
// session only tracks enough state to answer each verb once and avoid
// acknowledgement loops. There is no dynamic renegotiation.
package telnet
