// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

package telnet

// Command bytes (RFC 854). IAC introduces every in-band protocol
// sequence; a literal 0xFF in the data stream is transmitted doubled.
const (
	IAC  byte = 255 // interpret as command
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250 // subnegotiation begin
	GA   byte = 249 // go ahead
	NOP  byte = 241
	SE   byte = 240 // subnegotiation end
	EOR  byte = 239 // end of record
)

// Option codes for the options the console negotiates.
const (
	OptBinary    byte = 0  // RFC 856, binary transmission
	OptEcho      byte = 1  // RFC 857
	OptSGA       byte = 3  // RFC 858, suppress go-ahead
	OptTTYPE     byte = 24 // RFC 1091, terminal type
	OptNAWS      byte = 31 // RFC 1073, window size
	OptLinemode  byte = 34 // RFC 1184
	OptMSSP      byte = 70 // MUD server status protocol
	OptCompress2 byte = 86 // MCCP2 compression
	OptZMP       byte = 93 // zenith MUD protocol
)

// Subnegotiation verbs used by TTYPE (RFC 1091).
const (
	subIs   byte = 0
	subSend byte = 1
)

// OptionPolicy fixes the stance for one option: what we announce for
// ourselves (WILL or WONT) and what we ask of the peer (DO or DONT).
// The table is consulted once per inbound negotiation; it never changes
// for the life of the process.
type OptionPolicy struct {
	Option byte
	Local  byte // WILL or WONT
	Remote byte // DO or DONT
}

// ServerPolicy is the negotiation table for the console's server side:
// binary transmission both ways, terminal type and window size offered
// locally, echo and line editing pushed to the viewer, everything else
// refused.
func ServerPolicy() []OptionPolicy {
	return []OptionPolicy{
		{OptEcho, WONT, DO},
		{OptTTYPE, WILL, DONT},
		{OptCompress2, WONT, DO},
		{OptZMP, WONT, DO},
		{OptMSSP, WONT, DO},
		{OptBinary, WILL, DO},
		{OptNAWS, WILL, DONT},
		{OptLinemode, WONT, DO},
	}
}

// CommandName returns a readable name for a protocol verb, for logging.
func CommandName(command byte) string {
	switch command {
	case IAC:
		return "IAC"
	case DONT:
		return "DONT"
	case DO:
		return "DO"
	case WONT:
		return "WONT"
	case WILL:
		return "WILL"
	case SB:
		return "SB"
	case GA:
		return "GA"
	case NOP:
		return "NOP"
	case SE:
		return "SE"
	case EOR:
		return "EOR"
	}
	return "unknown"
}
