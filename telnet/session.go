// Copyright 2026 The Devconsole Authors
// SPDX-License-Identifier: Apache-2.0

package telnet

// EventKind classifies decoder output.
type EventKind int

const (
	// EventSend carries protocol-layer bytes that must be written to
	// the socket verbatim: negotiation replies and subnegotiation
	// responses. The payload is already framed and escaped.
	EventSend EventKind = iota

	// EventData carries decoded application bytes with IAC escaping
	// removed. For the console this is viewer keyboard input.
	EventData

	// EventTerminalTypeQuery reports that the peer asked for our
	// terminal type (IAC SB TTYPE SEND IAC SE). The caller answers
	// with TerminalTypeReply.
	EventTerminalTypeQuery

	// EventNegotiation reports a completed option state change.
	// Informational; the session has already queued any reply.
	EventNegotiation

	// EventUnhandled reports a protocol sequence the session decodes
	// but does not act on (GA, NOP, foreign subnegotiations). Callers
	// log and move on.
	EventUnhandled
)

// Event is one unit of decoder output.
type Event struct {
	Kind    EventKind
	Command byte   // verb for EventNegotiation and EventUnhandled
	Option  byte   // option for negotiation and subnegotiation events
	Data    []byte // payload for EventSend, EventData, EventUnhandled
}

// decoder states. The state survives across Receive calls so protocol
// sequences split by the transport reassemble correctly.
const (
	stateData = iota
	stateIAC
	stateNegotiation
	stateSubOption
	stateSubData
	stateSubIAC
)

// optionState tracks what has been agreed for one option.
type optionState struct {
	// localActive: we are performing the option (our WILL met their DO).
	localActive bool
	// remoteActive: the peer is performing the option.
	remoteActive bool
	// localOffered / remoteRequested: Start announced WILL / DO and the
	// answer is still outstanding. Suppresses the duplicate reply when
	// the acknowledgement arrives.
	localOffered    bool
	remoteRequested bool
}

// Session is the per-connection protocol state machine. It decodes
// inbound bytes into events, produces negotiation replies from a fixed
// option table, and escapes outbound payload. It holds no socket and
// does no I/O; the caller writes EventSend payloads and whatever
// EncodeText returns.
//
// Session is not safe for concurrent use. The console drives it from a
// single session loop.
type Session struct {
	policy map[byte]OptionPolicy
	table  map[byte]*optionState

	state      int
	pendingCmd byte
	subOption  byte
	subData    []byte

	// lastText is the final byte of the previous EncodeText payload.
	// A CRLF pair split across two payloads must not expand the LF
	// again.
	lastText byte
}

// NewSession creates a session with the given negotiation table.
// Options absent from the table are refused in both directions.
func NewSession(policy []OptionPolicy) *Session {
	session := &Session{
		policy: make(map[byte]OptionPolicy, len(policy)),
		table:  make(map[byte]*optionState, len(policy)),
		state:  stateData,
	}
	for _, p := range policy {
		session.policy[p.Option] = p
		session.table[p.Option] = &optionState{}
	}
	return session
}

// Start returns the opening negotiation: one EventSend per option the
// table announces (WILL) or requests (DO). Write these to the socket
// before any payload.
func (s *Session) Start() []Event {
	// Iterate in a stable order so the wire bytes are deterministic.
	var events []Event
	for _, p := range s.orderedPolicy() {
		st := s.table[p.Option]
		if p.Local == WILL {
			st.localOffered = true
			events = append(events, Event{Kind: EventSend, Data: []byte{IAC, WILL, p.Option}})
		}
		if p.Remote == DO {
			st.remoteRequested = true
			events = append(events, Event{Kind: EventSend, Data: []byte{IAC, DO, p.Option}})
		}
	}
	return events
}

// orderedPolicy returns the policy entries sorted by option code.
func (s *Session) orderedPolicy() []OptionPolicy {
	ordered := make([]OptionPolicy, 0, len(s.policy))
	for code := 0; code < 256; code++ {
		if p, ok := s.policy[byte(code)]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

// Receive decodes a chunk of inbound socket bytes and returns the
// resulting events in order. Negotiation replies appear as EventSend
// and must be written to the socket verbatim.
func (s *Session) Receive(data []byte) []Event {
	var events []Event
	var plain []byte

	flushPlain := func() {
		if len(plain) > 0 {
			events = append(events, Event{Kind: EventData, Data: plain})
			plain = nil
		}
	}

	for _, b := range data {
		switch s.state {
		case stateData:
			if b == IAC {
				s.state = stateIAC
				break
			}
			plain = append(plain, b)

		case stateIAC:
			switch b {
			case IAC:
				// Escaped 0xFF data byte.
				plain = append(plain, IAC)
				s.state = stateData
			case WILL, WONT, DO, DONT:
				s.pendingCmd = b
				s.state = stateNegotiation
			case SB:
				s.state = stateSubOption
			default:
				// GA, NOP, EOR and anything else standalone.
				flushPlain()
				events = append(events, Event{Kind: EventUnhandled, Command: b})
				s.state = stateData
			}

		case stateNegotiation:
			flushPlain()
			events = append(events, s.negotiate(s.pendingCmd, b)...)
			s.state = stateData

		case stateSubOption:
			s.subOption = b
			s.subData = nil
			s.state = stateSubData

		case stateSubData:
			if b == IAC {
				s.state = stateSubIAC
				break
			}
			s.subData = append(s.subData, b)

		case stateSubIAC:
			switch b {
			case IAC:
				s.subData = append(s.subData, IAC)
				s.state = stateSubData
			case SE:
				flushPlain()
				events = append(events, s.subnegotiation(s.subOption, s.subData)...)
				s.subData = nil
				s.state = stateData
			default:
				// Malformed subnegotiation; treat the byte as payload
				// and keep scanning for IAC SE.
				s.subData = append(s.subData, IAC, b)
				s.state = stateSubData
			}
		}
	}
	flushPlain()
	return events
}

// negotiate answers one inbound WILL/WONT/DO/DONT from the fixed table.
func (s *Session) negotiate(command, option byte) []Event {
	p, known := s.policy[option]
	st := s.table[option]

	var events []Event
	send := func(verb byte) {
		events = append(events, Event{Kind: EventSend, Data: []byte{IAC, verb, option}})
	}
	note := func() {
		events = append(events, Event{Kind: EventNegotiation, Command: command, Option: option})
	}

	switch command {
	case WILL:
		// Peer offers to perform the option.
		if known && p.Remote == DO {
			if st.remoteRequested {
				// Acknowledgement of our own DO: no echo reply.
				st.remoteRequested = false
				st.remoteActive = true
				note()
			} else if !st.remoteActive {
				st.remoteActive = true
				send(DO)
				note()
			}
		} else {
			send(DONT)
		}

	case WONT:
		if known && st != nil {
			st.remoteRequested = false
			if st.remoteActive {
				st.remoteActive = false
				send(DONT)
			}
		}
		note()

	case DO:
		// Peer asks us to perform the option.
		if known && p.Local == WILL {
			if st.localOffered {
				st.localOffered = false
				st.localActive = true
				note()
			} else if !st.localActive {
				st.localActive = true
				send(WILL)
				note()
			}
		} else {
			send(WONT)
		}

	case DONT:
		if known && st != nil {
			st.localOffered = false
			if st.localActive {
				st.localActive = false
				send(WONT)
			}
		}
		note()
	}
	return events
}

// subnegotiation handles a completed IAC SB ... IAC SE block.
func (s *Session) subnegotiation(option byte, payload []byte) []Event {
	if option == OptTTYPE && len(payload) == 1 && payload[0] == subSend {
		return []Event{{Kind: EventTerminalTypeQuery, Option: option}}
	}
	return []Event{{Kind: EventUnhandled, Command: SB, Option: option, Data: payload}}
}

// BinaryActive reports whether our side negotiated binary transmission
// (our WILL BINARY met the peer's DO). Until then outbound text is NVT
// ASCII and bare LF is expanded to CRLF.
func (s *Session) BinaryActive() bool {
	st, ok := s.table[OptBinary]
	return ok && st.localActive
}

// EchoActive reports whether the peer agreed to perform echo.
func (s *Session) EchoActive() bool {
	st, ok := s.table[OptEcho]
	return ok && st.remoteActive
}

// EncodeText frames application payload for the wire: IAC bytes are
// doubled, and outside binary mode a bare LF becomes CRLF. The CR/LF
// state carries across calls so a pair split between drain chunks is
// not expanded twice. The result is written to the socket as-is.
func (s *Session) EncodeText(data []byte) []byte {
	binary := s.BinaryActive()
	out := make([]byte, 0, len(data)+len(data)/8)
	previous := s.lastText
	for _, b := range data {
		switch {
		case b == IAC:
			out = append(out, IAC, IAC)
		case b == '\n' && previous != '\r' && !binary:
			out = append(out, '\r', '\n')
		default:
			out = append(out, b)
		}
		previous = b
	}
	s.lastText = previous
	return out
}

// TerminalTypeReply builds the answer to a terminal-type query:
// IAC SB TTYPE IS <name> IAC SE, with the name IAC-escaped.
func (s *Session) TerminalTypeReply(name string) []byte {
	out := make([]byte, 0, len(name)+6)
	out = append(out, IAC, SB, OptTTYPE, subIs)
	for i := 0; i < len(name); i++ {
		out = append(out, name[i])
		if name[i] == IAC {
			out = append(out, IAC)
		}
	}
	return append(out, IAC, SE)
}
