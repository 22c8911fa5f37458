// Package stomp implements the subset of STOMP 1.2 framing the chat transport
// speaks: CONNECT/SUBSCRIBE/SEND/DISCONNECT from clients, CONNECTED/MESSAGE/
// ERROR back. One websocket text message carries exactly one frame.
package stomp

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	// client frames
	CommandConnect    Command = "CONNECT"
	CommandStomp      Command = "STOMP" // 1.2 alias for CONNECT
	CommandSend       Command = "SEND"
	CommandSubscribe  Command = "SUBSCRIBE"
	CommandDisconnect Command = "DISCONNECT"

	// server frames
	CommandConnected Command = "CONNECTED"
	CommandMessage   Command = "MESSAGE"
	CommandError     Command = "ERROR"
)

var clientCommands = map[Command]bool{
	CommandConnect:    true,
	CommandStomp:      true,
	CommandSend:       true,
	CommandSubscribe:  true,
	CommandDisconnect: true,
}

var (
	ErrMalformedFrame = errors.New("stomp: malformed frame")
	ErrUnknownCommand = errors.New("stomp: unknown command")
)

// Header is one name/value pair. Repeated names are legal; the first
// occurrence wins on lookup, per the STOMP spec.
type Header struct {
	Name  string
	Value string
}

type Frame struct {
	Command Command
	Headers []Header
	Body    []byte
}

func NewFrame(cmd Command, body []byte) *Frame {
	return &Frame{Command: cmd, Body: body}
}

// Header returns the first value for name, or "" if absent.
func (f *Frame) Header(name string) string {
	for _, h := range f.Headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// Set appends a header. It does not replace earlier occurrences; decoding
// keeps first-wins semantics.
func (f *Frame) Set(name, value string) *Frame {
	f.Headers = append(f.Headers, Header{Name: name, Value: value})
	return f
}

// IsConnect reports whether this is the connection's open control frame.
func (f *Frame) IsConnect() bool {
	return f.Command == CommandConnect || f.Command == CommandStomp
}

// Decode parses one frame from raw. Client frames only; the server never
// decodes its own frame types.
func Decode(raw []byte) (*Frame, error) {
	// Tolerate trailing EOL after the NUL (heartbeats between frames).
	raw = bytes.TrimRight(raw, "\r\n")
	if len(raw) == 0 {
		return nil, ErrMalformedFrame
	}

	nul := bytes.IndexByte(raw, 0)
	if nul < 0 {
		return nil, fmt.Errorf("%w: missing NUL terminator", ErrMalformedFrame)
	}
	body := raw[nul+1:]
	if len(bytes.TrimRight(body, "\r\n")) != 0 {
		return nil, fmt.Errorf("%w: data after NUL terminator", ErrMalformedFrame)
	}
	raw = raw[:nul]

	head, body, ok := bytes.Cut(raw, []byte("\n\n"))
	if !ok {
		// Header block with CR line endings.
		head, body, ok = bytes.Cut(raw, []byte("\r\n\r\n"))
		if !ok {
			return nil, fmt.Errorf("%w: missing header terminator", ErrMalformedFrame)
		}
	}

	lines := strings.Split(string(head), "\n")
	cmd := Command(strings.TrimRight(lines[0], "\r"))
	if !clientCommands[cmd] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}

	f := &Frame{Command: cmd, Body: body}
	escaped := cmd != CommandConnect && cmd != CommandStomp
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: bad header line", ErrMalformedFrame)
		}
		if escaped {
			var err error
			if name, err = unescape(name); err != nil {
				return nil, err
			}
			if value, err = unescape(value); err != nil {
				return nil, err
			}
		}
		f.Headers = append(f.Headers, Header{Name: name, Value: value})
	}
	return f, nil
}

// Encode renders the frame in wire format.
func (f *Frame) Encode() []byte {
	var b bytes.Buffer
	b.WriteString(string(f.Command))
	b.WriteByte('\n')
	escaped := f.Command != CommandConnect && f.Command != CommandConnected
	for _, h := range f.Headers {
		name, value := h.Name, h.Value
		if escaped {
			name, value = escape(name), escape(value)
		}
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(value)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.Write(f.Body)
	b.WriteByte(0)
	return b.Bytes()
}

// Header value escaping per STOMP 1.2. CONNECT/CONNECTED are exempt.

func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		case ':':
			b.WriteString(`\c`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func unescape(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("%w: dangling escape", ErrMalformedFrame)
		}
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		case 'c':
			b.WriteByte(':')
		default:
			return "", fmt.Errorf("%w: bad escape \\%c", ErrMalformedFrame, s[i])
		}
	}
	return b.String(), nil
}
