package stomp

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecode_ConnectFrame(t *testing.T) {
	raw := []byte("CONNECT\naccept-version:1.2\nAuthorization:Bearer tok123\n\n\x00")

	f, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !f.IsConnect() {
		t.Fatalf("expected CONNECT, got %s", f.Command)
	}
	if got := f.Header("Authorization"); got != "Bearer tok123" {
		t.Fatalf("unexpected Authorization header: %q", got)
	}
	if len(f.Body) != 0 {
		t.Fatalf("CONNECT must not carry a body, got %q", f.Body)
	}
}

func TestDecode_SendFrameWithBody(t *testing.T) {
	raw := []byte("SEND\ndestination:/app/chat.send\ncontent-type:application/json\n\n{\"content\":\"hi\"}\x00")

	f, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Command != CommandSend {
		t.Fatalf("expected SEND, got %s", f.Command)
	}
	if got := f.Header("destination"); got != "/app/chat.send" {
		t.Fatalf("unexpected destination: %q", got)
	}
	if !bytes.Equal(f.Body, []byte(`{"content":"hi"}`)) {
		t.Fatalf("unexpected body: %q", f.Body)
	}
}

func TestDecode_CRLFHeaders(t *testing.T) {
	raw := []byte("SUBSCRIBE\r\nid:sub-0\r\ndestination:/user/queue/messages\r\n\r\n\x00")

	f, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Command != CommandSubscribe {
		t.Fatalf("expected SUBSCRIBE, got %s", f.Command)
	}
	if got := f.Header("destination"); got != "/user/queue/messages" {
		t.Fatalf("unexpected destination: %q", got)
	}
}

func TestDecode_RepeatedHeaderFirstWins(t *testing.T) {
	raw := []byte("SEND\ndestination:/app/chat.send\ndestination:/app/other\n\nx\x00")

	f, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := f.Header("destination"); got != "/app/chat.send" {
		t.Fatalf("first header occurrence must win, got %q", got)
	}
}

func TestDecode_HeaderEscapes(t *testing.T) {
	// \c unescapes to ':' in non-CONNECT frames.
	raw := []byte("SEND\ndestination:/app/chat.send\nnote:a\\cb\n\n\x00")

	f, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := f.Header("note"); got != "a:b" {
		t.Fatalf("expected unescaped a:b, got %q", got)
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string][]byte{
		"empty":            []byte(""),
		"no NUL":           []byte("SEND\ndestination:/x\n\nbody"),
		"no header end":    []byte("SEND\ndestination:/x\x00"),
		"bad header line":  []byte("SEND\nnocolon\n\n\x00"),
		"data after NUL":   []byte("SEND\ndestination:/x\n\n\x00trailing"),
		"dangling escape":  []byte("SEND\nnote:bad\\\n\n\x00"),
		"unknown escape":   []byte("SEND\nnote:bad\\x\n\n\x00"),
	}
	for name, raw := range cases {
		if _, err := Decode(raw); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestDecode_UnknownCommand(t *testing.T) {
	_, err := Decode([]byte("NACK\nid:1\n\n\x00"))
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestEncode_MessageRoundTripShape(t *testing.T) {
	f := NewFrame(CommandMessage, []byte(`{"content":"hi"}`)).
		Set("destination", "/user/queue/messages").
		Set("content-type", "application/json")

	raw := f.Encode()
	want := []byte("MESSAGE\ndestination:/user/queue/messages\ncontent-type:application/json\n\n{\"content\":\"hi\"}\x00")
	if !bytes.Equal(raw, want) {
		t.Fatalf("unexpected wire frame:\n got %q\nwant %q", raw, want)
	}
}

func TestEncode_EscapesHeaderValues(t *testing.T) {
	f := NewFrame(CommandError, nil).Set("message", "bad:thing")
	raw := f.Encode()
	if !bytes.Contains(raw, []byte(`bad\cthing`)) {
		t.Fatalf("expected escaped colon, got %q", raw)
	}
}
