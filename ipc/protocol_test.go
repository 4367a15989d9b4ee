package ipc

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/nstehr/warren/world"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	env, err := NewEnvelope(TypeHello, HelloMessage{Player: "p1", Protocol: ProtocolVersion})
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteEnvelope(&buf, env); err != nil {
		t.Fatalf("WriteEnvelope: %v", err)
	}
	if got := binary.LittleEndian.Uint32(buf.Bytes()[:4]); int(got) != buf.Len()-4 {
		t.Errorf("length prefix = %d, payload is %d bytes", got, buf.Len()-4)
	}

	got, err := ReadEnvelope(&buf)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	var hello HelloMessage
	if err := json.Unmarshal(got.Data, &hello); err != nil {
		t.Fatal(err)
	}
	if got.Type != TypeHello || hello.Player != "p1" || hello.Protocol != ProtocolVersion {
		t.Errorf("round trip = %s %+v", got.Type, hello)
	}
}

func TestReadEnvelopeRejectsBadLength(t *testing.T) {
	for _, n := range []uint32{0, MaxFrame + 1} {
		var buf bytes.Buffer
		_ = binary.Write(&buf, binary.LittleEndian, n)
		if _, err := ReadEnvelope(&buf); err == nil || !strings.Contains(err.Error(), "invalid message length") {
			t.Errorf("length %d: err = %v", n, err)
		}
	}
}

func TestConnectionDispatchesHandlers(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	conn := NewConnection(server, nil)
	conn.RegisterHandler(TypeHello, func(env Envelope) (*Envelope, error) {
		var hello HelloMessage
		if err := json.Unmarshal(env.Data, &hello); err != nil {
			return nil, err
		}
		conn.Player = hello.Player
		resp, err := NewEnvelope(TypeAck, AckMessage{Status: "ok"})
		return &resp, err
	})
	conn.RegisterHandler(TypeWorldState, func(env Envelope) (*Envelope, error) {
		if err := conn.Send(TypeIntents, IntentsMessage{Tick: 7, Intents: []world.Intent{{Action: world.ActionMove, Agent: "a"}}}); err != nil {
			return nil, err
		}
		resp, err := NewEnvelope(TypeAck, AckMessage{Status: "ok", Tick: 7})
		return &resp, err
	})
	go conn.ReadLoop()

	_ = client.SetDeadline(time.Now().Add(5 * time.Second))
	send := func(typ string, data any) {
		t.Helper()
		env, err := NewEnvelope(typ, data)
		if err != nil {
			t.Fatal(err)
		}
		if err := WriteEnvelope(client, env); err != nil {
			t.Fatalf("write %s: %v", typ, err)
		}
	}
	read := func() Envelope {
		t.Helper()
		env, err := ReadEnvelope(client)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		return env
	}

	send("unknown", struct{}{})
	send(TypeHello, HelloMessage{Player: "p1", Protocol: ProtocolVersion})
	if env := read(); env.Type != TypeAck {
		t.Fatalf("reply to hello = %s, want ack", env.Type)
	}

	send(TypeWorldState, map[string]any{"tick": 7})
	env := read()
	if env.Type != TypeIntents {
		t.Fatalf("first reply = %s, want intents", env.Type)
	}
	var msg IntentsMessage
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Tick != 7 || len(msg.Intents) != 1 || msg.Intents[0].Action != world.ActionMove {
		t.Errorf("intents = %+v", msg)
	}
	if env := read(); env.Type != TypeAck {
		t.Errorf("second reply = %s, want ack", env.Type)
	}
}
