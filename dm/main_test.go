package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/LuciG420/bsky-dm-cli/bsky"
)

// chatStub serves the handful of XRPC routes the CLI touches and records
// what it saw.
type chatStub struct {
	t        *testing.T
	sentText string
	sentTo   string
}

func (s *chatStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/xrpc/com.atproto.server.createSession", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(s.t, w, bsky.Session{
			DID:        "did:plc:me",
			Handle:     "me.bsky.social",
			AccessJwt:  "access-token",
			RefreshJwt: "refresh-token",
		})
	})
	mux.HandleFunc("/xrpc/com.atproto.identity.resolveHandle", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("handle"); got != "alice.bsky.social" {
			s.t.Errorf("unexpected handle %q", got)
		}
		writeJSON(s.t, w, map[string]string{"did": "did:plc:alice"})
	})
	mux.HandleFunc("/xrpc/chat.bsky.convo.getConvoForMembers", func(w http.ResponseWriter, r *http.Request) {
		s.sentTo = r.URL.Query().Get("members")
		writeJSON(s.t, w, map[string]any{"convo": bsky.Convo{ID: "convo-1"}})
	})
	mux.HandleFunc("/xrpc/chat.bsky.convo.sendMessage", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ConvoID string `json:"convoId"`
			Message struct {
				Text string `json:"text"`
			} `json:"message"`
		}
		if err := sonic.ConfigStd.NewDecoder(r.Body).Decode(&body); err != nil {
			s.t.Errorf("decode sendMessage body: %v", err)
		}
		if body.ConvoID != "convo-1" {
			s.t.Errorf("unexpected convo id %q", body.ConvoID)
		}
		s.sentText = body.Message.Text
		writeJSON(s.t, w, bsky.ChatMessage{ID: "msg-1", Text: body.Message.Text, SentAt: "2024-03-01T08:00:00Z"})
	})
	mux.HandleFunc("/xrpc/chat.bsky.convo.listConvos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(s.t, w, map[string]any{"convos": []bsky.Convo{
			{ID: "convo-1", Members: []bsky.Actor{{Handle: "alice.bsky.social"}}},
			{ID: "convo-2", Members: []bsky.Actor{{Handle: "bob.bsky.social"}}},
		}})
	})
	mux.HandleFunc("/xrpc/chat.bsky.convo.getMessages", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("convoId"); got != "convo-2" {
			s.t.Errorf("unexpected convo id %q", got)
		}
		writeJSON(s.t, w, map[string]any{"messages": []bsky.ChatMessage{
			{ID: "msg-2", Text: "newest"},
			{ID: "msg-1", Text: "older"},
		}})
	})
	return mux
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := sonic.ConfigStd.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func startStub(t *testing.T) *chatStub {
	t.Helper()
	stub := &chatStub{t: t}
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)
	t.Setenv("BSKY_HOST", srv.URL)
	t.Setenv("BSKY_USERNAME", "me.bsky.social")
	t.Setenv("BSKY_PASSWORD", "app-password")
	return stub
}

func TestSendCommand(t *testing.T) {
	stub := startStub(t)

	cmd := newSendCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--to", "alice.bsky.social", "--text", "hello there"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if stub.sentTo != "did:plc:alice" {
		t.Fatalf("expected convo lookup by resolved did, got %q", stub.sentTo)
	}
	if stub.sentText != "hello there" {
		t.Fatalf("unexpected message text %q", stub.sentText)
	}
	if !strings.Contains(buf.String(), "sent msg-1") {
		t.Fatalf("expected confirmation in output, got: %s", buf.String())
	}
}

func TestSendCommandRequiresFlags(t *testing.T) {
	cmd := newSendCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--to", "alice.bsky.social"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error when --text is missing")
	}
}

func TestConvosCommand(t *testing.T) {
	startStub(t)

	cmd := newConvosCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	var convos []bsky.Convo
	if err := sonic.Unmarshal(buf.Bytes(), &convos); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if len(convos) != 2 || convos[0].ID != "convo-1" || convos[1].ID != "convo-2" {
		t.Fatalf("unexpected convos: %#v", convos)
	}
}

func TestMessagesCommand(t *testing.T) {
	startStub(t)

	cmd := newMessagesCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--convo", "convo-2"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	var msgs []bsky.ChatMessage
	if err := sonic.Unmarshal(buf.Bytes(), &msgs); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Text != "newest" {
		t.Fatalf("unexpected messages: %#v", msgs)
	}
}

func TestMessagesCommandRequiresConvo(t *testing.T) {
	cmd := newMessagesCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error when --convo is missing")
	}
}
