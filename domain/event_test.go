package domain

import (
	"encoding/json"
	"testing"
)

func TestMessageWireShape(t *testing.T) {
	ev := PostEvent{DID: "did:plc:abc123", Text: "hello world", CreatedAt: "2024-01-15T10:30:00.123Z"}
	raw, err := json.Marshal(ev.Message())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]string{
		"type":      "post",
		"did":       "did:plc:abc123",
		"text":      "hello world",
		"timestamp": "2024-01-15T10:30:00.123Z",
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected field count: %s", raw)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("field %q: got %q, want %q", k, got[k], v)
		}
	}
}

func TestMessageCarriesTimestampVerbatim(t *testing.T) {
	// Upstream timestamps vary in precision and offset form; the payload
	// must carry them untouched.
	for _, ts := range []string{
		"2024-01-15T10:30:00Z",
		"2024-01-15T10:30:00.999999Z",
		"2024-01-15T10:30:00+02:00",
	} {
		msg := PostEvent{DID: "did:plc:x", CreatedAt: ts}.Message()
		if msg.Timestamp != ts {
			t.Fatalf("timestamp altered: got %q, want %q", msg.Timestamp, ts)
		}
	}
}
