package stream

import (
	"testing"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		kind    EventKind
		check   func(t *testing.T, ev Event)
	}{
		{
			name:    "message",
			payload: `{"event":"message","task_id":"t1","message_id":"m1","answer":"Hi"}`,
			kind:    EventMessage,
			check: func(t *testing.T, ev Event) {
				msg, ok := ev.(MessageEvent)
				if !ok || msg.Answer != "Hi" || msg.TaskID != "t1" {
					t.Fatalf("unexpected message event %#v", ev)
				}
			},
		},
		{
			name:    "message end",
			payload: `{"event":"message_end","conversation_id":"xyz","metadata":{"usage":{"total_tokens":3}}}`,
			kind:    EventMessageEnd,
			check: func(t *testing.T, ev Event) {
				id, ok := ConversationIDOf(ev)
				if !ok || id != "xyz" {
					t.Fatalf("expected conversation id xyz, got %q", id)
				}
			},
		},
		{
			name:    "error",
			payload: `{"event":"error","status":400,"code":"invalid_param","message":"bad"}`,
			kind:    EventError,
			check: func(t *testing.T, ev Event) {
				errEvent, ok := ev.(ErrorEvent)
				if !ok || errEvent.Status != 400 || errEvent.Code != "invalid_param" {
					t.Fatalf("unexpected error event %#v", ev)
				}
			},
		},
		{name: "ping", payload: `{"event":"ping"}`, kind: EventPing},
		{name: "tts end", payload: `{"event":"tts_message_end","audio":""}`, kind: EventTTSMessageEnd},
		{name: "workflow node", payload: `{"event":"node_started","workflow_run_id":"w1","data":{"id":"n1"}}`, kind: EventNodeStarted},
		{
			name:    "unknown",
			payload: `{"event":"something_new","x":1}`,
			kind:    EventKind("something_new"),
			check: func(t *testing.T, ev Event) {
				unknown, ok := ev.(UnknownEvent)
				if !ok || string(unknown.Raw) != `{"event":"something_new","x":1}` {
					t.Fatalf("unexpected unknown event %#v", ev)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.payload))
			if err != nil {
				t.Fatalf("parse event: %v", err)
			}
			if ev.Kind() != tt.kind {
				t.Fatalf("expected kind %s, got %s", tt.kind, ev.Kind())
			}
			if tt.check != nil {
				tt.check(t, ev)
			}
		})
	}
}

func TestParseEventRejectsMalformed(t *testing.T) {
	for _, payload := range []string{`{"event":`, `not json`, `[1,2]`, `{"event":"message","answer":5}`} {
		if _, err := ParseEvent([]byte(payload)); err == nil {
			t.Fatalf("expected error for %q", payload)
		}
	}
}

func TestConversationIDOfIgnoresOtherEvents(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"event":"message","conversation_id":"abc"}`))
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if _, ok := ConversationIDOf(ev); ok {
		t.Fatal("only message_end should reveal a conversation id")
	}
}
