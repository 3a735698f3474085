package stream

import (
	"encoding/json"
	"fmt"
)

// EventKind is the value of the "event" field of an upstream payload.
type EventKind string

const (
	EventMessage        EventKind = "message"
	EventAgentMessage   EventKind = "agent_message"
	EventAgentThought   EventKind = "agent_thought"
	EventMessageFile    EventKind = "message_file"
	EventMessageEnd     EventKind = "message_end"
	EventTTSMessage     EventKind = "tts_message"
	EventTTSMessageEnd  EventKind = "tts_message_end"
	EventMessageReplace EventKind = "message_replace"
	EventError          EventKind = "error"
	EventPing           EventKind = "ping"

	EventWorkflowStarted  EventKind = "workflow_started"
	EventNodeStarted      EventKind = "node_started"
	EventNodeFinished     EventKind = "node_finished"
	EventWorkflowFinished EventKind = "workflow_finished"
)

// Event is the closed set of payloads the relay understands. Every case
// embeds Envelope; anything else decodes as UnknownEvent.
type Event interface {
	Kind() EventKind
	event()
}

// Envelope holds the fields shared by every upstream event.
type Envelope struct {
	Event          EventKind `json:"event"`
	TaskID         string    `json:"task_id,omitempty"`
	MessageID      string    `json:"message_id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	CreatedAt      int64     `json:"created_at,omitempty"`
}

func (e Envelope) Kind() EventKind { return e.Event }

func (Envelope) event() {}

// MessageEvent carries an incremental answer chunk. It also covers agent_message.
type MessageEvent struct {
	Envelope
	ID     string `json:"id"`
	Answer string `json:"answer"`
}

// AgentThoughtEvent reports an agent reasoning step.
type AgentThoughtEvent struct {
	Envelope
	ID          string `json:"id"`
	Position    int    `json:"position"`
	Thought     string `json:"thought"`
	Tool        string `json:"tool"`
	ToolInput   string `json:"tool_input"`
	Observation string `json:"observation"`
}

// MessageFileEvent announces a file produced for the conversation.
type MessageFileEvent struct {
	Envelope
	ID        string `json:"id"`
	Type      string `json:"type"`
	BelongsTo string `json:"belongs_to"`
	URL       string `json:"url"`
}

// MessageEndEvent terminates an answer and reveals the conversation id.
type MessageEndEvent struct {
	Envelope
	ID                 string          `json:"id"`
	Metadata           json.RawMessage `json:"metadata,omitempty"`
	RetrieverResources json.RawMessage `json:"retriever_resources,omitempty"`
}

// TTSMessageEvent carries synthesized audio. It covers tts_message and tts_message_end.
type TTSMessageEvent struct {
	Envelope
	Audio string `json:"audio"`
}

// MessageReplaceEvent replaces the answer streamed so far.
type MessageReplaceEvent struct {
	Envelope
	Answer string `json:"answer"`
}

// ErrorEvent is an error reported in-band by the upstream service.
type ErrorEvent struct {
	Envelope
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PingEvent is a keep-alive.
type PingEvent struct {
	Envelope
}

// WorkflowEvent covers workflow and node lifecycle events.
type WorkflowEvent struct {
	Envelope
	WorkflowRunID string          `json:"workflow_run_id"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// UnknownEvent is a well-formed payload with an unrecognized event kind.
type UnknownEvent struct {
	Envelope
	Raw json.RawMessage `json:"-"`
}

// ParseEvent decodes one data payload into its event case.
func ParseEvent(data []byte) (Event, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	switch envelope.Event {
	case EventMessage, EventAgentMessage:
		return decode[MessageEvent](data)
	case EventAgentThought:
		return decode[AgentThoughtEvent](data)
	case EventMessageFile:
		return decode[MessageFileEvent](data)
	case EventMessageEnd:
		return decode[MessageEndEvent](data)
	case EventTTSMessage, EventTTSMessageEnd:
		return decode[TTSMessageEvent](data)
	case EventMessageReplace:
		return decode[MessageReplaceEvent](data)
	case EventError:
		return decode[ErrorEvent](data)
	case EventPing:
		return decode[PingEvent](data)
	case EventWorkflowStarted, EventNodeStarted, EventNodeFinished, EventWorkflowFinished:
		return decode[WorkflowEvent](data)
	default:
		return UnknownEvent{Envelope: envelope, Raw: json.RawMessage(data)}, nil
	}
}

func decode[T Event](data []byte) (Event, error) {
	var ev T
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode %T: %w", ev, err)
	}
	return ev, nil
}

// ConversationIDOf returns the conversation id revealed by a terminal message_end event.
func ConversationIDOf(ev Event) (string, bool) {
	end, ok := ev.(MessageEndEvent)
	if !ok || end.ConversationID == "" {
		return "", false
	}
	return end.ConversationID, true
}
