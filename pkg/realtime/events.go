package realtime

// Event contract the session layer consumes. The wire protocol of the speech
// backend is folded into this small tagged variant so the orchestrator never
// sees transport-specific message types.

type EventType string

const (
	// EventConversationUpdated carries at most one populated delta:
	// audio, transcript or tool-call arguments.
	EventConversationUpdated EventType = "conversation.updated"
	// EventItemCompleted fires when a conversation item finishes; for
	// function_call items it carries the parsed tool call.
	EventItemCompleted EventType = "conversation.item.completed"
	// EventInterrupted fires on barge-in: the user started speaking over
	// assistant audio.
	EventInterrupted EventType = "conversation.interrupted"
	// EventError is a transport-reported runtime error; the connection
	// may still be alive.
	EventError EventType = "error"
	// EventClosed is the final event: the transport connection is gone.
	EventClosed EventType = "closed"
)

// ToolCall names one registered tool and its decoded arguments.
type ToolCall struct {
	CallID    string
	Name      string
	Arguments map[string]any
}

// Event is one message from the speech transport.
type Event struct {
	Type EventType

	// conversation.updated deltas, at most one set.
	Audio      []byte
	Transcript string
	Arguments  string

	// conversation.item.completed payload, nil for plain message items.
	ToolCall *ToolCall

	Err error
}
