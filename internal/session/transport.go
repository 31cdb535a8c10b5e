package session

import (
	"context"

	"github.com/recall-labs/immersive/pkg/realtime"
	"github.com/recall-labs/immersive/pkg/toolsystem"
)

// Transport is the boundary to the external speech-to-speech backend. One
// transport per connection attempt; its event channel closes when the
// connection dies.
type Transport interface {
	SetTools(decls []toolsystem.Declaration)
	Connect(ctx context.Context) error
	Close() error
	IsConnected() bool
	AppendAudio(pcm []byte) error
	SendUserText(text string) error
	SendToolResult(callID, output string) error
	Events() <-chan realtime.Event
}

// TransportFactory builds a fresh transport for each audio session.
type TransportFactory func() Transport

// Sink is the user-facing output side of a session: the chat/voice client the
// orchestrator relays assistant output to.
type Sink interface {
	// SendAudioDelta relays assistant speech tagged with the current
	// audio track id.
	SendAudioDelta(trackID string, pcm []byte) error
	// SendTranscript relays an assistant transcript delta.
	SendTranscript(text string) error
	// CancelAudio tells the client to drop any in-flight audio playback.
	CancelAudio() error
	// Notice shows a user-visible informational message.
	Notice(text string)
	// Error shows a user-visible error message.
	Error(text string)
}
