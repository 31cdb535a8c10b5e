package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/recall-labs/immersive/pkg/Logger"
	"github.com/recall-labs/immersive/pkg/realtime"
	"github.com/recall-labs/immersive/pkg/toolsystem"
)

type fakeTransport struct {
	connectErr  error
	connected   bool
	events      chan realtime.Event
	audio       [][]byte
	userTexts   []string
	toolResults map[string]string
	decls       []toolsystem.Declaration
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		events:      make(chan realtime.Event, 16),
		toolResults: make(map[string]string),
	}
}

func (f *fakeTransport) SetTools(decls []toolsystem.Declaration) { f.decls = decls }

func (f *fakeTransport) Connect(ctx context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeTransport) Close() error {
	if f.connected {
		f.connected = false
		close(f.events)
	}
	return nil
}

func (f *fakeTransport) IsConnected() bool { return f.connected }

func (f *fakeTransport) AppendAudio(pcm []byte) error {
	f.audio = append(f.audio, pcm)
	return nil
}

func (f *fakeTransport) SendUserText(text string) error {
	f.userTexts = append(f.userTexts, text)
	return nil
}

func (f *fakeTransport) SendToolResult(callID, output string) error {
	f.toolResults[callID] = output
	return nil
}

func (f *fakeTransport) Events() <-chan realtime.Event { return f.events }

type recordingSink struct {
	audioTracks []string
	transcripts []string
	cancels     int
	notices     []string
	errors      []string
}

func (r *recordingSink) SendAudioDelta(trackID string, pcm []byte) error {
	r.audioTracks = append(r.audioTracks, trackID)
	return nil
}

func (r *recordingSink) SendTranscript(text string) error {
	r.transcripts = append(r.transcripts, text)
	return nil
}

func (r *recordingSink) CancelAudio() error {
	r.cancels++
	return nil
}

func (r *recordingSink) Notice(text string) { r.notices = append(r.notices, text) }
func (r *recordingSink) Error(text string)  { r.errors = append(r.errors, text) }

func testRegistry(t *testing.T) toolsystem.Registry {
	t.Helper()
	reg := toolsystem.NewMemoryRegistry()
	tool, err := toolsystem.NewToolBuilder("greet", "Greets").
		AddStringParameter("name", "who", true).
		SetHandler(func(ctx context.Context, args map[string]any) (string, error) {
			return "hello " + args["name"].(string), nil
		}).
		Build()
	if err != nil {
		t.Fatalf("build tool: %v", err)
	}
	if err := reg.Register(tool); err != nil {
		t.Fatalf("register tool: %v", err)
	}
	return reg
}

func newTestOrchestrator(t *testing.T, transport *fakeTransport) (*Orchestrator, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	orch := New(
		Logger.New(true),
		testRegistry(t),
		toolsystem.NewExecutor(),
		func() Transport { return transport },
		sink,
	)
	return orch, sink
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSendUserTextBeforeStart(t *testing.T) {
	transport := newFakeTransport()
	orch, sink := newTestOrchestrator(t, transport)

	if err := orch.SendUserText("hello"); err != nil {
		t.Fatalf("SendUserText: %v", err)
	}

	if len(sink.notices) != 1 {
		t.Fatalf("expected one user-visible notice, got %d", len(sink.notices))
	}
	if len(transport.userTexts) != 0 {
		t.Error("no transport call should be made while disconnected")
	}
	if orch.State() != StateIdle {
		t.Errorf("state = %s, want idle", orch.State())
	}
}

func TestConnectFailureStaysIdle(t *testing.T) {
	transport := newFakeTransport()
	transport.connectErr = errors.New("auth rejected")
	orch, sink := newTestOrchestrator(t, transport)

	if err := orch.StartAudioSession(context.Background()); err == nil {
		t.Fatal("expected connect error")
	}
	if orch.State() != StateIdle {
		t.Errorf("state after failed connect = %s, want idle", orch.State())
	}
	if len(sink.errors) != 1 || !strings.Contains(sink.errors[0], "auth rejected") {
		t.Errorf("expected a user-visible connect error, got %v", sink.errors)
	}

	// Retryable: a fixed transport connects fine.
	transport.connectErr = nil
	if err := orch.StartAudioSession(context.Background()); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if orch.State() != StateConnected {
		t.Errorf("state after retry = %s, want connected", orch.State())
	}
}

func TestAudioDeltasCarryTrackID(t *testing.T) {
	transport := newFakeTransport()
	orch, sink := newTestOrchestrator(t, transport)

	if err := orch.StartAudioSession(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	transport.events <- realtime.Event{Type: realtime.EventConversationUpdated, Audio: []byte{1, 2}}
	waitFor(t, func() bool { return len(sink.audioTracks) == 1 })

	if sink.audioTracks[0] != orch.TrackID() {
		t.Errorf("audio delta tagged %q, want current track %q", sink.audioTracks[0], orch.TrackID())
	}
}

func TestInterruptionRotatesTrackID(t *testing.T) {
	transport := newFakeTransport()
	orch, sink := newTestOrchestrator(t, transport)

	if err := orch.StartAudioSession(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	initial := orch.TrackID()

	transport.events <- realtime.Event{Type: realtime.EventInterrupted}
	waitFor(t, func() bool { return sink.cancels == 1 })
	first := orch.TrackID()

	transport.events <- realtime.Event{Type: realtime.EventInterrupted}
	waitFor(t, func() bool { return sink.cancels == 2 })
	second := orch.TrackID()

	if first == initial || second == first {
		t.Errorf("track ids must rotate on every interruption: %s, %s, %s", initial, first, second)
	}
	if orch.State() != StateConnected {
		t.Errorf("interruption is transient, state = %s, want connected", orch.State())
	}
}

func TestToolCallDispatchFeedsResultBack(t *testing.T) {
	transport := newFakeTransport()
	orch, _ := newTestOrchestrator(t, transport)

	if err := orch.StartAudioSession(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	transport.events <- realtime.Event{
		Type: realtime.EventItemCompleted,
		ToolCall: &realtime.ToolCall{
			CallID:    "call-7",
			Name:      "greet",
			Arguments: map[string]any{"name": "ada"},
		},
	}
	waitFor(t, func() bool { return transport.toolResults["call-7"] != "" })

	if got := transport.toolResults["call-7"]; got != "hello ada" {
		t.Errorf("tool result = %q, want %q", got, "hello ada")
	}
}

func TestMalformedToolCallDoesNotKillSession(t *testing.T) {
	transport := newFakeTransport()
	orch, _ := newTestOrchestrator(t, transport)

	if err := orch.StartAudioSession(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	transport.events <- realtime.Event{
		Type: realtime.EventItemCompleted,
		ToolCall: &realtime.ToolCall{
			CallID:    "call-8",
			Name:      "greet",
			Arguments: map[string]any{},
		},
	}
	waitFor(t, func() bool { return transport.toolResults["call-8"] != "" })

	if !strings.Contains(transport.toolResults["call-8"], "Error") {
		t.Errorf("validation failure should surface as an error string, got %q", transport.toolResults["call-8"])
	}
	if orch.State() != StateConnected {
		t.Errorf("a bad tool call must not end the session, state = %s", orch.State())
	}
}

func TestToolsAdvertisedBeforeConnect(t *testing.T) {
	transport := newFakeTransport()
	orch, _ := newTestOrchestrator(t, transport)

	if err := orch.StartAudioSession(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(transport.decls) != 1 || transport.decls[0].Name != "greet" {
		t.Errorf("tool declarations should be set at session setup, got %v", transport.decls)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	transport := newFakeTransport()
	orch, _ := newTestOrchestrator(t, transport)

	ctx := context.Background()
	orch.Stop(ctx) // never started

	if err := orch.StartAudioSession(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	orch.Stop(ctx)
	orch.Stop(ctx) // already stopped

	waitFor(t, func() bool { return orch.State() == StateDisconnected })
	if transport.IsConnected() {
		t.Error("transport should be closed after Stop")
	}
}

func TestRelayAudioChunkWhileDisconnected(t *testing.T) {
	transport := newFakeTransport()
	orch, _ := newTestOrchestrator(t, transport)

	if err := orch.RelayAudioChunk([]byte{1, 2, 3}); err != nil {
		t.Fatalf("relay while disconnected must be a no-op, got %v", err)
	}
	if len(transport.audio) != 0 {
		t.Error("no audio should reach the transport while disconnected")
	}
}
