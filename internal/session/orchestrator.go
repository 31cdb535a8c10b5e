package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/recall-labs/immersive/pkg/Logger"
	"github.com/recall-labs/immersive/pkg/realtime"
	"github.com/recall-labs/immersive/pkg/toolsystem"
)

// Session lifecycle states.
const (
	StateIdle         = "idle"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
	StateInterrupted  = "interrupted"
	StateDisconnected = "disconnected"
)

const (
	eventStart           = "start"
	eventHandshakeOK     = "handshake_ok"
	eventHandshakeFailed = "handshake_failed"
	eventInterrupt       = "interrupt"
	eventResume          = "resume"
	eventStop            = "stop"
)

// Orchestrator owns one user's live voice interaction: the speech transport
// lifecycle, relay of audio both ways, and dispatch of assistant tool calls.
type Orchestrator struct {
	logger   *Logger.Logger
	registry toolsystem.Registry
	executor toolsystem.Executor
	factory  TransportFactory
	sink     Sink

	state *fsm.FSM

	mu        sync.Mutex
	transport Transport
	trackID   string

	// accumulated transcript / tool-argument deltas for the current turn
	transcript strings.Builder
	argsBuf    strings.Builder
}

func New(
	logger *Logger.Logger,
	registry toolsystem.Registry,
	executor toolsystem.Executor,
	factory TransportFactory,
	sink Sink,
) *Orchestrator {
	return &Orchestrator{
		logger:   logger,
		registry: registry,
		executor: executor,
		factory:  factory,
		sink:     sink,
		trackID:  uuid.New().String(),
		state: fsm.NewFSM(
			StateIdle,
			fsm.Events{
				{Name: eventStart, Src: []string{StateIdle, StateDisconnected}, Dst: StateConnecting},
				{Name: eventHandshakeOK, Src: []string{StateConnecting}, Dst: StateConnected},
				{Name: eventHandshakeFailed, Src: []string{StateConnecting}, Dst: StateIdle},
				{Name: eventInterrupt, Src: []string{StateConnected}, Dst: StateInterrupted},
				{Name: eventResume, Src: []string{StateInterrupted}, Dst: StateConnected},
				{Name: eventStop, Src: []string{StateConnecting, StateConnected, StateInterrupted}, Dst: StateDisconnected},
			},
			fsm.Callbacks{},
		),
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() string {
	return o.state.Current()
}

// TrackID returns the current audio track identifier. Rotated on every
// interruption so stale audio can be discarded client-side.
func (o *Orchestrator) TrackID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.trackID
}

func (o *Orchestrator) rotateTrackID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.trackID = uuid.New().String()
	return o.trackID
}

func (o *Orchestrator) currentTransport() Transport {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transport
}

func (o *Orchestrator) isConnected() bool {
	t := o.currentTransport()
	return t != nil && t.IsConnected()
}

// StartAudioSession establishes the speech transport. On failure the session
// stays idle and is retryable by another explicit start.
func (o *Orchestrator) StartAudioSession(ctx context.Context) error {
	if err := o.state.Event(ctx, eventStart); err != nil {
		return fmt.Errorf("cannot start audio session from state %s: %w", o.state.Current(), err)
	}

	transport := o.factory()
	transport.SetTools(o.registry.Declarations())

	if err := transport.Connect(ctx); err != nil {
		_ = o.state.Event(ctx, eventHandshakeFailed)
		o.sink.Error(fmt.Sprintf("Failed to connect to the speech session: %v", err))
		return err
	}

	o.mu.Lock()
	o.transport = transport
	o.mu.Unlock()

	if err := o.state.Event(ctx, eventHandshakeOK); err != nil {
		return err
	}

	go o.run(transport)
	o.logger.Info("audio session connected")
	return nil
}

// RelayAudioChunk forwards captured microphone bytes to the speech transport.
// A chunk arriving while not connected is dropped with a diagnostic.
func (o *Orchestrator) RelayAudioChunk(pcm []byte) error {
	transport := o.currentTransport()
	if transport == nil || !transport.IsConnected() {
		o.logger.Debug("speech transport not connected, dropping audio chunk")
		return nil
	}
	return transport.AppendAudio(pcm)
}

// SendUserText forwards a typed utterance into the conversation. Rejected
// with a user-facing notice when no speech session is active.
func (o *Orchestrator) SendUserText(text string) error {
	transport := o.currentTransport()
	if transport == nil || !transport.IsConnected() {
		o.sink.Notice("Please activate voice mode before sending messages!")
		return nil
	}
	return transport.SendUserText(text)
}

// Stop tears down the transport if it is connected. Idempotent: safe when
// never started, already stopped, or called from several shutdown paths.
func (o *Orchestrator) Stop(ctx context.Context) {
	o.mu.Lock()
	transport := o.transport
	o.transport = nil
	o.mu.Unlock()

	if transport != nil && transport.IsConnected() {
		if err := transport.Close(); err != nil {
			o.logger.Warnf("transport close: %v", err)
		}
	}
	if o.state.Can(eventStop) {
		_ = o.state.Event(ctx, eventStop)
	}
}

// run is the session's event-processing loop; exits when the transport's
// event stream closes.
func (o *Orchestrator) run(transport Transport) {
	ctx := context.Background()
	for ev := range transport.Events() {
		switch ev.Type {
		case realtime.EventConversationUpdated:
			o.handleUpdated(ev)
		case realtime.EventItemCompleted:
			o.handleItemCompleted(ctx, transport, ev)
		case realtime.EventInterrupted:
			o.handleInterrupted(ctx)
		case realtime.EventError:
			// Transport errors are logged but do not end the session
			// unless the connection itself goes away.
			o.logger.Errorf("speech transport error: %v", ev.Err)
		case realtime.EventClosed:
			o.logger.Info("speech transport closed")
		}
	}

	if o.state.Can(eventStop) {
		_ = o.state.Event(ctx, eventStop)
	}
}

// handleUpdated relays a conversation delta; at most one field is populated
// per event.
func (o *Orchestrator) handleUpdated(ev realtime.Event) {
	if len(ev.Audio) > 0 {
		if err := o.sink.SendAudioDelta(o.TrackID(), ev.Audio); err != nil {
			o.logger.Warnf("audio relay: %v", err)
		}
		return
	}
	if ev.Transcript != "" {
		o.transcript.WriteString(ev.Transcript)
		if err := o.sink.SendTranscript(ev.Transcript); err != nil {
			o.logger.Warnf("transcript relay: %v", err)
		}
		return
	}
	if ev.Arguments != "" {
		o.argsBuf.WriteString(ev.Arguments)
	}
}

func (o *Orchestrator) handleItemCompleted(ctx context.Context, transport Transport, ev realtime.Event) {
	o.argsBuf.Reset()
	if ev.ToolCall == nil {
		return
	}

	call := toolsystem.Call{
		ID:        ev.ToolCall.CallID,
		Name:      ev.ToolCall.Name,
		Arguments: ev.ToolCall.Arguments,
	}
	result := o.executor.Execute(ctx, o.registry, call)
	if result.Failed {
		o.logger.Warnf("tool %s failed: %s", call.Name, result.Response)
	} else {
		o.logger.Infof("tool %s completed in %s", call.Name, result.Duration)
	}

	if err := transport.SendToolResult(call.ID, result.Response); err != nil {
		o.logger.Errorf("sending tool result for %s: %v", call.Name, err)
	}
}

// handleInterrupted processes barge-in: rotate the track id so stale audio is
// discarded, tell the client to cancel playback, then resume relay. The
// interrupted state is transient, not a block.
func (o *Orchestrator) handleInterrupted(ctx context.Context) {
	if err := o.state.Event(ctx, eventInterrupt); err != nil {
		o.logger.Debugf("interrupt while %s ignored", o.state.Current())
		return
	}

	o.rotateTrackID()
	if err := o.sink.CancelAudio(); err != nil {
		o.logger.Warnf("audio cancel: %v", err)
	}

	_ = o.state.Event(ctx, eventResume)
}
