package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/smallnest/ringbuffer"

	"github.com/recall-labs/immersive/internal/config"
	"github.com/recall-labs/immersive/internal/domains/knowledge"
	"github.com/recall-labs/immersive/internal/session"
	"github.com/recall-labs/immersive/internal/tools"
	"github.com/recall-labs/immersive/internal/tools/catalog"
	"github.com/recall-labs/immersive/pkg/Logger"
	"github.com/recall-labs/immersive/pkg/playback"
	"github.com/recall-labs/immersive/pkg/realtime"
	"github.com/recall-labs/immersive/pkg/toolsystem"
)

const (
	audioBufferSize = 256 * 1024
	audioRelayChunk = 4096
)

// Handler owns the user-facing voice/chat websocket. Each connection gets its
// own session orchestrator, conversation state and tool registry; the
// playback channel and knowledge base are shared.
type Handler struct {
	logger    *Logger.Logger
	cfg       *config.Settings
	channel   *playback.Channel
	knowledge knowledge.Service
	upgrader  websocket.Upgrader

	// overridable in tests
	newTransport session.TransportFactory
}

func NewHandler(
	logger *Logger.Logger,
	cfg *config.Settings,
	channel *playback.Channel,
	kb knowledge.Service,
) *Handler {
	h := &Handler{
		logger:    logger,
		cfg:       cfg,
		channel:   channel,
		knowledge: kb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: Implement proper origin checking for production
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	h.newTransport = func() session.Transport {
		return realtime.NewClient(realtime.Config{
			APIKey:       cfg.Realtime.APIKey,
			Model:        cfg.Realtime.Model,
			Voice:        cfg.Realtime.Voice,
			Instructions: cfg.Realtime.Instructions,
		}, logger.Named("realtime"))
	}
	return h
}

// RegisterRoutes registers the voice session endpoint.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/ws/voice", h.HandleVoiceSocket)
}

// HandleVoiceSocket runs one user's chat/voice session for the lifetime of
// the websocket connection.
func (h *Handler) HandleVoiceSocket(c *gin.Context) {
	sock, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("voice ws upgrade failed: %v", err)
		return
	}
	defer sock.Close()

	userID := uuid.New()
	h.logger.Infof("voice session connected: %s", userID)

	client := newClientConn(sock)

	registry := toolsystem.NewMemoryRegistry()
	deps := &tools.Dependencies{
		Logger:    h.logger,
		Playback:  h.channel,
		Knowledge: h.knowledge,
		State:     &tools.ConversationState{},
		Surface:   client,
	}
	if err := catalog.RegisterAll(registry, deps); err != nil {
		h.logger.Errorf("tool setup for %s failed: %v", userID, err)
		client.Error("Session setup failed.")
		return
	}

	orch := session.New(h.logger.Named("session"), registry, toolsystem.NewExecutor(), h.newTransport, client)
	defer orch.Stop(context.Background())

	// Mic audio is buffered through a non-blocking ring so a stalled
	// transport write never backs up the websocket read loop; overflow
	// drops the oldest unconsumed audio.
	audioBuf := ringbuffer.New(audioBufferSize).SetBlocking(false)
	relayDone := make(chan struct{})
	defer close(relayDone)
	go h.relayAudio(orch, audioBuf, relayDone)

	for {
		msgType, data, err := sock.ReadMessage()
		if err != nil {
			h.logger.Infof("voice session %s ended: %v", userID, err)
			return
		}

		switch msgType {
		case websocket.TextMessage:
			h.handleControlFrame(c.Request.Context(), orch, client, data)
		case websocket.BinaryMessage:
			if _, err := audioBuf.Write(data); err != nil {
				h.logger.Debugf("audio buffer overflow for %s: %v", userID, err)
			}
		default:
			h.logger.Warnf("unknown ws message type %d from %s", msgType, userID)
		}
	}
}

func (h *Handler) relayAudio(orch *session.Orchestrator, buf *ringbuffer.RingBuffer, done <-chan struct{}) {
	chunk := make([]byte, audioRelayChunk)
	for {
		select {
		case <-done:
			return
		default:
		}

		n, _ := buf.Read(chunk)
		if n == 0 {
			// empty buffer; wait for more microphone data
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if err := orch.RelayAudioChunk(chunk[:n]); err != nil {
			h.logger.Warnf("audio relay: %v", err)
		}
	}
}

type controlFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

func (h *Handler) handleControlFrame(ctx context.Context, orch *session.Orchestrator, client *clientConn, data []byte) {
	var frame controlFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.logger.Warnf("undecodable control frame: %v", err)
		return
	}

	switch frame.Type {
	case "start_audio":
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := orch.StartAudioSession(connectCtx); err != nil {
			h.logger.Errorf("start audio session: %v", err)
		}
	case "stop_audio":
		orch.Stop(ctx)
	case "text":
		if err := orch.SendUserText(frame.Content); err != nil {
			h.logger.Errorf("send user text: %v", err)
		}
	default:
		h.logger.Warnf("unhandled control frame type %q", frame.Type)
	}
}

// Outbound frames. Audio payloads ride as base64 via encoding/json's []byte
// handling, matching what the browser client decodes.
type audioFrame struct {
	Type  string `json:"type"`
	Track string `json:"track"`
	Data  []byte `json:"data"`
}

type textFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// clientConn is the outbound half of the voice websocket. It implements both
// session.Sink and tools.Surface; every frame is one JSON object.
type clientConn struct {
	mu   sync.Mutex
	sock *websocket.Conn
}

func newClientConn(sock *websocket.Conn) *clientConn {
	return &clientConn{sock: sock}
}

func (c *clientConn) write(frame any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock.WriteJSON(frame)
}

// SendAudioDelta implements session.Sink.
func (c *clientConn) SendAudioDelta(trackID string, pcm []byte) error {
	return c.write(audioFrame{Type: "audio", Track: trackID, Data: pcm})
}

// SendTranscript implements session.Sink.
func (c *clientConn) SendTranscript(text string) error {
	return c.write(textFrame{Type: "transcript", Content: text})
}

// CancelAudio implements session.Sink.
func (c *clientConn) CancelAudio() error {
	return c.write(textFrame{Type: "audio_interrupt"})
}

// Notice implements session.Sink and tools.Surface.
func (c *clientConn) Notice(text string) {
	_ = c.write(textFrame{Type: "notice", Content: text})
}

// Error implements session.Sink.
func (c *clientConn) Error(text string) {
	_ = c.write(textFrame{Type: "error", Content: text})
}

// Image implements tools.Surface.
func (c *clientConn) Image(path string) {
	_ = c.write(textFrame{Type: "image", Content: path})
}
