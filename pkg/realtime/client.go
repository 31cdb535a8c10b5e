package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/recall-labs/immersive/pkg/Logger"
	"github.com/recall-labs/immersive/pkg/toolsystem"
)

const defaultBaseURL = "wss://api.openai.com/v1/realtime"

// Config for one realtime connection.
type Config struct {
	APIKey       string
	Model        string
	Instructions string
	Voice        string
	BaseURL      string // override for tests/proxies
}

// Client is a speech-to-speech session over a realtime websocket. One client
// per user session; create a fresh client for every reconnect.
type Client struct {
	cfg    Config
	logger *Logger.Logger

	tools []toolsystem.Declaration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool

	events chan Event
	ready  chan struct{}
}

func NewClient(cfg Config, logger *Logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		events: make(chan Event, 64),
		ready:  make(chan struct{}),
	}
}

// SetTools sets the tool declarations advertised at session setup. Must be
// called before Connect; the registry is atomic from the transport's view.
func (c *Client) SetTools(decls []toolsystem.Declaration) {
	c.tools = decls
}

// Events returns the event stream. Closed after EventClosed is delivered.
func (c *Client) Events() <-chan Event {
	return c.events
}

// IsConnected reports whether the transport connection is up.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Connect dials the realtime endpoint, advertises the session configuration
// and tool catalogue, and blocks until the backend acknowledges the session
// or ctx expires.
func (c *Client) Connect(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	endpoint := fmt.Sprintf("%s?model=%s", c.cfg.BaseURL, c.cfg.Model)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return fmt.Errorf("dial realtime endpoint: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop()

	if err := c.sendSessionUpdate(); err != nil {
		conn.Close()
		return fmt.Errorf("configure session: %w", err)
	}

	select {
	case <-c.ready:
	case <-ctx.Done():
		conn.Close()
		return fmt.Errorf("realtime handshake: %w", ctx.Err())
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.logger.Infof("realtime session established (model=%s, %d tools)", c.cfg.Model, len(c.tools))
	return nil
}

// Close tears down the connection. Idempotent; safe to call when never
// connected or already closed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.connected = false
	err := c.conn.Close()
	c.conn = nil
	return err
}

// AppendAudio forwards raw pcm16 microphone bytes into the input buffer.
func (c *Client) AppendAudio(pcm []byte) error {
	return c.send(map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(pcm),
	})
}

// SendUserText submits a typed user utterance and asks for a response.
func (c *Client) SendUserText(text string) error {
	err := c.send(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type": "message",
			"role": "user",
			"content": []map[string]any{
				{"type": "input_text", "text": text},
			},
		},
	})
	if err != nil {
		return err
	}
	return c.send(map[string]any{"type": "response.create"})
}

// SendToolResult feeds a tool handler's string response back into the
// conversation for the given call id.
func (c *Client) SendToolResult(callID, output string) error {
	err := c.send(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type":    "function_call_output",
			"call_id": callID,
			"output":  output,
		},
	})
	if err != nil {
		return err
	}
	return c.send(map[string]any{"type": "response.create"})
}

func (c *Client) sendSessionUpdate() error {
	tools := make([]map[string]any, 0, len(c.tools))
	for _, decl := range c.tools {
		tools = append(tools, map[string]any{
			"type":        "function",
			"name":        decl.Name,
			"description": decl.Description,
			"parameters":  decl.Parameters,
		})
	}
	session := map[string]any{
		"modalities":          []string{"text", "audio"},
		"input_audio_format":  "pcm16",
		"output_audio_format": "pcm16",
		"tools":               tools,
		"tool_choice":         "auto",
		"turn_detection":      map[string]any{"type": "server_vad"},
	}
	if c.cfg.Instructions != "" {
		session["instructions"] = c.cfg.Instructions
	}
	if c.cfg.Voice != "" {
		session["voice"] = c.cfg.Voice
	}
	return c.send(map[string]any{"type": "session.update", "session": session})
}

func (c *Client) send(payload map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("realtime transport not connected")
	}
	return c.conn.WriteJSON(payload)
}

// serverEvent is the superset of wire fields we care about.
type serverEvent struct {
	Type  string `json:"type"`
	Delta string `json:"delta"`
	Item  struct {
		Type      string `json:"type"`
		CallID    string `json:"call_id"`
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"item"`
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		c.emit(Event{Type: EventClosed})
		close(c.events)
	}()

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			c.logger.Debugf("realtime read loop ending: %v", err)
			return
		}

		var ev serverEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warnf("undecodable realtime event: %v", err)
			continue
		}
		c.dispatch(ev)
	}
}

// dispatch folds backend wire events into the consumed contract.
func (c *Client) dispatch(ev serverEvent) {
	switch ev.Type {
	case "session.created", "session.updated":
		select {
		case <-c.ready:
		default:
			close(c.ready)
		}
	case "response.audio.delta":
		pcm, err := base64.StdEncoding.DecodeString(ev.Delta)
		if err != nil {
			c.logger.Warnf("bad audio delta: %v", err)
			return
		}
		c.emit(Event{Type: EventConversationUpdated, Audio: pcm})
	case "response.audio_transcript.delta", "response.text.delta":
		c.emit(Event{Type: EventConversationUpdated, Transcript: ev.Delta})
	case "response.function_call_arguments.delta":
		c.emit(Event{Type: EventConversationUpdated, Arguments: ev.Delta})
	case "response.output_item.done":
		if ev.Item.Type != "function_call" {
			c.emit(Event{Type: EventItemCompleted})
			return
		}
		args := map[string]any{}
		if ev.Item.Arguments != "" {
			if err := json.Unmarshal([]byte(ev.Item.Arguments), &args); err != nil {
				c.logger.Warnf("bad tool arguments for %s: %v", ev.Item.Name, err)
			}
		}
		c.emit(Event{
			Type: EventItemCompleted,
			ToolCall: &ToolCall{
				CallID:    ev.Item.CallID,
				Name:      ev.Item.Name,
				Arguments: args,
			},
		})
	case "input_audio_buffer.speech_started":
		c.emit(Event{Type: EventInterrupted})
	case "error":
		c.emit(Event{
			Type: EventError,
			Err:  fmt.Errorf("%s: %s", ev.Error.Code, ev.Error.Message),
		})
	}
}

func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		// Audio deltas can outrun a slow consumer; dropping beats
		// blocking the read loop.
		c.logger.Warnf("realtime event buffer full, dropping %s", ev.Type)
	}
}
