package playback

import "encoding/json"

// Wire message types understood by the display client.
const (
	TypeUpdateInterval  = "updateVideoInterval"
	TypeFastForward     = "fastForward"
	TypePlay            = "playVideo"
	TypePause           = "pauseVideo"
	TypeSetFullscreen   = "setVideoFullscreen"
	TypeUnsetFullscreen = "unsetVideoFullscreen"
)

// Command is one of the closed set of display-control instructions.
// Commands are immutable values; they are built by tool handlers and
// serialized to a single JSON object on the display channel.
type Command interface {
	Type() string
	wire() wireMessage
}

type wireMessage struct {
	Type  string   `json:"type"`
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
	Delta *float64 `json:"delta,omitempty"`
}

// UpdateInterval seeks the display to start and plays until end (seconds).
type UpdateInterval struct {
	Start float64
	End   float64
}

func (c UpdateInterval) Type() string { return TypeUpdateInterval }
func (c UpdateInterval) wire() wireMessage {
	s, e := c.Start, c.End
	return wireMessage{Type: TypeUpdateInterval, Start: &s, End: &e}
}

// FastForward skips the display forward (or back, negative delta) by Delta seconds.
type FastForward struct {
	Delta float64
}

func (c FastForward) Type() string { return TypeFastForward }
func (c FastForward) wire() wireMessage {
	d := c.Delta
	return wireMessage{Type: TypeFastForward, Delta: &d}
}

// Play resumes playback on the display.
type Play struct{}

func (c Play) Type() string      { return TypePlay }
func (c Play) wire() wireMessage { return wireMessage{Type: TypePlay} }

// Pause halts playback on the display.
type Pause struct{}

func (c Pause) Type() string      { return TypePause }
func (c Pause) wire() wireMessage { return wireMessage{Type: TypePause} }

// SetFullscreen puts the display video into fullscreen.
type SetFullscreen struct{}

func (c SetFullscreen) Type() string      { return TypeSetFullscreen }
func (c SetFullscreen) wire() wireMessage { return wireMessage{Type: TypeSetFullscreen} }

// UnsetFullscreen exits fullscreen on the display.
type UnsetFullscreen struct{}

func (c UnsetFullscreen) Type() string      { return TypeUnsetFullscreen }
func (c UnsetFullscreen) wire() wireMessage { return wireMessage{Type: TypeUnsetFullscreen} }

// Marshal serializes a command to its wire form.
func Marshal(c Command) ([]byte, error) {
	return json.Marshal(c.wire())
}
