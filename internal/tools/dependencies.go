package tools

import (
	"sync"

	"github.com/recall-labs/immersive/internal/domains/knowledge"
	"github.com/recall-labs/immersive/pkg/Logger"
	"github.com/recall-labs/immersive/pkg/playback"
	"github.com/recall-labs/immersive/pkg/toolsystem"
)

// Surface is the user-facing side channel handlers use to show things in the
// chat alongside their string response, eg a selected event's title image.
type Surface interface {
	Notice(text string)
	Image(path string)
}

// ConversationState is the explicit per-session context threaded through tool
// handlers; it replaces ambient per-user session storage.
type ConversationState struct {
	mu           sync.Mutex
	currentEvent string
}

func (c *ConversationState) CurrentEvent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentEvent
}

func (c *ConversationState) SetCurrentEvent(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentEvent = label
}

// Dependencies holds everything tool handlers need. One value per session;
// Playback and Knowledge are shared services, State and Surface are the
// session's own.
type Dependencies struct {
	Logger    *Logger.Logger
	Playback  *playback.Channel
	Knowledge knowledge.Service
	State     *ConversationState
	Surface   Surface
}

// Builder builds one tool against a session's dependencies.
type Builder interface {
	Build(deps *Dependencies) (toolsystem.Tool, error)
}
