package toolsystem

import "context"

// Parameter schema shapes advertised to the speech transport. Mirrors the
// JSON-schema style function declarations the realtime API expects.

type ParamProperty struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
}

type ParamSchema struct {
	Type       string                   `json:"type"` // always "object"
	Properties map[string]ParamProperty `json:"properties"`
	Required   []string                 `json:"required"`
}

// Declaration is the wire-facing description of one tool: name, description
// and parameter object. Registered with the transport before the session
// starts accepting calls.
type Declaration struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  ParamSchema `json:"parameters"`
}

// Handler executes one tool call. The returned string is relayed back into
// the conversation as the tool's response; a non-nil error is converted to an
// error string by the executor, never propagated past it.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool pairs a declaration with its handler.
type Tool struct {
	Decl    Declaration
	Handler Handler
}
