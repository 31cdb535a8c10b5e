package toolsystem

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Call is one tool invocation issued by the speech transport.
type Call struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Result is what goes back into the conversation for a call. Failures are
// carried in the response string; a bad tool call must not take the session
// down with it.
type Result struct {
	CallID   string
	Response string
	Failed   bool
	Duration time.Duration
}

type Executor interface {
	Execute(ctx context.Context, reg Registry, call Call) Result
}

type executor struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewExecutor() Executor {
	return &executor{
		seen: make(map[string]struct{}),
	}
}

// Execute implements Executor. Arguments are validated against the declared
// schema before the handler runs; execution is at-most-once per call id and
// handlers are never retried.
func (e *executor) Execute(ctx context.Context, reg Registry, call Call) Result {
	if call.ID != "" {
		e.mu.Lock()
		if _, dup := e.seen[call.ID]; dup {
			e.mu.Unlock()
			return e.fail(call, fmt.Sprintf("call %s already executed", call.ID))
		}
		e.seen[call.ID] = struct{}{}
		e.mu.Unlock()
	}

	tool, ok := reg.Get(call.Name)
	if !ok {
		return e.fail(call, fmt.Sprintf("unknown tool %q", call.Name))
	}

	if err := validateArgs(tool.Decl.Parameters, call.Arguments); err != nil {
		return e.fail(call, err.Error())
	}

	startTime := time.Now()
	response, err := tool.Handler(ctx, call.Arguments)
	duration := time.Since(startTime)

	if err != nil {
		return Result{
			CallID:   call.ID,
			Response: fmt.Sprintf("Error: %v", err),
			Failed:   true,
			Duration: duration,
		}
	}

	return Result{
		CallID:   call.ID,
		Response: response,
		Duration: duration,
	}
}

func (e *executor) fail(call Call, msg string) Result {
	return Result{
		CallID:   call.ID,
		Response: "Error: " + msg,
		Failed:   true,
	}
}

func validateArgs(schema ParamSchema, args map[string]any) error {
	for _, req := range schema.Required {
		if _, present := args[req]; !present {
			return fmt.Errorf("missing required argument %q", req)
		}
	}
	for name, value := range args {
		prop, declared := schema.Properties[name]
		if !declared {
			return fmt.Errorf("unexpected argument %q", name)
		}
		if value == nil {
			continue
		}
		if !typeMatches(prop.Type, value) {
			return fmt.Errorf("argument %q must be a %s", name, prop.Type)
		}
	}
	return nil
}

// typeMatches checks a decoded JSON value against a schema type. Numbers
// arrive as float64 from encoding/json.
func typeMatches(schemaType string, value any) bool {
	switch schemaType {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	}
	return false
}
