package toolsystem

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func echoTool(t *testing.T) Tool {
	t.Helper()
	tool, err := NewToolBuilder("echo", "Echo the given text back").
		AddStringParameter("text", "Text to echo", true).
		AddNumberParameter("times", "Repeat count", false).
		SetHandler(func(ctx context.Context, args map[string]any) (string, error) {
			return fmt.Sprintf("echo: %v", args["text"]), nil
		}).
		Build()
	if err != nil {
		t.Fatalf("build echo tool: %v", err)
	}
	return tool
}

func TestExecuteSuccess(t *testing.T) {
	reg := NewMemoryRegistry()
	if err := reg.Register(echoTool(t)); err != nil {
		t.Fatalf("register: %v", err)
	}

	res := NewExecutor().Execute(context.Background(), reg, Call{
		ID:        "call-1",
		Name:      "echo",
		Arguments: map[string]any{"text": "hi"},
	})
	if res.Failed {
		t.Fatalf("unexpected failure: %s", res.Response)
	}
	if res.Response != "echo: hi" {
		t.Errorf("unexpected response %q", res.Response)
	}
}

func TestExecuteMissingRequiredArg(t *testing.T) {
	reg := NewMemoryRegistry()
	if err := reg.Register(echoTool(t)); err != nil {
		t.Fatalf("register: %v", err)
	}

	res := NewExecutor().Execute(context.Background(), reg, Call{
		ID:        "call-2",
		Name:      "echo",
		Arguments: map[string]any{},
	})
	if !res.Failed {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(res.Response, "text") {
		t.Errorf("error string should name the missing argument, got %q", res.Response)
	}
}

func TestExecuteWrongArgType(t *testing.T) {
	reg := NewMemoryRegistry()
	if err := reg.Register(echoTool(t)); err != nil {
		t.Fatalf("register: %v", err)
	}

	res := NewExecutor().Execute(context.Background(), reg, Call{
		ID:        "call-3",
		Name:      "echo",
		Arguments: map[string]any{"text": "hi", "times": "three"},
	})
	if !res.Failed {
		t.Fatal("expected type validation failure")
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	reg := NewMemoryRegistry()
	res := NewExecutor().Execute(context.Background(), reg, Call{ID: "call-4", Name: "nope"})
	if !res.Failed {
		t.Fatal("expected failure for unknown tool")
	}
}

func TestExecuteHandlerErrorBecomesString(t *testing.T) {
	reg := NewMemoryRegistry()
	tool, err := NewToolBuilder("boom", "Always fails").
		SetHandler(func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("kaput")
		}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := reg.Register(tool); err != nil {
		t.Fatalf("register: %v", err)
	}

	res := NewExecutor().Execute(context.Background(), reg, Call{ID: "call-5", Name: "boom", Arguments: map[string]any{}})
	if !res.Failed {
		t.Fatal("expected failed result")
	}
	if !strings.Contains(res.Response, "kaput") {
		t.Errorf("handler error should surface in the response string, got %q", res.Response)
	}
}

func TestExecuteAtMostOncePerCallID(t *testing.T) {
	reg := NewMemoryRegistry()

	invocations := 0
	tool, err := NewToolBuilder("count", "Counts invocations").
		SetHandler(func(ctx context.Context, args map[string]any) (string, error) {
			invocations++
			return "ok", nil
		}).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := reg.Register(tool); err != nil {
		t.Fatalf("register: %v", err)
	}

	exec := NewExecutor()
	call := Call{ID: "dup", Name: "count", Arguments: map[string]any{}}
	first := exec.Execute(context.Background(), reg, call)
	second := exec.Execute(context.Background(), reg, call)

	if first.Failed {
		t.Fatalf("first execution should succeed: %s", first.Response)
	}
	if !second.Failed {
		t.Error("second execution with the same call id should be rejected")
	}
	if invocations != 1 {
		t.Errorf("handler ran %d times, want 1", invocations)
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	reg := NewMemoryRegistry()
	if err := reg.Register(echoTool(t)); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := reg.Register(echoTool(t)); err == nil {
		t.Error("duplicate tool name should be rejected")
	}
}

func TestRegistryRejectsUndeclaredRequired(t *testing.T) {
	reg := NewMemoryRegistry()
	err := reg.Register(Tool{
		Decl: Declaration{
			Name: "bad",
			Parameters: ParamSchema{
				Type:       "object",
				Properties: map[string]ParamProperty{},
				Required:   []string{"ghost"},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) { return "", nil },
	})
	if err == nil {
		t.Error("schema with undeclared required field should be rejected")
	}
}
