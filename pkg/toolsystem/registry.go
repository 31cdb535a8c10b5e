package toolsystem

import (
	"fmt"
	"sync"
)

// Registry is the closed catalogue of assistant-invocable tools.
type Registry interface {
	Register(t Tool) error
	Get(name string) (Tool, bool)
	List() []Tool
	// Declarations returns every tool in wire form for session setup.
	Declarations() []Declaration
}

type memoryRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewMemoryRegistry() Registry {
	return &memoryRegistry{
		tools: make(map[string]Tool),
	}
}

// Register implements Registry. Names are unique; schemas are validated here
// so a malformed catalogue fails at startup, not mid-conversation.
func (m *memoryRegistry) Register(t Tool) error {
	if err := validateDeclaration(t.Decl); err != nil {
		return err
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Decl.Name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tools[t.Decl.Name]; exists {
		return fmt.Errorf("tool %s already registered", t.Decl.Name)
	}
	m.tools[t.Decl.Name] = t
	return nil
}

// Get implements Registry.
func (m *memoryRegistry) Get(name string) (Tool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tool, exists := m.tools[name]
	return tool, exists
}

// List implements Registry.
func (m *memoryRegistry) List() []Tool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Tool, 0, len(m.tools))
	for _, tool := range m.tools {
		out = append(out, tool)
	}
	return out
}

// Declarations implements Registry.
func (m *memoryRegistry) Declarations() []Declaration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Declaration, 0, len(m.tools))
	for _, tool := range m.tools {
		out = append(out, tool.Decl)
	}
	return out
}

func validateDeclaration(d Declaration) error {
	if d.Name == "" {
		return fmt.Errorf("tool declaration missing name")
	}
	if d.Parameters.Type != "object" {
		return fmt.Errorf("tool %s: parameter schema must be an object", d.Name)
	}
	for _, req := range d.Parameters.Required {
		if _, ok := d.Parameters.Properties[req]; !ok {
			return fmt.Errorf("tool %s: required parameter %s not declared", d.Name, req)
		}
	}
	for name, prop := range d.Parameters.Properties {
		switch prop.Type {
		case "string", "number", "boolean", "object", "array":
		default:
			return fmt.Errorf("tool %s: parameter %s has unknown type %q", d.Name, name, prop.Type)
		}
	}
	return nil
}
