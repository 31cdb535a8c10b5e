package toolsystem

import "fmt"

// ToolBuilder assembles a tool declaration with a fluent interface.
type ToolBuilder struct {
	name        string
	description string
	properties  map[string]ParamProperty
	required    []string
	handler     Handler
}

func NewToolBuilder(name, description string) *ToolBuilder {
	return &ToolBuilder{
		name:        name,
		description: description,
		properties:  make(map[string]ParamProperty),
	}
}

// AddParameter adds a parameter to the tool.
func (tb *ToolBuilder) AddParameter(name, paramType, description string, required bool, enum ...string) *ToolBuilder {
	tb.properties[name] = ParamProperty{
		Type:        paramType,
		Description: description,
		Enum:        enum,
	}
	if required {
		tb.required = append(tb.required, name)
	}
	return tb
}

// AddStringParameter adds a string parameter.
func (tb *ToolBuilder) AddStringParameter(name, description string, required bool, enum ...string) *ToolBuilder {
	return tb.AddParameter(name, "string", description, required, enum...)
}

// AddNumberParameter adds a number parameter.
func (tb *ToolBuilder) AddNumberParameter(name, description string, required bool) *ToolBuilder {
	return tb.AddParameter(name, "number", description, required)
}

// SetHandler sets the tool handler function.
func (tb *ToolBuilder) SetHandler(handler Handler) *ToolBuilder {
	tb.handler = handler
	return tb
}

// Build creates the final Tool.
func (tb *ToolBuilder) Build() (Tool, error) {
	if tb.handler == nil {
		return Tool{}, fmt.Errorf("handler is required for tool %s", tb.name)
	}
	return Tool{
		Decl: Declaration{
			Name:        tb.name,
			Description: tb.description,
			Parameters: ParamSchema{
				Type:       "object",
				Properties: tb.properties,
				Required:   tb.required,
			},
		},
		Handler: tb.handler,
	}, nil
}

// BuildAndRegister creates the tool and registers it to the registry.
func (tb *ToolBuilder) BuildAndRegister(registry Registry) error {
	tool, err := tb.Build()
	if err != nil {
		return err
	}
	return registry.Register(tool)
}
