package tool

import (
	"context"

	"github.com/leofalp/mathchat/internal/jsonschema"
	"github.com/leofalp/mathchat/providers/ai"
)

// ParamType is the declared type of a tool parameter, named after its JSON schema type.
type ParamType string

const (
	Integer ParamType = "integer"
	Number  ParamType = "number"
	String  ParamType = "string"
	Boolean ParamType = "boolean"
)

// Valid reports whether t is one of the supported parameter types.
func (t ParamType) Valid() bool {
	switch t {
	case Integer, Number, String, Boolean:
		return true
	}
	return false
}

// Parameter declares one positional argument of a tool.
type Parameter struct {
	Name        string
	Type        ParamType
	Description string
}

// Func is the callable behind a tool. It receives the arguments already
// validated and coerced, in declaration order: int64 for Integer, float64
// for Number, string for String and bool for Boolean.
type Func func(ctx context.Context, args []any) (any, error)

// Definition is a named, typed callable exposed to the model.
// A Definition must not be modified once registered.
type Definition struct {
	Name        string
	Description string
	Parameters  []Parameter
	Func        Func
}

// ToolInfo returns the descriptor advertised to the model. The parameter
// schema is built from the declared parameter list.
func (d *Definition) ToolInfo() ai.ToolDescription {
	properties := make([]jsonschema.Property, 0, len(d.Parameters))
	for _, param := range d.Parameters {
		properties = append(properties, jsonschema.Property{
			Name: param.Name,
			Schema: &jsonschema.Schema{
				Type:        string(param.Type),
				Description: param.Description,
			},
		})
	}

	return ai.ToolDescription{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  jsonschema.Object(properties...),
	}
}
