package jsonschema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Schema represents a JSON Schema node used to describe tool arguments.
type Schema struct {
	// Type specifies the data type ("object", "integer", "number", "string", "boolean").
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of an object schema, each with its own schema.
	Properties map[string]*Schema `json:"properties,omitempty"`
	// Items describes array elements.
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties controls whether undeclared properties are allowed.
	AdditionalProperties any   `json:"additionalProperties,omitempty"`
	Enum                 []any `json:"enum,omitempty"`

	// order keeps the declaration order of Properties for marshaling.
	order []string
}

// Property is one named member of an object schema.
type Property struct {
	Name     string
	Schema   *Schema
	Optional bool
}

// Object builds an object schema from properties in declaration order. Every
// property is required unless marked Optional, and undeclared properties are
// rejected.
func Object(properties ...Property) *Schema {
	schema := &Schema{
		Type:                 "object",
		Properties:           make(map[string]*Schema, len(properties)),
		Required:             make([]string, 0, len(properties)),
		AdditionalProperties: false,
	}
	for _, property := range properties {
		if _, exists := schema.Properties[property.Name]; !exists {
			schema.order = append(schema.order, property.Name)
		}
		schema.Properties[property.Name] = property.Schema
		if !property.Optional {
			schema.Required = append(schema.Required, property.Name)
		}
	}
	return schema
}

// PropertyNames returns the property names in declaration order. Schemas not
// built with Object return nil.
func (s *Schema) PropertyNames() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// MarshalJSON encodes the schema with object properties in declaration order,
// which keeps the advertised parameter order stable for the model.
func (s *Schema) MarshalJSON() ([]byte, error) {
	type plain Schema
	if len(s.order) == 0 || len(s.Properties) == 0 {
		return json.Marshal((*plain)(s))
	}

	withoutProperties := *s
	withoutProperties.Properties = nil
	base, err := json.Marshal((*plain)(&withoutProperties))
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	buffer.WriteString(`{"properties":{`)
	for i, name := range s.order {
		if i > 0 {
			buffer.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(s.Properties[name])
		if err != nil {
			return nil, err
		}
		buffer.Write(key)
		buffer.WriteByte(':')
		buffer.Write(value)
	}
	buffer.WriteByte('}')
	if len(base) > 2 {
		buffer.WriteByte(',')
		buffer.Write(base[1 : len(base)-1])
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// JsonString converts the Schema to JSON. If indent is true the output is
// pretty-printed.
func (s *Schema) JsonString(indent ...bool) (string, error) {
	var (
		jsonBytes []byte
		err       error
	)
	if len(indent) > 0 && indent[0] {
		jsonBytes, err = json.MarshalIndent(s, "", "  ")
	} else {
		jsonBytes, err = json.Marshal(s)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema to JSON: %w", err)
	}
	return string(jsonBytes), nil
}

// String returns the compact JSON representation of the schema.
func (s *Schema) String() string {
	jsonStr, err := s.JsonString()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return jsonStr
}
