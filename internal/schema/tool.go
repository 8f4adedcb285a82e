package schema

import (
	"errors"
	"fmt"
)

// Category groups tools by the part of the subject record they touch.
type Category string

const (
	CategoryQuery     Category = "query"
	CategoryCombat    Category = "mutate-combat"
	CategoryIdentity  Category = "mutate-identity"
	CategoryInventory Category = "mutate-inventory"
	CategorySpells    Category = "mutate-spells"
	CategoryCustom    Category = "mutate-custom"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryQuery,
	CategoryCombat,
	CategoryIdentity,
	CategoryInventory,
	CategorySpells,
	CategoryCustom,
}

// RiskLevel classifies how much confirmation a tool needs before it runs.
type RiskLevel string

const (
	RiskSafe        RiskLevel = "safe"
	RiskModerate    RiskLevel = "moderate"
	RiskDestructive RiskLevel = "destructive"
)

// JSON-Schema primitive type names.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

// Property describes one named parameter in a tool's input schema.
type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Enum        []any               `json:"enum,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Pattern     string              `json:"pattern,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

func StringProp(desc string) Property  { return Property{Type: TypeString, Description: desc} }
func IntegerProp(desc string) Property { return Property{Type: TypeInteger, Description: desc} }
func NumberProp(desc string) Property  { return Property{Type: TypeNumber, Description: desc} }
func BoolProp(desc string) Property    { return Property{Type: TypeBoolean, Description: desc} }

// ArrayProp declares an array whose elements match items.
func ArrayProp(desc string, items Property) Property {
	return Property{Type: TypeArray, Description: desc, Items: &items}
}

// Min returns a copy of p with an inclusive lower bound.
func (p Property) Min(v float64) Property { p.Minimum = &v; return p }

// Max returns a copy of p with an inclusive upper bound.
func (p Property) Max(v float64) Property { p.Maximum = &v; return p }

// Match returns a copy of p constrained to the regular expression pattern.
func (p Property) Match(pattern string) Property { p.Pattern = pattern; return p }

// OneOf returns a copy of p restricted to the given string values.
func (p Property) OneOf(values ...string) Property {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	p.Enum = enum
	return p
}

// Map renders p as a plain JSON-compatible map.
func (p Property) Map() map[string]any {
	m := map[string]any{"type": p.Type}
	if p.Description != "" {
		m["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		m["enum"] = append([]any(nil), p.Enum...)
	}
	if p.Minimum != nil {
		m["minimum"] = *p.Minimum
	}
	if p.Maximum != nil {
		m["maximum"] = *p.Maximum
	}
	if p.Pattern != "" {
		m["pattern"] = p.Pattern
	}
	if p.Items != nil {
		m["items"] = p.Items.Map()
	}
	if p.Type == TypeObject {
		m["properties"] = propertiesMap(p.Properties)
		if len(p.Required) > 0 {
			m["required"] = stringsToAny(p.Required)
		}
	}
	return m
}

// InputSchema is the object schema a tool's input must satisfy.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Object builds an object InputSchema.
func Object(props map[string]Property, required ...string) InputSchema {
	if props == nil {
		props = map[string]Property{}
	}
	return InputSchema{Type: TypeObject, Properties: props, Required: required}
}

// Map renders the schema as a JSON-compatible map. properties and required
// are always present, even when empty.
func (s InputSchema) Map() map[string]any {
	typ := s.Type
	if typ == "" {
		typ = TypeObject
	}
	return map[string]any{
		"type":       typ,
		"properties": propertiesMap(s.Properties),
		"required":   stringsToAny(s.Required),
	}
}

// ToolDefinition declares one callable operation.
type ToolDefinition struct {
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	InputSchema     InputSchema `json:"input_schema"`
	Category        Category    `json:"category"`
	RiskLevel       RiskLevel   `json:"risk_level"`
	RequiresSubject bool        `json:"requires_subject"`
}

// Check verifies the structural invariants of a definition: a name, an
// object schema, and required names that all appear in properties.
func (d ToolDefinition) Check() error {
	if d.Name == "" {
		return errors.New("tool definition has no name")
	}
	if d.InputSchema.Type != "" && d.InputSchema.Type != TypeObject {
		return fmt.Errorf("tool %s: input schema must be an object, got %q", d.Name, d.InputSchema.Type)
	}
	for _, name := range d.InputSchema.Required {
		if _, ok := d.InputSchema.Properties[name]; !ok {
			return fmt.Errorf("tool %s: required field %q is not a declared property", d.Name, name)
		}
	}
	return nil
}

func propertiesMap(props map[string]Property) map[string]any {
	out := make(map[string]any, len(props))
	for name, p := range props {
		out[name] = p.Map()
	}
	return out
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
