package providers

import (
	"fmt"
	"strings"

	"github.com/crystaldolphin/tomekeeper/internal/schema"
)

// Declarations renders defs in the tool declaration format of kind.
func Declarations(kind schema.BackendKind, defs []schema.ToolDefinition) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(defs))
	switch kind {
	case schema.BackendAnthropic:
		for _, d := range defs {
			out = append(out, anthropicTool(d))
		}
	case schema.BackendGemini:
		for _, d := range defs {
			out = append(out, geminiDeclaration(d))
		}
	default:
		return nil, fmt.Errorf("unknown backend kind: %q", kind)
	}
	return out, nil
}

// anthropicTool keeps JSON-Schema type names as they are.
func anthropicTool(d schema.ToolDefinition) map[string]any {
	return map[string]any{
		"name":         d.Name,
		"description":  d.Description,
		"input_schema": d.InputSchema.Map(),
	}
}

// geminiDeclaration uses the enumerated upper-case type codes.
func geminiDeclaration(d schema.ToolDefinition) map[string]any {
	return map[string]any{
		"name":        d.Name,
		"description": d.Description,
		"parameters":  geminiSchema(d.InputSchema.Map()),
	}
}

// geminiSchema copies a JSON-Schema map, upper-casing every "type" through
// nested properties and items.
func geminiSchema(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch k {
		case "type":
			if s, ok := v.(string); ok {
				out[k] = strings.ToUpper(s)
				continue
			}
			out[k] = v
		case "properties":
			props, _ := v.(map[string]any)
			conv := make(map[string]any, len(props))
			for name, p := range props {
				if pm, ok := p.(map[string]any); ok {
					conv[name] = geminiSchema(pm)
				} else {
					conv[name] = p
				}
			}
			out[k] = conv
		case "items":
			if im, ok := v.(map[string]any); ok {
				out[k] = geminiSchema(im)
			} else {
				out[k] = v
			}
		default:
			out[k] = v
		}
	}
	return out
}
