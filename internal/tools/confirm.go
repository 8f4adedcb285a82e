package tools

import (
	"encoding/json"
	"fmt"
)

// ConfirmFunc asks a person to approve a destructive call. It blocks until
// they answer.
type ConfirmFunc func(prompt string) bool

var promptTemplates = map[string]func(in map[string]any) string{
	ToolLevelUp: func(in map[string]any) string {
		return fmt.Sprintf("Level up character in %s?", stringOr(in, "class_name", "primary class"))
	},
	ToolRemoveFeature: func(in map[string]any) string {
		return fmt.Sprintf("Remove feature '%s'?", stringOr(in, "name", "unknown"))
	},
	ToolRemoveSpell: func(in map[string]any) string {
		return fmt.Sprintf("Remove spell '%s'?", stringOr(in, "spell_name", "unknown"))
	},
	ToolRemoveItem: func(in map[string]any) string {
		return fmt.Sprintf("Remove item '%s'?", stringOr(in, "name", "unknown"))
	},
}

// ConfirmationPrompt builds the question shown before running name.
func ConfirmationPrompt(name string, input map[string]any) string {
	if tmpl, ok := promptTemplates[name]; ok {
		return tmpl(input)
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return fmt.Sprintf("Execute %s with %v?", name, input)
	}
	return fmt.Sprintf("Execute %s with %s?", name, raw)
}

func stringOr(in map[string]any, key, fallback string) string {
	if s, ok := in[key].(string); ok && s != "" {
		return s
	}
	return fallback
}
