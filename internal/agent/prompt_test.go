package agent

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/crystaldolphin/tomekeeper/internal/tools"
)

func builtinRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	r := tools.NewRegistry(zap.NewNop())
	if err := tools.RegisterBuiltins(r, nil); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	return r
}

func TestPromptBuilder_ListsToolsByCategory(t *testing.T) {
	p := NewPromptBuilder(builtinRegistry(t), ModeAssistant).Build(newCharacter())

	for _, want := range []string{"QUERY:", "MUTATE-COMBAT:", "- heal_character:", "- level_up:", "--- Current Character ---", "Brenna"} {
		if !strings.Contains(p, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
	if !strings.Contains(p, "STR ") || !strings.Contains(p, "Hit dice:") {
		t.Error("expected ability and hit dice lines in character context")
	}
}

func TestPromptBuilder_Modes(t *testing.T) {
	r := builtinRegistry(t)
	dm := NewPromptBuilder(r, ModeDM).Build(nil)
	if !strings.Contains(dm, "Dungeon Master") {
		t.Error("expected dm persona")
	}
	if !strings.Contains(dm, "No character is loaded") {
		t.Error("expected no-character notice")
	}

	fallback := NewPromptBuilder(r, Mode("bogus")).Build(nil)
	if !strings.HasPrefix(fallback, personas[ModeAssistant]) {
		t.Error("unknown mode should fall back to assistant")
	}
}
