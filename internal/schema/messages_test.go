package schema

import "testing"

func TestMessages_ToolNameFor(t *testing.T) {
	msgs := NewMessages()
	msgs.AddSystem("sys")
	msgs.AddUser("hi")
	msgs.AddToolCalls("", []ToolCall{{ID: "a", Name: "heal_character"}, {ID: "b", Name: "get_inventory"}})
	msgs.AddToolResults([]ToolResult{{CallID: "a"}, {CallID: "b"}})

	if got := msgs.ToolNameFor("b"); got != "get_inventory" {
		t.Errorf("ToolNameFor(b) = %q", got)
	}
	if got := msgs.ToolNameFor("missing"); got != UnknownToolName {
		t.Errorf("ToolNameFor(missing) = %q, want %q", got, UnknownToolName)
	}
}

func TestMessages_ResetKeepsSystem(t *testing.T) {
	msgs := NewMessages()
	msgs.AddSystem("sys")
	msgs.AddUser("hi")
	msgs.AddAssistant("hello")

	msgs.Reset()
	if msgs.Len() != 1 || !msgs.HasSystem() {
		t.Fatalf("after Reset: len=%d system=%v", msgs.Len(), msgs.HasSystem())
	}

	plain := NewMessages()
	plain.AddUser("hi")
	plain.Reset()
	if plain.Len() != 0 {
		t.Errorf("len = %d, want 0", plain.Len())
	}
}

func TestMessages_CloneIsIndependent(t *testing.T) {
	msgs := NewMessages()
	msgs.AddUser("one")
	c := msgs.Clone()
	c.AddUser("two")
	if msgs.Len() != 1 {
		t.Errorf("original len = %d, want 1", msgs.Len())
	}
}

func TestMessages_LastAssistantText(t *testing.T) {
	msgs := NewMessages()
	if got := msgs.LastAssistantText(); got != "" {
		t.Errorf("empty transcript: got %q", got)
	}

	msgs.AddToolCalls("First", []ToolCall{{ID: "a", Name: "x"}})
	msgs.AddToolResults([]ToolResult{{CallID: "a"}})
	if got := msgs.LastAssistantText(); got != "First" {
		t.Errorf("got %q, want First", got)
	}

	// A newer tool-only turn wins even though its text is empty.
	msgs.AddToolCalls("", []ToolCall{{ID: "b", Name: "x"}})
	msgs.AddToolResults([]ToolResult{{CallID: "b"}})
	if got := msgs.LastAssistantText(); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestNewToolCallMessage_Timestamped(t *testing.T) {
	m := NewToolCallMessage("checking", []ToolCall{{ID: "a", Name: "x"}})
	if m.Timestamp.IsZero() {
		t.Error("tool-call message has no timestamp")
	}
	if m.Role != RoleAssistant || m.Text != "checking" || !m.HasToolCalls() {
		t.Errorf("unexpected message %+v", m)
	}
}
