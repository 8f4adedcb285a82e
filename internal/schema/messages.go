package schema

// UnknownToolName is substituted when a tool result cannot be matched to
// the call that produced it.
const UnknownToolName = "unknown"

// Messages is the ordered, append-only conversation transcript.
type Messages struct {
	Messages []Message
}

// NewMessages returns a Messages initialised with the given messages.
// Called with no arguments it returns an empty Messages ready for use.
func NewMessages(msgs ...Message) Messages {
	if len(msgs) == 0 {
		return Messages{Messages: make([]Message, 0)}
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return Messages{Messages: out}
}

// Add appends msg.
func (mh *Messages) Add(msg Message) {
	mh.Messages = append(mh.Messages, msg)
}

func (mh *Messages) AddSystem(text string)    { mh.Add(NewSystemMessage(text)) }
func (mh *Messages) AddUser(text string)      { mh.Add(NewUserMessage(text)) }
func (mh *Messages) AddAssistant(text string) { mh.Add(NewAssistantMessage(text)) }

// AddToolCalls appends an assistant message requesting calls.
func (mh *Messages) AddToolCalls(text string, calls []ToolCall) {
	mh.Add(NewToolCallMessage(text, calls))
}

// AddToolResults appends a single tool_result message carrying results.
func (mh *Messages) AddToolResults(results []ToolResult) { mh.Add(NewToolResultMessage(results)) }

// Len returns the number of messages.
func (mh *Messages) Len() int { return len(mh.Messages) }

// HasSystem reports whether the transcript starts with a system message.
func (mh *Messages) HasSystem() bool {
	return len(mh.Messages) > 0 && mh.Messages[0].Role == RoleSystem
}

// Reset drops everything except a leading system message.
func (mh *Messages) Reset() {
	if mh.HasSystem() {
		mh.Messages = mh.Messages[:1:1]
		return
	}
	mh.Messages = make([]Message, 0)
}

// ToolNameFor returns the name of the tool call with the given id, scanning
// backwards from the newest message. It returns UnknownToolName when no
// call matches.
func (mh *Messages) ToolNameFor(callID string) string {
	for i := len(mh.Messages) - 1; i >= 0; i-- {
		m := mh.Messages[i]
		if m.Role != RoleAssistant {
			continue
		}
		for _, tc := range m.ToolCalls {
			if tc.ID == callID {
				return tc.Name
			}
		}
	}
	return UnknownToolName
}

// LastAssistantText returns the text of the newest assistant message, which
// may be empty for a turn that only called tools. It returns "" when there
// is no assistant message.
func (mh *Messages) LastAssistantText() string {
	for i := len(mh.Messages) - 1; i >= 0; i-- {
		if m := mh.Messages[i]; m.Role == RoleAssistant {
			return m.Text
		}
	}
	return ""
}

// Clone returns a copy of mh with an independent backing slice. Message
// values are shared.
func (mh *Messages) Clone() Messages {
	cloned := make([]Message, len(mh.Messages))
	copy(cloned, mh.Messages)
	return Messages{Messages: cloned}
}
