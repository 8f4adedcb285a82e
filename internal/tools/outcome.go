package tools

import (
	"encoding/json"
	"fmt"
)

// Outcome is the normalized result of one tool call. At most one of
// Success, Error and NeedsConfirmation is active.
type Outcome struct {
	Success            bool
	Payload            any
	Error              string
	Changes            []string
	NeedsConfirmation  bool
	ConfirmationPrompt string
}

func successOutcome(r Result) Outcome {
	changes := r.Changes
	if changes == nil {
		changes = []string{}
	}
	return Outcome{Success: true, Payload: r.Payload, Changes: changes}
}

func errorOutcome(msg string) Outcome {
	return Outcome{Error: msg}
}

func confirmationOutcome(prompt string) Outcome {
	return Outcome{NeedsConfirmation: true, ConfirmationPrompt: prompt}
}

// IsError reports whether the outcome should be flagged as an error when fed
// back to a backend. Pending confirmations count: no definitive result exists.
func (o Outcome) IsError() bool { return !o.Success }

// Mutated reports a successful call that changed something.
func (o Outcome) Mutated() bool { return o.Success && len(o.Changes) > 0 }

type successWire struct {
	Success bool     `json:"success"`
	Result  any      `json:"result"`
	Changes []string `json:"changes"`
}

type failureWire struct {
	Success            bool   `json:"success"`
	Error              string `json:"error,omitempty"`
	NeedsConfirmation  bool   `json:"needs_confirmation,omitempty"`
	ConfirmationPrompt string `json:"confirmation_prompt,omitempty"`
}

// JSON serializes the outcome as the content of a tool result.
func (o Outcome) JSON() string {
	if o.Success {
		changes := o.Changes
		if changes == nil {
			changes = []string{}
		}
		raw, err := json.Marshal(successWire{Success: true, Result: o.Payload, Changes: changes})
		if err != nil {
			raw, _ = json.Marshal(successWire{Success: true, Result: fmt.Sprint(o.Payload), Changes: changes})
		}
		return string(raw)
	}
	raw, _ := json.Marshal(failureWire{
		Error:              o.Error,
		NeedsConfirmation:  o.NeedsConfirmation,
		ConfirmationPrompt: o.ConfirmationPrompt,
	})
	return string(raw)
}
