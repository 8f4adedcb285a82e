package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/crystaldolphin/tomekeeper/internal/character"
)

// Result is what a handler reports back: a JSON-compatible payload and the
// human-readable changes it made. Read-only handlers leave Changes empty.
type Result struct {
	Payload any
	Changes []string
}

// Handler runs one tool against the bound character with input that has
// already passed schema validation. The character is nil only for tools that
// do not require one.
type Handler func(ctx context.Context, c *character.Character, input map[string]any) (Result, error)

// Typed adapts a handler written against a request struct. The validated
// input map is decoded into T through its JSON tags.
func Typed[T any](fn func(ctx context.Context, c *character.Character, in T) (Result, error)) Handler {
	return func(ctx context.Context, c *character.Character, input map[string]any) (Result, error) {
		var in T
		if err := decodeInput(input, &in); err != nil {
			return Result{}, err
		}
		return fn(ctx, c, in)
	}
}

func decodeInput(input map[string]any, dst any) error {
	if input == nil {
		input = map[string]any{}
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("encode input: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	return nil
}

// Roller rolls a single die with the given number of sides.
type Roller interface {
	Roll(sides int) int
}

// RandRoller rolls with math/rand/v2.
type RandRoller struct{}

func (RandRoller) Roll(sides int) int {
	if sides < 1 {
		return 0
	}
	return rand.IntN(sides) + 1
}
