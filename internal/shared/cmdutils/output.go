package cmdutils

import (
	"fmt"
	"strings"
)

const Logo = "🎲"

// PrintResponse prints an assistant reply under the app banner.
func PrintResponse(text string) {
	if text == "" {
		return
	}

	fmt.Printf("\n%s tomekeeper\n%s\n\n", Logo, text)
}

// PrintProgress prints a one-line tool hint below the prompt.
func PrintProgress(hint string) {
	fmt.Printf("  ↳ %s\n", hint)
}

// PrintChanges lists the changes a reply made to the character.
func PrintChanges(changes []string) {
	if len(changes) == 0 {
		return
	}
	fmt.Println("Changes:")
	for _, c := range changes {
		fmt.Printf("  • %s\n", c)
	}
	fmt.Println()
}

// Mark renders a boolean as a check or a cross.
func Mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

// IsYes reports whether a confirmation answer means yes.
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
