package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/tomekeeper/internal/agent"
	"github.com/crystaldolphin/tomekeeper/internal/dependency"
	"github.com/crystaldolphin/tomekeeper/internal/shared/cmdutils"
)

var (
	chatMessage      string
	chatCharacter    string
	chatModel        string
	chatMode         string
	chatRequireTools bool
	chatYes          bool
	chatResume       bool
)

var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"agent"},
	Short:   "Talk to the character keeper",
	RunE:    runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send a single message and exit")
	chatCmd.Flags().StringVarP(&chatCharacter, "character", "c", "", "Character to load")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "Model override, optionally prefixed with the provider (gemini/gemini-2.5-pro)")
	chatCmd.Flags().StringVar(&chatMode, "mode", "", "Persona: assistant, dm, roleplay or rules")
	chatCmd.Flags().BoolVar(&chatRequireTools, "require-tools", false, "Force a tool call on the first iteration of every message")
	chatCmd.Flags().BoolVarP(&chatYes, "yes", "y", false, "Auto-confirm destructive tools")
	chatCmd.Flags().BoolVar(&chatResume, "resume", false, "Continue the archived conversation for this character")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

func runChat(_ *cobra.Command, _ []string) error {
	container, err := newContainer()
	if err != nil {
		return err
	}
	defer func() { _ = container.Logger().Sync() }()

	scanner := bufio.NewScanner(os.Stdin)

	sess, err := container.NewSession(dependency.SessionParams{
		Character:   chatCharacter,
		Model:       chatModel,
		Mode:        chatMode,
		AutoConfirm: chatYes,
		Confirm:     stdinConfirm(scanner),
		Resume:      chatResume,
		Progress:    cmdutils.PrintProgress,
	})
	if err != nil {
		return err
	}

	if chatMessage != "" {
		return runSingleMessage(sess)
	}
	return runInteractive(sess, scanner)
}

// stdinConfirm asks y/N on the terminal. EOF counts as no.
func stdinConfirm(scanner *bufio.Scanner) func(string) bool {
	return func(prompt string) bool {
		fmt.Printf("\n⚠ %s\nProceed? [y/N]: ", prompt)
		if !scanner.Scan() {
			return false
		}
		return cmdutils.IsYes(scanner.Text())
	}
}

func sendOptions() []agent.SendOption {
	if chatRequireTools {
		return []agent.SendOption{agent.RequireTools()}
	}
	return nil
}

// runSingleMessage sends one message to the agent and prints the response.
func runSingleMessage(sess *agent.Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fmt.Fprintf(os.Stderr, "  ↳ thinking...\n")
	reply, err := sess.Send(ctx, chatMessage, sendOptions()...)
	if err != nil {
		return err
	}
	printReply(reply)
	return nil
}

// runInteractive starts the REPL loop: reads lines from stdin, sends each
// to the session and prints the reply before prompting again.
func runInteractive(sess *agent.Session, scanner *bufio.Scanner) error {
	fmt.Printf("%s Interactive mode (type 'exit' or Ctrl+C to quit)\n", cmdutils.Logo)
	if c := sess.Subject(); c != nil {
		fmt.Printf("Character: %s\n", c.Summary())
	}
	fmt.Println("Commands: /clear resets the conversation, /refresh reloads the character")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listenForSignals(cancel)

	for {
		fmt.Print("You: ")

		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if exitCommands[strings.ToLower(line)] {
			fmt.Println("Goodbye!")
			return nil
		}

		switch strings.ToLower(line) {
		case "/clear":
			sess.ClearHistory()
			fmt.Println("Conversation cleared.")
			continue
		case "/refresh":
			if err := sess.RefreshSubject(); err != nil {
				fmt.Printf("Refresh failed: %v\n", err)
			} else {
				fmt.Println("Character reloaded.")
			}
			continue
		}

		reply, err := sess.Send(ctx, line, sendOptions()...)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Printf("Error: %v\n\n", err)
			continue
		}
		printReply(reply)
	}
}

func printReply(reply agent.Reply) {
	text := reply.Text
	if reply.Incomplete {
		text += "\n\n(stopped after reaching the tool iteration limit)"
	}
	cmdutils.PrintResponse(strings.TrimSpace(text))
	cmdutils.PrintChanges(reply.Changes)
}

// listenForSignals cancels ctx on SIGINT or SIGTERM and exits.
func listenForSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		fmt.Printf("\nReceived %s, shutting down...\n", sig)
		fmt.Println("Goodbye!")

		cancel()
		os.Exit(0)
	}()
}
