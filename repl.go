package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chzyer/readline"

	"taskboard/commands"
)

// runREPL reads slash commands until /quit or EOF. Lines without a
// leading slash go to the assistant.
func (a *app) runREPL() error {
	if hist := a.cfg.REPL.HistoryFile; hist != "" {
		if err := os.MkdirAll(filepath.Dir(hist), 0o755); err != nil {
			a.logger.Warn("history disabled", "error", err)
			a.cfg.REPL.HistoryFile = ""
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          a.cfg.REPL.Prompt,
		HistoryFile:     a.cfg.REPL.HistoryFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	})
	if err != nil {
		return fmt.Errorf("start prompt: %w", err)
	}
	defer rl.Close()

	commands.SetOutput(rl.Stdout())
	defer commands.SetOutput(os.Stdout)
	commands.SetConfirmFunc(confirmWith(rl, a.cfg.REPL.Prompt))

	fmt.Fprintln(rl.Stdout(), "Welcome to Taskboard! Type /help for available commands.")
	if a.client == nil {
		fmt.Fprintln(rl.Stdout(), "(Set GEMINI_API_KEY to talk to the assistant in plain language.)")
	}
	commands.Execute("/list")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				break
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if !strings.HasPrefix(input, "/") {
			commands.Chat(input)
			continue
		}

		if strings.HasPrefix(strings.ToLower(input), "/chat ") {
			commands.Chat(strings.TrimSpace(input[len("/chat "):]))
			continue
		}

		quit, output, err := commands.ExecuteWithOutput(input)
		if err != nil {
			fmt.Fprintf(rl.Stdout(), "%v. Type /help for available commands.\n", err)
			continue
		}
		if output != "" {
			fmt.Fprintln(rl.Stdout(), output)
		}
		if a.client != nil {
			commands.AddCommandContext(input, output)
		}
		if quit {
			break
		}
	}

	return nil
}

// completer offers every registered command name
func completer() *readline.PrefixCompleter {
	names := commands.Names()
	slices.Sort(names)

	items := make([]readline.PrefixCompleterInterface, 0, len(names))
	for _, name := range names {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

// confirmWith asks yes/no questions on the prompt line
func confirmWith(rl *readline.Instance, prompt string) commands.ConfirmFunc {
	return func(question string) bool {
		rl.SetPrompt(question + " [y/N] ")
		defer rl.SetPrompt(prompt)

		answer, err := rl.Readline()
		if err != nil {
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}
}
