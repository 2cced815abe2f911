package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"taskboard/llm"
	"taskboard/taskstore"
)

// ParamType defines the type of a command parameter
type ParamType string

const (
	ParamTypeString ParamType = "string"
)

// Param defines a parameter for a command
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Flag        bool // passed as --name value rather than positionally
}

// Command represents a REPL command
type Command struct {
	Name        string
	Description string
	Usage       string
	Handler     func(args []string) bool // returns true to quit
	Params      []Param                  // parameter definitions for tool generation
	Hidden      bool                     // if true, exclude from tool generation
	Destructive bool                     // if true, requires confirmation when called via tool
}

var (
	registry  = make(map[string]*Command)
	store     *taskstore.Store
	persister taskstore.Persister
	llmClient llm.Client

	outMu sync.Mutex
	out   io.Writer = os.Stdout
)

// Register adds a command to the registry
func Register(cmd *Command) {
	registry[strings.ToLower(cmd.Name)] = cmd
}

// SetStore sets the global store for commands to use. p is used by /save
// and may be nil.
func SetStore(s *taskstore.Store, p taskstore.Persister) {
	store = s
	persister = p
	resetView()
}

// GetStore returns the global store
func GetStore() *taskstore.Store {
	return store
}

// SetLLMClient sets the global LLM client for commands to use
func SetLLMClient(c llm.Client) {
	llmClient = c
}

// GetLLMClient returns the global LLM client
func GetLLMClient() llm.Client {
	return llmClient
}

// SetOutput redirects command output, e.g. to the readline stdout
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	out = w
}

func output() io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	return out
}

func printf(format string, a ...any) {
	fmt.Fprintf(output(), format, a...)
}

func printLine(a ...any) {
	fmt.Fprintln(output(), a...)
}

// Execute runs a command by name with arguments
func Execute(input string) (bool, error) {
	parts, err := SplitArgs(input)
	if err != nil {
		return false, err
	}
	if len(parts) == 0 {
		return false, fmt.Errorf("empty command")
	}

	cmdName := strings.ToLower(parts[0])
	args := parts[1:]

	cmd, exists := registry[cmdName]
	if !exists {
		return false, fmt.Errorf("unknown command: %s", cmdName)
	}
	if store == nil {
		return false, fmt.Errorf("no task store configured")
	}

	return cmd.Handler(args), nil
}

// ExecuteWithOutput runs a command and returns its captured output
func ExecuteWithOutput(input string) (quit bool, captured string, err error) {
	var buf bytes.Buffer

	outMu.Lock()
	prev := out
	out = &buf
	outMu.Unlock()

	defer func() {
		outMu.Lock()
		out = prev
		outMu.Unlock()
	}()

	quit, err = Execute(input)
	return quit, strings.TrimSpace(buf.String()), err
}

// List returns all registered commands
func List() []*Command {
	cmds := make([]*Command, 0, len(registry))
	for _, cmd := range registry {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// Names returns all registered command names, for completion
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// GetByName returns a command by name (with or without leading /)
func GetByName(name string) *Command {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return registry[strings.ToLower(name)]
}

// GenerateToolDefinitions creates Tool definitions from registered commands
func GenerateToolDefinitions() []*llm.Tool {
	var tools []*llm.Tool

	for _, cmd := range registry {
		if cmd.Hidden {
			continue
		}

		// Build properties and required arrays from Params
		properties := make(map[string]*llm.ToolProperty)
		var required []string

		for _, p := range cmd.Params {
			properties[p.Name] = &llm.ToolProperty{
				Type:        string(p.Type),
				Description: p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}

		tool := &llm.Tool{
			Name:        strings.TrimPrefix(cmd.Name, "/"),
			Description: cmd.Description,
		}

		// Only add Parameters if there are any
		if len(properties) > 0 {
			tool.Parameters = &llm.ToolParameters{
				Type:       "object",
				Properties: properties,
				Required:   required,
			}
		}

		tools = append(tools, tool)
	}

	return tools
}

// BuildCommandLine turns tool-call arguments back into a command line.
// Commands with flag params get their flags first, then "--", then the
// positional params, so a value starting with "-" stays positional.
func BuildCommandLine(name string, args map[string]any) (string, error) {
	cmd := GetByName(name)
	if cmd == nil {
		return "", fmt.Errorf("unknown command: %s", name)
	}

	var positional, flags []string
	hasFlags := false
	for _, p := range cmd.Params {
		if p.Flag {
			hasFlags = true
		}
		val, ok := args[p.Name]
		if !ok || val == nil {
			if p.Required {
				return "", fmt.Errorf("missing required argument %q for %s", p.Name, cmd.Name)
			}
			continue
		}
		s := fmt.Sprintf("%v", val)
		if p.Flag {
			flags = append(flags, "--"+p.Name, quoteArg(s))
		} else {
			positional = append(positional, quoteArg(s))
		}
	}

	parts := []string{cmd.Name}
	if hasFlags {
		parts = append(parts, flags...)
		parts = append(parts, "--")
	}
	parts = append(parts, positional...)
	return strings.Join(parts, " "), nil
}
