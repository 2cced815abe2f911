package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"taskboard/llm"
)

// chatTimeout bounds one /chat exchange including every tool round trip
const chatTimeout = 2 * time.Minute

// maxCommandContextEntries limits how many command context entries to keep
const maxCommandContextEntries = 10

// chat holds the conversation history for the /chat command and the
// session usage totals
var chat struct {
	mu      sync.Mutex
	history []*llm.Message

	inputTokens  int64
	outputTokens int64
	prompts      int
}

// ConfirmFunc asks the user a yes/no question
type ConfirmFunc func(prompt string) bool

var confirm ConfirmFunc

// SetConfirmFunc sets how destructive tool calls are confirmed. Without
// one they are refused.
func SetConfirmFunc(fn ConfirmFunc) {
	confirm = fn
}

// AddCommandContext adds a direct command and its output to the chat history
// so the LLM has context about recent user actions.
func AddCommandContext(command string, output string) {
	chat.mu.Lock()
	defer chat.mu.Unlock()

	chat.history = append(chat.history, &llm.Message{
		Role:    llm.RoleSystem,
		Content: fmt.Sprintf("User ran: %s\nOutput: %s", command, output),
	})
	trimCommandContext()
}

// trimCommandContext drops the oldest command context entries beyond
// maxCommandContextEntries. chat.mu must be held.
func trimCommandContext() {
	isContext := func(msg *llm.Message) bool {
		return msg.Role == llm.RoleSystem && strings.HasPrefix(msg.Content, "User ran:")
	}

	var contextCount int
	for _, msg := range chat.history {
		if isContext(msg) {
			contextCount++
		}
	}
	if contextCount <= maxCommandContextEntries {
		return
	}

	toRemove := contextCount - maxCommandContextEntries
	var newHistory []*llm.Message
	for _, msg := range chat.history {
		if toRemove > 0 && isContext(msg) {
			toRemove--
			continue
		}
		newHistory = append(newHistory, msg)
	}
	chat.history = newHistory
}

func init() {
	Register(&Command{
		Name:        "/clearchat",
		Description: "Clear the chat conversation history",
		Hidden:      true,
		Handler: func(args []string) bool {
			chat.mu.Lock()
			chat.history = nil
			chat.mu.Unlock()
			printLine("Chat history cleared.")
			return false
		},
	})

	Register(&Command{
		Name:        "/usage",
		Description: "Show session token usage",
		Hidden:      true,
		Handler: func(args []string) bool {
			chat.mu.Lock()
			defer chat.mu.Unlock()

			if chat.prompts == 0 {
				printLine("No chat usage in this session yet.")
				return false
			}

			printLine("Session Usage Statistics:")
			printf("  Prompts:       %d\n", chat.prompts)
			printf("  Input tokens:  %d\n", chat.inputTokens)
			printf("  Output tokens: %d\n", chat.outputTokens)
			printf("  Total tokens:  %d\n", chat.inputTokens+chat.outputTokens)
			return false
		},
	})

	Register(&Command{
		Name:        "/chat",
		Description: "Chat with the AI assistant",
		Usage:       "/chat <message>",
		Hidden:      true, // Exclude from tool generation
		Params: []Param{
			{Name: "message", Type: ParamTypeString, Description: "The message to send to the assistant", Required: true},
		},
		Handler: func(args []string) bool {
			if len(args) == 0 {
				printLine("Usage: /chat <message>")
				return false
			}

			Chat(strings.Join(args, " "))
			return false
		},
	})
}

// Chat sends message to the assistant, letting it run commands as tools,
// and prints the reply
func Chat(message string) {
	client := GetLLMClient()
	if client == nil {
		printLine("Error: LLM client not available. Set GEMINI_API_KEY environment variable.")
		return
	}

	tools := GenerateToolDefinitions()

	chat.mu.Lock()
	history := chat.history
	chat.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), chatTimeout)
	defer cancel()

	response, newHistory, err := client.ChatWithTools(ctx, message, history, tools, executeTool)
	if err != nil {
		printf("Error: %v\n", err)
		return
	}

	chat.mu.Lock()
	chat.history = newHistory
	chat.mu.Unlock()

	printLine(response.Text)
	printUsageStats(response)
}

// executeTool runs a tool call as a command and returns what it printed
func executeTool(name string, fnArgs map[string]any) string {
	cmdStr, err := BuildCommandLine(name, fnArgs)
	if err != nil {
		return "Error: " + err.Error()
	}
	if IsDebugMode() {
		printf("[tool] %s\n", cmdStr)
	}

	if cmd := GetByName(name); cmd != nil && cmd.Destructive {
		if confirm == nil || !confirm(fmt.Sprintf("Assistant wants to run %q. Allow?", cmdStr)) {
			return "Cancelled: the user did not allow " + cmdStr
		}
	}

	_, captured, err := ExecuteWithOutput(cmdStr)
	if err != nil {
		return "Error: " + err.Error()
	}
	if IsDebugMode() {
		printf("[tool output]\n%s\n", captured)
	}
	return captured
}

// printUsageStats displays token usage and updates session totals
func printUsageStats(response *llm.Response) {
	chat.mu.Lock()
	chat.inputTokens += response.InputTokens
	chat.outputTokens += response.OutputTokens
	chat.prompts++
	chat.mu.Unlock()

	// Only display if we have token data
	if response.TokensUsed == 0 && response.InputTokens == 0 && response.OutputTokens == 0 {
		return
	}

	printf("\n[Tokens: %d in / %d out]\n", response.InputTokens, response.OutputTokens)
}
