package llm

type Response struct {
	Text         string
	FinishReason string
	TokensUsed   int64
	InputTokens  int64
	OutputTokens int64
}

type Config struct {
	Model       string
	MaxTokens   int32
	Temperature float32
	System      string
}

func DefaultConfig() *Config {
	return &Config{
		Model:       "gemini-2.5-flash",
		MaxTokens:   8192,
		Temperature: 0.7,
		System:      "",
	}
}

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Message is one entry of a provider-neutral conversation history
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // set on assistant messages that call tools
	ToolCallID string     // set on tool result messages
	ToolName   string     // set on tool result messages
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Tool describes a function the model may call
type Tool struct {
	Name        string
	Description string
	Parameters  *ToolParameters
}

type ToolParameters struct {
	Type       string
	Properties map[string]*ToolProperty
	Required   []string
}

type ToolProperty struct {
	Type        string
	Description string
}
