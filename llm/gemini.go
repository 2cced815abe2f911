package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
	model  string
	now    func() time.Time
}

// NewGeminiClient creates a client for the Gemini API. An empty model uses
// the default from DefaultConfig.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultConfig().Model
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: model, now: time.Now}, nil
}

func (g *GeminiClient) config() *Config {
	config := DefaultConfig()
	config.Model = g.model
	return config
}

func (g *GeminiClient) Chat(ctx context.Context, prompt string) (*Response, error) {
	return g.ChatWithConfig(ctx, prompt, g.config())
}

func (g *GeminiClient) ChatWithConfig(ctx context.Context, prompt string, config *Config) (*Response, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	if config == nil {
		config = g.config()
	}

	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: config.MaxTokens,
		Temperature:     genai.Ptr(config.Temperature),
	}

	if config.System != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: config.System}},
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, config.Model, genai.Text(prompt), genConfig)
	if err != nil {
		return nil, err
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoResponse
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	resp := &Response{
		Text:         text.String(),
		FinishReason: string(result.Candidates[0].FinishReason),
	}
	addUsage(resp, result.UsageMetadata)
	return resp, nil
}

func (g *GeminiClient) ChatWithTools(ctx context.Context, message string, history []*Message, tools []*Tool, executor ToolExecutor) (*Response, []*Message, error) {
	if strings.TrimSpace(message) == "" {
		return nil, history, ErrEmptyPrompt
	}

	config := g.config()

	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: config.MaxTokens,
		Temperature:     genai.Ptr(config.Temperature),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: toolSystemPrompt(g.now())}},
		},
	}
	if decls := ConvertTools(tools); len(decls) > 0 {
		genConfig.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	messages := make([]*Message, len(history), len(history)+1)
	copy(messages, history)
	messages = append(messages, &Message{Role: RoleUser, Content: message})

	resp := &Response{}

	// Tool calling loop
	for {
		result, err := g.client.Models.GenerateContent(ctx, config.Model, ConvertMessages(messages), genConfig)
		if err != nil {
			return nil, history, err
		}
		addUsage(resp, result.UsageMetadata)

		if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
			return nil, history, ErrNoResponse
		}

		candidate := result.Candidates[0]

		var calls []ToolCall
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part.FunctionCall != nil {
				calls = append(calls, ToolCall{
					ID:        part.FunctionCall.ID,
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				})
			}
			text.WriteString(part.Text)
		}

		messages = append(messages, &Message{
			Role:      RoleAssistant,
			Content:   text.String(),
			ToolCalls: calls,
		})

		// No function calls means the model has answered
		if len(calls) == 0 {
			resp.Text = text.String()
			resp.FinishReason = string(candidate.FinishReason)
			return resp, messages, nil
		}

		for _, call := range calls {
			messages = append(messages, &Message{
				Role:       RoleTool,
				Content:    executor(call.Name, call.Arguments),
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}
}

func (g *GeminiClient) Close() error {
	// genai.Client holds no resources that need releasing
	return nil
}

func addUsage(resp *Response, usage *genai.GenerateContentResponseUsageMetadata) {
	if usage == nil {
		return
	}
	resp.InputTokens += int64(usage.PromptTokenCount)
	resp.OutputTokens += int64(usage.CandidatesTokenCount)
	resp.TokensUsed += int64(usage.TotalTokenCount)
}

// ConvertTools maps tool definitions onto Gemini function declarations
func ConvertTools(tools []*Tool) []*genai.FunctionDeclaration {
	var decls []*genai.FunctionDeclaration

	for _, t := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
		}

		if t.Parameters != nil {
			schema := &genai.Schema{
				Type:     schemaType(t.Parameters.Type),
				Required: t.Parameters.Required,
			}
			if len(t.Parameters.Properties) > 0 {
				schema.Properties = make(map[string]*genai.Schema, len(t.Parameters.Properties))
				for name, prop := range t.Parameters.Properties {
					schema.Properties[name] = &genai.Schema{
						Type:        schemaType(prop.Type),
						Description: prop.Description,
					}
				}
			}
			decl.Parameters = schema
		}

		decls = append(decls, decl)
	}

	return decls
}

func schemaType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}

// ConvertMessages maps a conversation history onto Gemini contents.
// Gemini has no system role inside contents, so system messages are sent
// as user text.
func ConvertMessages(messages []*Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: call.Arguments,
					},
				})
			}
			if len(parts) == 0 {
				continue
			}
			contents = append(contents, &genai.Content{Role: string(genai.RoleModel), Parts: parts})

		case RoleTool:
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolCallID,
					Name:     msg.ToolName,
					Response: map[string]any{"result": msg.Content},
				},
			}
			// Consecutive tool results go back in a single turn
			if n := len(contents); n > 0 && isFunctionResponseTurn(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: string(genai.RoleUser), Parts: []*genai.Part{part}})

		default:
			contents = append(contents, &genai.Content{
				Role:  string(genai.RoleUser),
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	return contents
}

func isFunctionResponseTurn(c *genai.Content) bool {
	return len(c.Parts) > 0 && c.Parts[0].FunctionResponse != nil
}

func toolSystemPrompt(now time.Time) string {
	today := now.Format("2006-01-02")
	weekday := now.Weekday().String()

	return fmt.Sprintf(`You are a helpful task management assistant for Taskboard.

TODAY'S DATE: %s (%s)

IMPORTANT RULES:
1. When a user refers to a task by its TITLE, FIRST call "search" or "list" to find the task's ID.
2. NEVER ask the user for an ID. Always look it up using available tools.
3. Task IDs are shown as short prefixes like "3f2a9c1e". Use them exactly as shown.
4. Status is one of todo, in-progress, completed. Priority is one of low, medium, high.
5. When setting due dates, use the current date above. "Today" means %s, "tomorrow" means the next day, etc.
6. "search" and "filter" change what "list" shows. Call "clear" when you are done looking something up.

EXAMPLES:
- "what's overdue?" -> call overdue
- "mark the documentation task done" -> call search with "documentation", then done with its ID
- "add a high priority task to call mom due today" -> call add with title, priority high, due %s`, today, weekday, today, today)
}
