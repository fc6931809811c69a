package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// errStopped ends a streaming chat when the consumer stops iterating
var errStopped = errors.New("iteration stopped")

// OllamaModel implements the ADK model.LLM interface using a local Ollama server
type OllamaModel struct {
	client    *api.Client
	modelName string
}

// NewOllamaModel creates a new Ollama model
func NewOllamaModel(ctx context.Context, cfg Config) (model.LLM, error) {
	ollamaURL := cfg.OllamaURL
	if ollamaURL == "" {
		ollamaURL = defaultOllamaURL
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultOllamaModel
	}

	u, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_URL: %w", err)
	}

	return &OllamaModel{
		client:    api.NewClient(u, http.DefaultClient),
		modelName: modelName,
	}, nil
}

// Name returns the model name
func (m *OllamaModel) Name() string {
	return m.modelName
}

// GenerateContent implements the ADK model.LLM interface
func (m *OllamaModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		chatReq := m.chatRequest(req, stream)

		if stream {
			err := m.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
				if resp.Message.Content != "" {
					if !yield(textResponse(resp.Message.Content, !resp.Done), nil) {
						return errStopped
					}
				}
				if len(resp.Message.ToolCalls) > 0 {
					llmResp := toolCallResponse(resp.Message.ToolCalls)
					llmResp.TurnComplete = resp.Done
					if !yield(llmResp, nil) {
						return errStopped
					}
				}
				return nil
			})
			if err != nil && !errors.Is(err, errStopped) {
				yield(nil, fmt.Errorf("Ollama chat error: %w", err))
			}
			return
		}

		var final api.ChatResponse
		err := m.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			final = resp
			return nil
		})
		if err != nil {
			yield(nil, fmt.Errorf("Ollama chat error: %w", err))
			return
		}

		if len(final.Message.ToolCalls) > 0 {
			llmResp := toolCallResponse(final.Message.ToolCalls)
			llmResp.TurnComplete = true
			yield(llmResp, nil)
			return
		}
		yield(textResponse(final.Message.Content, false), nil)
	}
}

// chatRequest builds the Ollama request, system instruction first
func (m *OllamaModel) chatRequest(req *model.LLMRequest, stream bool) *api.ChatRequest {
	var messages []api.Message
	var tools []api.Tool
	if req.Config != nil {
		if sys := contentText(req.Config.SystemInstruction); sys != "" {
			messages = append(messages, api.Message{Role: "system", Content: sys})
		}
		tools = toOllamaTools(req.Config.Tools)
	}
	messages = append(messages, toOllamaMessages(req.Contents)...)

	return &api.ChatRequest{
		Model:    m.modelName,
		Messages: messages,
		Stream:   &stream,
		Tools:    tools,
		// Analysis answers should not vary between runs of the same question
		Options: map[string]any{"temperature": 0.2},
	}
}

func textResponse(text string, partial bool) *model.LLMResponse {
	return &model.LLMResponse{
		Content: &genai.Content{
			Role:  "model",
			Parts: []*genai.Part{genai.NewPartFromText(text)},
		},
		Partial:      partial,
		TurnComplete: !partial,
	}
}

func contentText(c *genai.Content) string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// toOllamaMessages maps genai contents onto Ollama chat messages. Function
// responses become "tool" messages carrying the JSON result.
func toOllamaMessages(contents []*genai.Content) []api.Message {
	var messages []api.Message

	for _, content := range contents {
		role := content.Role
		if role == "model" {
			role = "assistant"
		}

		var text strings.Builder
		var toolCalls []api.ToolCall

		for _, part := range content.Parts {
			switch {
			case part.FunctionCall != nil:
				args := api.NewToolCallFunctionArguments()
				for k, v := range part.FunctionCall.Args {
					args.Set(k, v)
				}
				toolCalls = append(toolCalls, api.ToolCall{
					Function: api.ToolCallFunction{Name: part.FunctionCall.Name, Arguments: args},
				})
			case part.FunctionResponse != nil:
				payload, err := json.Marshal(part.FunctionResponse.Response)
				if err != nil {
					payload = []byte(`{"error":"unencodable tool result"}`)
				}
				messages = append(messages, api.Message{Role: "tool", Content: string(payload)})
			default:
				text.WriteString(part.Text)
			}
		}

		if text.Len() == 0 && len(toolCalls) == 0 {
			continue
		}
		messages = append(messages, api.Message{
			Role:      role,
			Content:   text.String(),
			ToolCalls: toolCalls,
		})
	}

	return messages
}

// toOllamaTools converts the function declarations the agent registered
func toOllamaTools(tools []*genai.Tool) []api.Tool {
	var out []api.Tool
	for _, t := range tools {
		if t == nil {
			continue
		}
		for _, fd := range t.FunctionDeclarations {
			props, required := declarationParameters(fd)
			out = append(out, api.Tool{
				Type: "function",
				Function: api.ToolFunction{
					Name:        fd.Name,
					Description: fd.Description,
					Parameters: api.ToolFunctionParameters{
						Type:       "object",
						Required:   required,
						Properties: props,
					},
				},
			})
		}
	}
	return out
}

// declarationParameters reads either the genai schema or the raw JSON schema
func declarationParameters(fd *genai.FunctionDeclaration) (*api.ToolPropertiesMap, []string) {
	props := api.NewToolPropertiesMap()

	if fd.Parameters != nil {
		for name, s := range fd.Parameters.Properties {
			props.Set(name, api.ToolProperty{
				Type:        api.PropertyType{strings.ToLower(string(s.Type))},
				Description: s.Description,
			})
		}
		return props, fd.Parameters.Required
	}

	if fd.ParametersJsonSchema == nil {
		return props, nil
	}
	data, err := json.Marshal(fd.ParametersJsonSchema)
	if err != nil {
		return props, nil
	}
	var schema struct {
		Required   []string `json:"required"`
		Properties map[string]struct {
			Type        any    `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		return props, nil
	}
	for name, p := range schema.Properties {
		typ := "string"
		switch v := p.Type.(type) {
		case string:
			typ = v
		case []any:
			// ["null", "integer"] style unions
			for _, t := range v {
				if s, ok := t.(string); ok && s != "null" {
					typ = s
				}
			}
		}
		props.Set(name, api.ToolProperty{Type: api.PropertyType{typ}, Description: p.Description})
	}
	return props, schema.Required
}

// toolCallResponse converts Ollama tool calls to an ADK response
func toolCallResponse(toolCalls []api.ToolCall) *model.LLMResponse {
	var parts []*genai.Part

	for _, tc := range toolCalls {
		args := make(map[string]any, tc.Function.Arguments.Len())
		for k, v := range tc.Function.Arguments.All() {
			args[k] = v
		}
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{Name: tc.Function.Name, Args: args},
		})
	}

	return &model.LLMResponse{
		Content: &genai.Content{Role: "model", Parts: parts},
	}
}
