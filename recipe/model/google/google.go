// Package google adapts Google's Gemini API to model.ChatModel using the
// generative-ai-go client.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/arborflow/taskrecipe/recipe/model"
)

// ChatModel implements model.ChatModel for Gemini.
type ChatModel struct {
	apiKey    string
	modelName string
}

// NewChatModel creates a Gemini-backed ChatModel. An empty modelName
// defaults to gemini-2.5-flash.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &ChatModel{apiKey: apiKey, modelName: modelName}
}

func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}
	if m.apiKey == "" {
		return model.ChatOut{}, errors.New("google: API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(m.apiKey))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google: create client: %w", err)
	}
	defer func() { _ = client.Close() }()

	genModel := client.GenerativeModel(m.modelName)
	if len(tools) > 0 {
		genModel.Tools = convertTools(tools)
	}

	resp, err := genModel.GenerateContent(ctx, convertMessages(messages)...)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google: %w", err)
	}

	out := convertResponse(resp)
	if out.Text == "" && len(out.ToolCalls) == 0 && blocked(resp) {
		return model.ChatOut{}, &SafetyFilterError{reason: "candidate blocked"}
	}
	return out, nil
}

func blocked(resp *genai.GenerateContentResponse) bool {
	return len(resp.Candidates) == 0 || resp.Candidates[0].FinishReason == genai.FinishReasonSafety
}

func convertMessages(messages []model.Message) []genai.Part {
	var parts []genai.Part
	for _, msg := range messages {
		if msg.Content != "" {
			parts = append(parts, genai.Text(msg.Content))
		}
	}
	return parts
}

func convertTools(tools []model.ToolSpec) []*genai.Tool {
	declarations := make([]*genai.FunctionDeclaration, len(tools))
	for i, tool := range tools {
		declarations[i] = &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  convertSchema(tool.Schema),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func convertSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}
	result := &genai.Schema{Type: genai.TypeObject}
	if props, ok := schema["properties"].(map[string]any); ok {
		properties := make(map[string]*genai.Schema, len(props))
		for key, val := range props {
			propMap, ok := val.(map[string]any)
			if !ok {
				continue
			}
			prop := &genai.Schema{}
			if typeStr, ok := propMap["type"].(string); ok {
				prop.Type = convertType(typeStr)
			}
			if desc, ok := propMap["description"].(string); ok {
				prop.Description = desc
			}
			properties[key] = prop
		}
		result.Properties = properties
	}
	if required, ok := schema["required"].([]string); ok {
		result.Required = required
	}
	return result
}

func convertType(typeStr string) genai.Type {
	switch typeStr {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

func convertResponse(resp *genai.GenerateContentResponse) model.ChatOut {
	var out model.ChatOut
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += string(p)
		case genai.FunctionCall:
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{Name: p.Name, Input: p.Args})
		}
	}
	return out
}

// SafetyFilterError reports that Gemini blocked a response via its
// safety filters.
type SafetyFilterError struct {
	reason   string
	category string
}

func (e *SafetyFilterError) Error() string {
	return "google: content blocked by safety filter: " + e.category
}

func (e *SafetyFilterError) Category() string { return e.category }
func (e *SafetyFilterError) Reason() string   { return e.reason }
