// Package openai adapts OpenAI's chat completions API to model.ChatModel
// using the openai-go client, with a transient-error retry loop.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/arborflow/taskrecipe/recipe/model"
)

// ChatModel implements model.ChatModel for OpenAI, retrying transient
// errors (timeouts, 5xx, rate limits) with a short linear backoff.
type ChatModel struct {
	apiKey     string
	modelName  string
	maxRetries int
	retryDelay time.Duration
}

// NewChatModel creates an OpenAI-backed ChatModel. An empty modelName
// defaults to gpt-4o.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return &ChatModel{apiKey: apiKey, modelName: modelName, maxRetries: 3, retryDelay: time.Second}
}

func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if ctx.Err() != nil {
		return model.ChatOut{}, ctx.Err()
	}

	var lastErr error
	attempt := 0
	for ; attempt <= m.maxRetries; attempt++ {
		out, err := m.complete(ctx, messages, tools)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isTransientError(err) || attempt >= m.maxRetries {
			break
		}
		select {
		case <-time.After(m.retryDelay * time.Duration(attempt+1)):
		case <-ctx.Done():
			return model.ChatOut{}, ctx.Err()
		}
	}
	return model.ChatOut{}, fmt.Errorf("openai: failed after %d retries: %w", attempt, lastErr)
}

func (m *ChatModel) complete(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	if m.apiKey == "" {
		return model.ChatOut{}, errors.New("openai: API key is required")
	}
	client := openaisdk.NewClient(option.WithAPIKey(m.apiKey))

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(m.modelName),
		Messages: convertMessages(messages),
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("openai: %w", err)
	}
	return convertResponse(resp), nil
}

func isTransientError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "network", "connection", "temporary", "503", "502", "500", "429"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func convertMessages(messages []model.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			out[i] = openaisdk.SystemMessage(msg.Content)
		case model.RoleAssistant:
			out[i] = openaisdk.AssistantMessage(msg.Content)
		default:
			out[i] = openaisdk.UserMessage(msg.Content)
		}
	}
	return out
}

func convertTools(tools []model.ToolSpec) []openaisdk.ChatCompletionToolParam {
	out := make([]openaisdk.ChatCompletionToolParam, len(tools))
	for i, tool := range tools {
		out[i] = openaisdk.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openaisdk.String(tool.Description),
				Parameters:  shared.FunctionParameters(tool.Schema),
			},
		}
	}
	return out
}

func convertResponse(resp *openaisdk.ChatCompletion) model.ChatOut {
	if len(resp.Choices) == 0 {
		return model.ChatOut{}
	}
	choice := resp.Choices[0]
	out := model.ChatOut{Text: choice.Message.Content}
	for _, call := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, model.ToolCall{
			Name:  call.Function.Name,
			Input: parseToolArguments(call.Function.Arguments),
		})
	}
	return out
}

// parseToolArguments decodes the tool call's JSON-encoded arguments
// string into a map, best-effort: a malformed payload yields nil rather
// than an error, since a failed call is still a valid ChatOut.
func parseToolArguments(jsonArgs string) map[string]any {
	if jsonArgs == "" {
		return nil
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(jsonArgs), &result); err != nil {
		return nil
	}
	return result
}
