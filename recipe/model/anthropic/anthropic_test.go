package anthropic

import (
	"context"
	"errors"
	"testing"

	"github.com/arborflow/taskrecipe/recipe/model"
)

func TestNewChatModel_DefaultsModelName(t *testing.T) {
	m := NewChatModel("key", "")
	if m.modelName != "claude-sonnet-4-5-20250929" {
		t.Errorf("modelName = %q, want the default Sonnet model", m.modelName)
	}
}

func TestNewChatModel_KeepsExplicitModelName(t *testing.T) {
	m := NewChatModel("key", "claude-opus-4")
	if m.modelName != "claude-opus-4" {
		t.Errorf("modelName = %q, want %q", m.modelName, "claude-opus-4")
	}
}

func TestChatModel_Chat_RequiresAPIKey(t *testing.T) {
	m := NewChatModel("", "")
	_, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("Chat() with an empty API key = nil error, want non-nil")
	}
}

func TestChatModel_Chat_RespectsCancelledContext(t *testing.T) {
	m := NewChatModel("key", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Chat(ctx, []model.Message{{Role: model.RoleUser, Content: "hi"}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Chat() err = %v, want context.Canceled", err)
	}
}

func TestExtractSystemPrompt(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleSystem, Content: "be terse"},
		{Role: model.RoleSystem, Content: "be accurate"},
		{Role: model.RoleUser, Content: "hello"},
	}

	system, rest := extractSystemPrompt(messages)
	if system != "be terse\n\nbe accurate" {
		t.Errorf("system = %q, want concatenated system prompts", system)
	}
	if len(rest) != 1 || rest[0].Role != model.RoleUser {
		t.Errorf("rest = %+v, want only the user message", rest)
	}
}

func TestExtractSystemPrompt_NoSystemMessages(t *testing.T) {
	messages := []model.Message{{Role: model.RoleUser, Content: "hello"}}
	system, rest := extractSystemPrompt(messages)
	if system != "" {
		t.Errorf("system = %q, want empty", system)
	}
	if len(rest) != 1 {
		t.Errorf("rest = %+v, want the original single message", rest)
	}
}

func TestConvertMessages_RolesMapToParams(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
	}
	out := convertMessages(messages)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
}

func TestConvertTools(t *testing.T) {
	tools := []model.ToolSpec{
		{
			Name:        "search",
			Description: "search the web",
			Schema: map[string]any{
				"properties": map[string]any{"query": map[string]any{"type": "string"}},
				"required":   []string{"query"},
			},
		},
	}
	out := convertTools(tools)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0].OfTool.Name != "search" {
		t.Errorf("tool name = %q, want %q", out[0].OfTool.Name, "search")
	}
}
