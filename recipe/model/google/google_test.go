package google

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/arborflow/taskrecipe/recipe/model"
)

func TestNewChatModel_DefaultsModelName(t *testing.T) {
	m := NewChatModel("key", "")
	if m.modelName != "gemini-2.5-flash" {
		t.Errorf("modelName = %q, want the default gemini-2.5-flash", m.modelName)
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

func TestChatModel_Chat_RequiresAPIKey(t *testing.T) {
	m := NewChatModel("", "")
	_, err := m.Chat(context.Background(), []model.Message{{Role: model.RoleUser, Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("Chat() with an empty API key = nil error, want non-nil")
	}
}

func TestConvertMessages_SkipsEmptyContent(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleUser, Content: ""},
	}
	parts := convertMessages(messages)
	if len(parts) != 1 {
		t.Fatalf("len(parts) = %d, want 1 (empty-content message skipped)", len(parts))
	}
}

func TestConvertType(t *testing.T) {
	cases := map[string]genai.Type{
		"string":  genai.TypeString,
		"number":  genai.TypeNumber,
		"integer": genai.TypeInteger,
		"boolean": genai.TypeBoolean,
		"array":   genai.TypeArray,
		"object":  genai.TypeObject,
		"bogus":   genai.TypeUnspecified,
	}
	for in, want := range cases {
		if got := convertType(in); got != want {
			t.Errorf("convertType(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConvertSchema_Nil(t *testing.T) {
	if got := convertSchema(nil); got != nil {
		t.Errorf("convertSchema(nil) = %v, want nil", got)
	}
}

func TestConvertSchema_PropertiesAndRequired(t *testing.T) {
	schema := map[string]any{
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "search text"},
		},
		"required": []string{"query"},
	}
	out := convertSchema(schema)
	if out == nil {
		t.Fatal("convertSchema = nil, want a populated schema")
	}
	prop, ok := out.Properties["query"]
	if !ok {
		t.Fatalf("Properties = %v, want a \"query\" entry", out.Properties)
	}
	if prop.Description != "search text" {
		t.Errorf("query description = %q, want %q", prop.Description, "search text")
	}
	if len(out.Required) != 1 || out.Required[0] != "query" {
		t.Errorf("Required = %v, want [query]", out.Required)
	}
}

func TestSafetyFilterError(t *testing.T) {
	err := &SafetyFilterError{reason: "candidate blocked", category: "HARM_CATEGORY_DANGEROUS"}
	if err.Category() != "HARM_CATEGORY_DANGEROUS" {
		t.Errorf("Category() = %q, want %q", err.Category(), "HARM_CATEGORY_DANGEROUS")
	}
	if err.Reason() != "candidate blocked" {
		t.Errorf("Reason() = %q, want %q", err.Reason(), "candidate blocked")
	}
	if err.Error() == "" {
		t.Error("Error() = empty string, want a descriptive message")
	}
}
