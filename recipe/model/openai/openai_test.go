package openai

import (
	"context"
	"errors"
	"testing"

	openaisdk "github.com/openai/openai-go"

	"github.com/arborflow/taskrecipe/recipe/model"
)

func TestNewChatModel_Defaults(t *testing.T) {
	m := NewChatModel("key", "")
	if m.modelName != "gpt-4o" {
		t.Errorf("modelName = %q, want the default gpt-4o", m.modelName)
	}
	if m.maxRetries != 3 {
		t.Errorf("maxRetries = %d, want 3", m.maxRetries)
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

func TestComplete_RequiresAPIKey(t *testing.T) {
	m := NewChatModel("", "")
	_, err := m.complete(context.Background(), []model.Message{{Role: model.RoleUser, Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("complete() with an empty API key = nil error, want non-nil")
	}
}

func TestIsTransientError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("request timeout"), true},
		{errors.New("503 Service Unavailable"), true},
		{errors.New("rate limited: 429"), true},
		{errors.New("invalid api key"), false},
		{errors.New("bad request: missing field"), false},
	}
	for _, c := range cases {
		if got := isTransientError(c.err); got != c.want {
			t.Errorf("isTransientError(%q) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestConvertMessages_RoleMapping(t *testing.T) {
	messages := []model.Message{
		{Role: model.RoleSystem, Content: "be helpful"},
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
	}
	out := convertMessages(messages)
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
}

func TestConvertTools(t *testing.T) {
	tools := []model.ToolSpec{{Name: "search", Description: "search the web"}}
	out := convertTools(tools)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0].Function.Name != "search" {
		t.Errorf("Function.Name = %q, want %q", out[0].Function.Name, "search")
	}
}

func TestParseToolArguments(t *testing.T) {
	got := parseToolArguments(`{"query":"golang"}`)
	if got["query"] != "golang" {
		t.Errorf("parseToolArguments = %v, want query=golang", got)
	}
}

func TestParseToolArguments_Empty(t *testing.T) {
	if got := parseToolArguments(""); got != nil {
		t.Errorf("parseToolArguments(\"\") = %v, want nil", got)
	}
}

func TestParseToolArguments_Malformed(t *testing.T) {
	if got := parseToolArguments("{not json"); got != nil {
		t.Errorf("parseToolArguments with malformed JSON = %v, want nil", got)
	}
}

func TestConvertResponse_NoChoices(t *testing.T) {
	out := convertResponse(&openaisdk.ChatCompletion{})
	if out.Text != "" || len(out.ToolCalls) != 0 {
		t.Errorf("convertResponse with no choices = %+v, want zero value", out)
	}
}
