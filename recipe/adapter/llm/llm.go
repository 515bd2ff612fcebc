// Package llm provides a Task Capability that runs one LLM chat turn
// against any model.ChatModel (recipe/model/anthropic, openai, or google),
// in the same request-in-a-goroutine shape as httptask/exectask.
package llm

import (
	"context"

	"github.com/arborflow/taskrecipe/recipe"
	"github.com/arborflow/taskrecipe/recipe/model"
)

// Adapter is a recipe.TaskAdapter that runs one ChatModel.Chat call.
type Adapter struct {
	chat     model.ChatModel
	messages []model.Message
	tools    []model.ToolSpec

	cancel context.CancelFunc
	Result model.ChatOut
	Err    error
}

// New creates an Adapter for one chat turn against chat.
func New(chat model.ChatModel, messages []model.Message, tools []model.ToolSpec) *Adapter {
	return &Adapter{chat: chat, messages: messages, tools: tools}
}

// Start issues the chat call on its own goroutine.
func (a *Adapter) Start(handle recipe.TaskHandle) error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	go func() {
		out, err := a.chat.Chat(ctx, a.messages, a.tools)
		a.Result = out
		a.Err = err
		handle.Done(err == nil)
	}()
	return nil
}

// RequestCancel aborts the in-flight call via its context.
func (a *Adapter) RequestCancel() {
	if a.cancel != nil {
		a.cancel()
	}
}
