package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arborflow/taskrecipe/recipe/model"
)

type fakeChatModel struct {
	out   model.ChatOut
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls int
}

func (m *fakeChatModel) Chat(ctx context.Context, messages []model.Message, tools []model.ToolSpec) (model.ChatOut, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	select {
	case <-time.After(m.delay):
	case <-ctx.Done():
		return model.ChatOut{}, ctx.Err()
	}
	return m.out, m.err
}

type fakeHandle struct {
	mu      sync.Mutex
	called  bool
	success bool
	done    chan struct{}
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{done: make(chan struct{})}
}

func (h *fakeHandle) Done(success bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.called {
		return
	}
	h.called = true
	h.success = success
	close(h.done)
}

func (h *fakeHandle) wait(t *testing.T) bool {
	t.Helper()
	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("handle.Done was never called")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.success
}

func TestAdapter_Success(t *testing.T) {
	chat := &fakeChatModel{out: model.ChatOut{Text: "hi there"}}
	a := New(chat, []model.Message{{Role: model.RoleUser, Content: "hi"}}, nil)

	handle := newFakeHandle()
	if err := a.Start(handle); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if success := handle.wait(t); !success {
		t.Fatalf("handle.Done(success) = false, want true")
	}
	if a.Result.Text != "hi there" {
		t.Errorf("Result.Text = %q, want %q", a.Result.Text, "hi there")
	}
	if chat.calls != 1 {
		t.Errorf("Chat called %d times, want 1", chat.calls)
	}
}

func TestAdapter_ChatError(t *testing.T) {
	chat := &fakeChatModel{err: errors.New("provider unavailable")}
	a := New(chat, nil, nil)

	handle := newFakeHandle()
	_ = a.Start(handle)
	if success := handle.wait(t); success {
		t.Fatalf("handle.Done(success) = true, want false")
	}
	if a.Err == nil {
		t.Error("Err = nil, want the chat error")
	}
}

func TestAdapter_RequestCancel(t *testing.T) {
	chat := &fakeChatModel{delay: 5 * time.Second}
	a := New(chat, nil, nil)

	handle := newFakeHandle()
	if err := a.Start(handle); err != nil {
		t.Fatalf("Start: %v", err)
	}
	a.RequestCancel()

	if success := handle.wait(t); success {
		t.Fatalf("handle.Done(success) = true, want false after RequestCancel")
	}
	if !errors.Is(a.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", a.Err)
	}
}
