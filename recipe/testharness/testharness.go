// Package testharness provides a synthetic TaskAdapter and a Run helper
// for exercising recipe trees end to end in tests, using the plain
// testing package (no assertion library) and recipe/emit's buffered event
// capture.
package testharness

import (
	"testing"
	"time"

	"github.com/arborflow/taskrecipe/recipe"
	"github.com/arborflow/taskrecipe/recipe/emit"
)

// Outcome is what a synthetic task reports to handle.Done.
type Outcome bool

const (
	Success Outcome = true
	Error   Outcome = false
)

// T returns an AdapterFactory for a synthetic task named id that completes
// with outcome after delay, or immediately with a Cancel-mapped natural
// outcome if RequestCancel is called first. Use it directly as a Task's
// AdapterFactory: recipe.NewTask(testharness.T("a", testharness.Success, 0)).
func T(id string, outcome Outcome, delay time.Duration) func() recipe.TaskAdapter {
	return func() recipe.TaskAdapter {
		return &synthAdapter{id: id, outcome: outcome, delay: delay, cancelCh: make(chan struct{})}
	}
}

type synthAdapter struct {
	id       string
	outcome  Outcome
	delay    time.Duration
	cancelCh chan struct{}
}

func (a *synthAdapter) Start(handle recipe.TaskHandle) error {
	go func() {
		select {
		case <-time.After(a.delay):
		case <-a.cancelCh:
		}
		handle.Done(bool(a.outcome))
	}()
	return nil
}

func (a *synthAdapter) RequestCancel() {
	close(a.cancelCh)
}

// Run compiles root, runs it to completion under t's name as RunID, and
// returns its terminal outcome plus the ordered events a BufferedEmitter
// captured. Extra opts are appended after the harness's own WithEmitter/
// WithRunID, so passing another WithEmitter here would defeat history
// capture — don't.
func Run(t *testing.T, root *recipe.Group, opts ...recipe.Option) (recipe.DoneWith, []emit.Event) {
	t.Helper()

	buffered := emit.NewBufferedEmitter()
	runID := t.Name()
	allOpts := append([]recipe.Option{recipe.WithRunID(runID), recipe.WithEmitter(buffered)}, opts...)

	ctrl, err := recipe.New(root, allOpts...)
	if err != nil {
		t.Fatalf("recipe.New: %v", err)
	}

	outcome, err := ctrl.RunBlocking()
	if err != nil {
		t.Fatalf("RunBlocking: %v", err)
	}
	return outcome, buffered.History(runID)
}

// Start is Run, but returns the started Controller instead of blocking, so
// the caller can drive cancellation or inspect progress concurrently.
func Start(t *testing.T, root *recipe.Group, opts ...recipe.Option) (*recipe.Controller, *emit.BufferedEmitter) {
	t.Helper()

	buffered := emit.NewBufferedEmitter()
	allOpts := append([]recipe.Option{recipe.WithRunID(t.Name()), recipe.WithEmitter(buffered)}, opts...)

	ctrl, err := recipe.New(root, allOpts...)
	if err != nil {
		t.Fatalf("recipe.New: %v", err)
	}
	if err := ctrl.Start(); err != nil {
		t.Fatalf("ctrl.Start: %v", err)
	}
	return ctrl, buffered
}
