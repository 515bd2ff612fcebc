// Package store persists the terminal outcome of a recipe run: run ID,
// final DoneWith, and timestamps. It deliberately does not serialize the
// recipe tree or any intermediate node state for later resumption — a
// finished run here is a closed fact, not a resumable one.
package store

import (
	"context"
	"errors"

	"github.com/arborflow/taskrecipe/recipe"
)

// ErrNotFound is returned when a requested run ID has no recorded run.
var ErrNotFound = errors.New("run not found")

// Run is one completed recipe run's terminal record. It is a type alias
// for recipe.RunRecord so that every implementation in this package
// automatically satisfies recipe.RunRecorder and can be passed straight to
// recipe.WithRunRecorder.
type Run = recipe.RunRecord

// RunRecorder persists and retrieves terminal run records. Implementations
// must be safe for concurrent use. It embeds recipe.RunRecorder so any
// RunRecorder here can be passed directly to recipe.WithRunRecorder.
type RunRecorder interface {
	recipe.RunRecorder

	// LoadRun retrieves a previously saved run. Returns ErrNotFound if no
	// run was recorded under runID.
	LoadRun(ctx context.Context, runID string) (Run, error)
}
