package recipe

import "github.com/arborflow/taskrecipe/recipe/emit"

// Option configures a Controller at construction time, following the
// functional-options pattern: each Option mutates a controllerConfig and
// can fail validation before New ever compiles the recipe.
type Option func(*controllerConfig) error

type controllerConfig struct {
	runID    string
	emitter  emit.Emitter
	metrics  Metrics
	recorder RunRecorder
}

// WithRunID sets the run identifier reported on every emitted event and
// metric. Defaults to an empty string if not set, since the engine itself
// never generates identifiers (spec.md has no notion of run naming).
func WithRunID(id string) Option {
	return func(cfg *controllerConfig) error {
		cfg.runID = id
		return nil
	}
}

// WithEmitter overrides the default emit.NullEmitter.
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *controllerConfig) error {
		cfg.emitter = e
		return nil
	}
}

// WithMetrics overrides the default NullMetrics.
func WithMetrics(m Metrics) Option {
	return func(cfg *controllerConfig) error {
		cfg.metrics = m
		return nil
	}
}

// WithRunRecorder saves the run's terminal outcome through r once the root
// group finishes. Not set by default, since persistence is optional
// (recipe/store provides MemRecorder, SQLiteRecorder, and MySQLRecorder).
func WithRunRecorder(r RunRecorder) Option {
	return func(cfg *controllerConfig) error {
		cfg.recorder = r
		return nil
	}
}
