package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/arborflow/taskrecipe/recipe"
)

// TestMySQLRecorder exercises MySQLRecorder against a real server.
//
// Prerequisites:
// - MySQL server running (local, Docker, or cloud)
// - TEST_MYSQL_DSN environment variable set, e.g.
//   "user:password@tcp(localhost:3306)/test_db?parseTime=true"
//
// To run: export TEST_MYSQL_DSN=... && go test -run TestMySQLRecorder ./recipe/store
func TestMySQLRecorder(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("Skipping MySQL test: TEST_MYSQL_DSN not set")
	}

	r, err := NewMySQLRecorder(dsn)
	if err != nil {
		t.Fatalf("NewMySQLRecorder: %v", err)
	}
	defer func() { _ = r.Close() }()

	ctx := context.Background()
	runID := "recipe-test-run"
	want := Run{RunID: runID, Outcome: recipe.DoneWithSuccess, StartedAt: time.Now(), EndedAt: time.Now()}

	if err := r.SaveRun(ctx, want); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	got, err := r.LoadRun(ctx, runID)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if got.RunID != want.RunID || got.Outcome != want.Outcome {
		t.Errorf("LoadRun = %+v, want %+v", got, want)
	}
}

func TestMySQLRecorder_InvalidDSN(t *testing.T) {
	if os.Getenv("TEST_MYSQL_DSN") == "" {
		t.Skip("Skipping MySQL test: TEST_MYSQL_DSN not set")
	}
	if _, err := NewMySQLRecorder("not a valid dsn"); err == nil {
		t.Error("NewMySQLRecorder with a malformed DSN = nil error, want non-nil")
	}
}
