package logging

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "log.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec(TransitionSchema); err != nil {
		t.Fatalf("create table: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// #endregion helpers

// #region log-transition-tests
func TestLogTransition_Success(t *testing.T) {
	db := setupDB(t)

	entry := TransitionEntry{
		AttemptID:  "a1",
		Generation: 3,
		FromState:  "MOVING",
		ToState:    "VERIFYING",
		Trigger:    "release",
		Offset:     80,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := LogTransition(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := ListTransitions(db, "a1", 10)
	if err != nil {
		t.Fatalf("ListTransitions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0] != entry {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got[0], entry)
	}
}

func TestLogTransition_DefaultsCreatedAt(t *testing.T) {
	db := setupDB(t)

	before := time.Now().UTC().Add(-time.Second)
	if err := LogTransition(db, TransitionEntry{FromState: "PASSED", ToState: "READY", Trigger: "reset"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := ListTransitions(db, "", 10)
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	if got[0].CreatedAt.Before(before) {
		t.Errorf("expected CreatedAt to be filled in, got %s", got[0].CreatedAt)
	}
	if got[0].AttemptID != "" {
		t.Errorf("expected empty attempt id to round trip as empty, got %q", got[0].AttemptID)
	}
}

func TestLogTransition_MissingTable(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := LogTransition(db, TransitionEntry{FromState: "READY", ToState: "MOVING", Trigger: "start"}); err == nil {
		t.Fatal("expected error when transition_log is missing")
	}
}

func TestListTransitions_FilterAndOrder(t *testing.T) {
	db := setupDB(t)

	for i, step := range []struct{ id, from, to string }{
		{"a1", "READY", "MOVING"},
		{"a2", "READY", "MOVING"},
		{"a1", "MOVING", "VERIFYING"},
		{"a1", "VERIFYING", "FAILED"},
	} {
		err := LogTransition(db, TransitionEntry{
			AttemptID:  step.id,
			Generation: uint64(i),
			FromState:  step.from,
			ToState:    step.to,
			Trigger:    "test",
		})
		if err != nil {
			t.Fatalf("LogTransition %d: %v", i, err)
		}
	}

	got, err := ListTransitions(db, "a1", 10)
	if err != nil {
		t.Fatalf("ListTransitions: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows for a1, got %d", len(got))
	}
	if got[0].ToState != "MOVING" || got[2].ToState != "FAILED" {
		t.Errorf("expected chronological order, got %s .. %s", got[0].ToState, got[2].ToState)
	}

	limited, _ := ListTransitions(db, "", 2)
	if len(limited) != 2 {
		t.Errorf("expected limit 2 to apply, got %d", len(limited))
	}
}

// #endregion log-transition-tests

// #region logger-tests
func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", true)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level to be enabled")
	}

	if _, err := NewLogger("loud", false); err == nil {
		t.Error("expected error for unknown level")
	}
}

// #endregion logger-tests
