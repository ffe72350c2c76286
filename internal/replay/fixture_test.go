package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// #region fixture-tests

// TestFixture_GestureSessions replays the recorded sessions and compares each
// session's outcomes, final state and lock against the fixture. If tracker
// clamping or tolerance handling drifts, this catches it.
func TestFixture_GestureSessions(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "gesture_sessions.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	results, err := Replay(testContext(t), f.ToSessions(), f.Config.ToReplayConfig())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	for _, m := range f.Compare(results) {
		t.Error(m.String())
	}

	got := Summarize(results)
	want := ReplaySummary{Sessions: 8, Attempts: 9, Passes: 4, Fails: 5, Refused: 5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestFixture_ConfigDefaults(t *testing.T) {
	var fc FixtureConfig
	if diff := cmp.Diff(DefaultReplayConfig(), fc.ToReplayConfig()); diff != "" {
		t.Errorf("empty fixture config should map to defaults (-want +got):\n%s", diff)
	}

	fc = FixtureConfig{TrackWidth: 400, Epsilon: 5}
	cfg := fc.ToReplayConfig()
	if cfg.TrackWidth != 400 || cfg.HandleWidth != 50 || cfg.Window.Epsilon != 5 || cfg.Window.Target != 79 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestFixture_CompareReportsDrift(t *testing.T) {
	f := &Fixture{Sessions: []FixtureSession{{
		Name:     "s",
		Expected: FixtureExpected{Outcomes: []string{"pass"}, FinalState: "PASSED", Locked: true},
	}}}
	got := f.Compare([]ReplayResult{{Name: "s", FinalState: "READY"}})
	if len(got) != 3 {
		t.Fatalf("expected 3 mismatches, got %d: %v", len(got), got)
	}
}

func TestLoadFixture_Errors(t *testing.T) {
	if _, err := LoadFixture(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing fixture")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixture(bad); err == nil {
		t.Error("expected error for malformed fixture")
	}
}

// #endregion fixture-tests
