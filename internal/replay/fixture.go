package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/slide-verify/internal/machine"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string           `json:"description"`
	Config      FixtureConfig    `json:"config"`
	Sessions    []FixtureSession `json:"sessions"`
}

// FixtureConfig mirrors ReplayConfig with JSON tags. Zero fields fall back to
// DefaultReplayConfig.
type FixtureConfig struct {
	TrackWidth   float64 `json:"track_width"`
	HandleWidth  float64 `json:"handle_width"`
	TargetOffset float64 `json:"target_offset"`
	Epsilon      float64 `json:"epsilon"`
}

// FixtureOp mirrors Op with JSON tags.
type FixtureOp struct {
	Op          string  `json:"op"`
	Dx          float64 `json:"dx,omitempty"`
	TrackWidth  float64 `json:"track_width,omitempty"`
	HandleWidth float64 `json:"handle_width,omitempty"`
}

// FixtureSession is one recorded session and what it should produce.
type FixtureSession struct {
	Name     string          `json:"name"`
	Ops      []FixtureOp     `json:"ops"`
	Expected FixtureExpected `json:"expected"`
}

// FixtureExpected captures the expected outcome of a session.
type FixtureExpected struct {
	Outcomes   []string `json:"outcomes"`
	FinalState string   `json:"final_state"`
	Locked     bool     `json:"locked"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToReplayConfig converts a FixtureConfig to a ReplayConfig.
func (fc *FixtureConfig) ToReplayConfig() ReplayConfig {
	cfg := DefaultReplayConfig()
	if fc.TrackWidth > 0 {
		cfg.TrackWidth = fc.TrackWidth
	}
	if fc.HandleWidth > 0 {
		cfg.HandleWidth = fc.HandleWidth
	}
	if fc.TargetOffset > 0 {
		cfg.Window.Target = fc.TargetOffset
	}
	if fc.Epsilon > 0 {
		cfg.Window.Epsilon = fc.Epsilon
	}
	return cfg
}

// ToSession converts a FixtureSession to a Session.
func (fs *FixtureSession) ToSession() Session {
	ops := make([]Op, len(fs.Ops))
	for i, o := range fs.Ops {
		ops[i] = Op{
			Kind:        OpKind(o.Op),
			Dx:          o.Dx,
			TrackWidth:  o.TrackWidth,
			HandleWidth: o.HandleWidth,
		}
	}
	return Session{Name: fs.Name, Ops: ops}
}

// ToSessions converts every fixture session.
func (f *Fixture) ToSessions() []Session {
	sessions := make([]Session, len(f.Sessions))
	for i := range f.Sessions {
		sessions[i] = f.Sessions[i].ToSession()
	}
	return sessions
}

// #endregion fixture-loader

// #region fixture-compare

// Mismatch describes a session whose replay diverged from the fixture.
type Mismatch struct {
	Session string
	Field   string
	Want    string
	Got     string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %s want %s, got %s", m.Session, m.Field, m.Want, m.Got)
}

// Compare checks results against the fixture's expectations, session by
// session in order.
func (f *Fixture) Compare(results []ReplayResult) []Mismatch {
	var out []Mismatch
	if len(results) != len(f.Sessions) {
		out = append(out, Mismatch{
			Field: "sessions",
			Want:  fmt.Sprint(len(f.Sessions)),
			Got:   fmt.Sprint(len(results)),
		})
	}
	for i := 0; i < len(results) && i < len(f.Sessions); i++ {
		exp := f.Sessions[i].Expected
		got := results[i]
		name := f.Sessions[i].Name

		gotOutcomes := make([]string, len(got.Outcomes))
		for j, o := range got.Outcomes {
			gotOutcomes[j] = string(o)
		}
		if fmt.Sprint(exp.Outcomes) != fmt.Sprint(gotOutcomes) {
			out = append(out, Mismatch{name, "outcomes", fmt.Sprint(exp.Outcomes), fmt.Sprint(gotOutcomes)})
		}
		if exp.FinalState != "" && machine.State(exp.FinalState) != got.FinalState {
			out = append(out, Mismatch{name, "final_state", exp.FinalState, string(got.FinalState)})
		}
		if exp.Locked != got.Locked {
			out = append(out, Mismatch{name, "locked", fmt.Sprint(exp.Locked), fmt.Sprint(got.Locked)})
		}
	}
	return out
}

// #endregion fixture-compare
