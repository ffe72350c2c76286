package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/slide-verify/internal/replay"
	"github.com/danielpatrickdp/slide-verify/internal/store"
)

var (
	replayFixture string
	replayRecord  bool
	replayJSON    bool
)

// replayCmd replays recorded gesture sessions
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay gesture sessions from a JSON fixture",
	Long: `Replay every session in a fixture through a fresh local-tolerance machine
with instant recovery and compare each outcome against the fixture. Exits
non-zero on any mismatch.`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayFixture, "fixture", "", "path to fixture JSON (required)")
	replayCmd.Flags().BoolVar(&replayRecord, "record", false, "record replayed attempts to the configured database")
	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "output results as JSON")
	_ = replayCmd.MarkFlagRequired("fixture")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := replay.LoadFixture(replayFixture)
	if err != nil {
		return err
	}

	rc := f.Config.ToReplayConfig()
	rc.Logger = logger
	if replayRecord {
		st, err := store.NewStore(cfg.Store.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()
		rc.Recorder = st
	}

	results, err := replay.Replay(cmd.Context(), f.ToSessions(), rc)
	if err != nil {
		return err
	}
	mismatches := f.Compare(results)
	summary := replay.Summarize(results)

	out := cmd.OutOrStdout()
	if replayJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			Results    []replay.ReplayResult `json:"results"`
			Summary    replay.ReplaySummary  `json:"summary"`
			Mismatches []replay.Mismatch     `json:"mismatches"`
		}{results, summary, mismatches}); err != nil {
			return err
		}
	} else {
		if f.Description != "" {
			fmt.Fprintln(out, f.Description)
		}
		for _, r := range results {
			fmt.Fprintf(out, "  %-24s outcomes=%v final=%s locked=%t\n", r.Name, r.Outcomes, r.FinalState, r.Locked)
		}
		fmt.Fprintf(out, "sessions=%d attempts=%d passes=%d fails=%d refused=%d\n",
			summary.Sessions, summary.Attempts, summary.Passes, summary.Fails, summary.Refused)
		for _, m := range mismatches {
			fmt.Fprintf(out, "MISMATCH %s\n", m)
		}
	}

	if len(mismatches) > 0 {
		return fmt.Errorf("%d session(s) diverged from fixture", len(mismatches))
	}
	return nil
}
