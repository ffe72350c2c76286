package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/slide-verify/internal/logging"
	"github.com/danielpatrickdp/slide-verify/internal/store"
)

var (
	inspectDB      string
	inspectLast    int
	inspectAttempt string
	inspectJSON    bool
)

// inspectCmd reads the attempt database
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List recorded attempts, or one attempt's transitions",
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectDB, "db", "", "path to attempt database (default: store.database_path)")
	inspectCmd.Flags().IntVar(&inspectLast, "last", 20, "show N most recent attempts")
	inspectCmd.Flags().StringVar(&inspectAttempt, "attempt", "", "show a single attempt with its transitions")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output as JSON instead of table")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := cfg.Store.DatabasePath
	if inspectDB != "" {
		path = inspectDB
	}
	st, err := store.NewStore(path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	out := cmd.OutOrStdout()
	if inspectAttempt != "" {
		return runDetailMode(st, inspectAttempt, inspectJSON, out)
	}
	return runListMode(st, inspectLast, inspectJSON, out)
}

// #region list-mode

type listRow struct {
	AttemptID  string  `json:"attempt_id"`
	Mode       string  `json:"mode"`
	Offset     float64 `json:"offset"`
	MaxOffset  float64 `json:"max_offset"`
	Outcome    string  `json:"outcome"`
	DurationMS int64   `json:"duration_ms"`
	FinishedAt string  `json:"finished_at"`
}

type listReport struct {
	Attempts []listRow `json:"attempts"`
	Total    int       `json:"total"`
	Passed   int       `json:"passed"`
	Failed   int       `json:"failed"`
	PassRate float64   `json:"pass_rate"`
	Mean     float64   `json:"mean_offset"`
}

func runListMode(st *store.Store, last int, jsonOut bool, out io.Writer) error {
	attempts, err := st.ListAttempts(last)
	if err != nil {
		return err
	}
	stats, err := st.Stats()
	if err != nil {
		return err
	}

	// Store returns newest first; show chronologically.
	rows := make([]listRow, len(attempts))
	for i, a := range attempts {
		rows[len(attempts)-1-i] = listRow{
			AttemptID:  a.AttemptID,
			Mode:       a.Mode,
			Offset:     a.Offset,
			MaxOffset:  a.MaxOffset,
			Outcome:    a.Outcome,
			DurationMS: a.Duration().Milliseconds(),
			FinishedAt: a.FinishedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
	}
	report := listReport{
		Attempts: rows,
		Total:    stats.Total,
		Passed:   stats.Passed,
		Failed:   stats.Failed,
		PassRate: stats.PassRate(),
		Mean:     stats.MeanOffset,
	}

	if jsonOut {
		return printJSON(out, report)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "no attempts found")
		return nil
	}

	fmt.Fprintf(out, "%-12s  %-15s  %8s  %8s  %-7s  %8s  %s\n",
		"Attempt", "Mode", "Offset", "Max", "Outcome", "Duration", "Finished")
	fmt.Fprintf(out, "%-12s+-%-15s+-%8s+-%8s+-%-7s+-%8s+-%s\n",
		"------------", "---------------", "--------", "--------", "-------", "--------", "--------------------")
	for _, r := range rows {
		fmt.Fprintf(out, "%-12s  %-15s  %8.2f  %8.0f  %-7s  %6dms  %s\n",
			shortID(r.AttemptID), r.Mode, r.Offset, r.MaxOffset, r.Outcome, r.DurationMS, r.FinishedAt)
	}
	fmt.Fprintf(out, "\n%d attempts, %d passed, %d failed (pass rate %.1f%%, mean offset %.2f)\n",
		report.Total, report.Passed, report.Failed, report.PassRate*100, report.Mean)
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailReport struct {
	Attempt     listRow                   `json:"attempt"`
	Generation  uint64                    `json:"generation"`
	Transitions []logging.TransitionEntry `json:"transitions"`
}

func runDetailMode(st *store.Store, id string, jsonOut bool, out io.Writer) error {
	a, err := st.GetAttempt(id)
	if err != nil {
		return err
	}
	transitions, err := st.ListTransitions(id, 100)
	if err != nil {
		return err
	}

	report := detailReport{
		Attempt: listRow{
			AttemptID:  a.AttemptID,
			Mode:       a.Mode,
			Offset:     a.Offset,
			MaxOffset:  a.MaxOffset,
			Outcome:    a.Outcome,
			DurationMS: a.Duration().Milliseconds(),
			FinishedAt: a.FinishedAt.UTC().Format("2006-01-02T15:04:05Z"),
		},
		Generation:  a.Generation,
		Transitions: transitions,
	}
	if jsonOut {
		return printJSON(out, report)
	}

	fmt.Fprintf(out, "Attempt:    %s\n", a.AttemptID)
	fmt.Fprintf(out, "Generation: %d\n", a.Generation)
	fmt.Fprintf(out, "Mode:       %s\n", a.Mode)
	fmt.Fprintf(out, "Offset:     %.2f / %.0f\n", a.Offset, a.MaxOffset)
	fmt.Fprintf(out, "Outcome:    %s (%dms)\n", a.Outcome, a.Duration().Milliseconds())
	fmt.Fprintln(out, "\nTransitions:")
	for _, t := range transitions {
		fmt.Fprintf(out, "  %s  %-9s -> %-9s  %-9s  offset=%.2f\n",
			t.CreatedAt.UTC().Format("15:04:05.000"), t.FromState, t.ToState, t.Trigger, t.Offset)
	}
	return nil
}

// #endregion detail-mode

// #region helpers

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// #endregion helpers
