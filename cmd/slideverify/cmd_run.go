package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/slide-verify/internal/config"
	"github.com/danielpatrickdp/slide-verify/internal/machine"
	"github.com/danielpatrickdp/slide-verify/internal/remote"
	"github.com/danielpatrickdp/slide-verify/internal/store"
	"github.com/danielpatrickdp/slide-verify/internal/verify"
)

// runCmd starts an interactive session
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Interactive slider session",
	Long: `Drive the slider from a prompt. Commands:

  start | move <dx> | release | drag <dx> | reset | resize <track> <handle> | status | quit

Attempts and transitions are recorded to the configured database. When a
config file is given it is watched and geometry edits resize the track.`,
	RunE: runSession,
}

// #region session
func runSession(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewStore(cfg.Store.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	engine, closeEngine, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer closeEngine()

	m, err := newMachine(cfg, engine, st, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "slideverify ready.")
	fmt.Fprintf(out, "  DB: %s | Mode: %s | maxOffset: %.0f\n",
		cfg.Store.DatabasePath, engine.Mode(), m.Snapshot().MaxOffset)
	fmt.Fprintln(out, "Type a command (or 'quit' to exit):")

	runCtx, cancelBg := context.WithCancel(ctx)
	defer cancelBg()
	bg, bgCtx := errgroup.WithContext(runCtx)
	bg.Go(func() error {
		printTransitions(bgCtx, m, out)
		return nil
	})
	if cfgPath != "" {
		bg.Go(func() error {
			return config.Watch(bgCtx, cfgPath, logger, func(c config.Config) {
				m.Resize(c.Geometry.TrackWidth, c.Geometry.HandleWidth)
			})
		})
	}

	replErr := repl(ctx, m, cmd.InOrStdin(), out)
	cancelBg()
	if err := bg.Wait(); err != nil {
		logger.Warn("background task failed", zap.Error(err))
	}
	return replErr
}

func newMachine(c config.Config, engine *verify.Engine, rec machine.Recorder, logger *zap.Logger) (*machine.Machine, error) {
	rc, err := c.RecoveryConfig()
	if err != nil {
		return nil, err
	}
	return machine.New(machine.Options{
		Engine:      engine,
		TrackWidth:  c.Geometry.TrackWidth,
		HandleWidth: c.Geometry.HandleWidth,
		Recovery:    rc,
		Recorder:    rec,
		Logger:      logger,
	})
}

// buildEngine returns the configured verification engine and a func that
// releases whatever it holds.
func buildEngine(c config.Config, logger *zap.Logger) (*verify.Engine, func(), error) {
	if c.Mode() == verify.ModeLocalTolerance {
		return verify.NewLocalEngine(c.Window(), logger), func() {}, nil
	}

	client, err := remote.NewClient(c.Verification.RemoteAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to verifier at %s: %w", c.Verification.RemoteAddr, err)
	}
	pred := verify.Predicate(client.Verify)
	timeout, err := c.VerifyTimeout()
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	if timeout > 0 {
		pred = verify.WithTimeout(pred, timeout)
	}
	engine, err := verify.NewDelegatedEngine(pred, logger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return engine, func() { client.Close() }, nil
}

// #endregion session

// #region repl
func repl(ctx context.Context, m *machine.Machine, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		msg, err := execute(m, strings.Fields(line))
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, msg)
	}
}

// execute runs one REPL command and returns the line to print.
func execute(m *machine.Machine, fields []string) (string, error) {
	switch fields[0] {
	case "start":
		return accepted("start", m.Start()), nil
	case "move":
		dx, err := floatArgs(fields, 1)
		if err != nil {
			return "", err
		}
		return accepted("move", m.Move(dx[0])), nil
	case "release":
		return accepted("release", m.Release()), nil
	case "drag":
		dx, err := floatArgs(fields, 1)
		if err != nil {
			return "", err
		}
		if !m.Start() {
			return accepted("drag", false), nil
		}
		m.Move(dx[0])
		return accepted("drag", m.Release()), nil
	case "reset":
		return accepted("reset", m.Reset()), nil
	case "resize":
		w, err := floatArgs(fields, 2)
		if err != nil {
			return "", err
		}
		return accepted("resize", m.Resize(w[0], w[1])), nil
	case "status":
		return formatSnapshot(m.Snapshot()), nil
	}
	return "", fmt.Errorf("unknown command %q", fields[0])
}

func floatArgs(fields []string, n int) ([]float64, error) {
	if len(fields)-1 != n {
		return nil, fmt.Errorf("%s takes %d numeric argument(s)", fields[0], n)
	}
	vals := make([]float64, n)
	for i := range vals {
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", fields[i+1], err)
		}
		vals[i] = v
	}
	return vals, nil
}

func accepted(op string, ok bool) string {
	if ok {
		return op + ": ok"
	}
	return op + ": refused"
}

func formatSnapshot(s machine.Snapshot) string {
	result := string(s.Result)
	if result == "" {
		result = "-"
	}
	return fmt.Sprintf("[%s] offset=%.1f/%.0f result=%s locked=%t gen=%d",
		s.State, s.Offset, s.MaxOffset, result, s.Locked, s.Generation)
}

// printTransitions prints a line per state change. Recovery frames only move
// the offset and are skipped.
func printTransitions(ctx context.Context, m *machine.Machine, out io.Writer) {
	ch, stop := m.Watch()
	defer stop()
	last := m.Snapshot().State
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-ch:
			if !ok {
				return
			}
			if s.State == last {
				continue
			}
			last = s.State
			fmt.Fprintf(out, "\n  -> %s\n", formatSnapshot(s))
		}
	}
}

// #endregion repl
