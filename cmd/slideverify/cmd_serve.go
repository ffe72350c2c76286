package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/slide-verify/internal/remote"
)

var serveListen string

// serveCmd runs the remote verifier
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tolerance check over gRPC",
	Long: `Serve slideverify.v1.Verifier/Verify using the configured tolerance window.
A run session in delegated mode points verification.remote_addr here.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default: server.listen from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Listen
	if serveListen != "" {
		addr = serveListen
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, lis, logger)
}

// serve blocks until ctx is done, then drains in-flight calls.
func serve(ctx context.Context, lis net.Listener, logger *zap.Logger) error {
	s := grpc.NewServer()
	remote.RegisterVerifierServer(s, remote.NewToleranceServer(cfg.Window(), logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("verifier listening",
			zap.String("addr", lis.Addr().String()),
			zap.Float64("target", cfg.Verification.TargetOffset),
			zap.Float64("epsilon", cfg.Verification.Epsilon),
		)
		if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("verifier shutting down")
		s.GracefulStop()
		return nil
	})
	return g.Wait()
}
