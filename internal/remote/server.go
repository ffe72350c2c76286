package remote

import (
	"context"
	"math"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/danielpatrickdp/slide-verify/internal/verify"
)

// ToleranceServer answers Verify with a local tolerance check, moving the
// puzzle's answer off the client.
type ToleranceServer struct {
	engine *verify.Engine
	logger *zap.Logger
}

var _ VerifierServer = (*ToleranceServer)(nil)

// NewToleranceServer builds a server around window.
func NewToleranceServer(window verify.ToleranceWindow, logger *zap.Logger) *ToleranceServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToleranceServer{
		engine: verify.NewLocalEngine(window, logger),
		logger: logger,
	}
}

// Verify returns Empty on pass, PermissionDenied on a miss and
// InvalidArgument for a missing or non-finite offset.
func (s *ToleranceServer) Verify(ctx context.Context, in *wrapperspb.DoubleValue) (*emptypb.Empty, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "offset is required")
	}
	offset := in.GetValue()
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return nil, status.Error(codes.InvalidArgument, "offset must be finite")
	}

	outcome := s.engine.Verify(ctx, offset)
	s.logger.Info("remote verification",
		zap.Float64("offset", offset),
		zap.String("outcome", string(outcome)),
	)
	if outcome != verify.OutcomePass {
		return nil, status.Error(codes.PermissionDenied, "offset rejected")
	}
	return &emptypb.Empty{}, nil
}
