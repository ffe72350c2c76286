package remote

import (
	"context"
	"errors"
	"math"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/danielpatrickdp/slide-verify/internal/verify"
)

// #region helpers
func startServer(t *testing.T, srv VerifierServer, opts ...grpc.ServerOption) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterVerifierServer(s, srv)
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	c, err := NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

type failingConn struct {
	grpc.ClientConnInterface
	err error
}

func (f failingConn) Invoke(context.Context, string, interface{}, interface{}, ...grpc.CallOption) error {
	return f.err
}

// #endregion helpers

// #region verify-tests
func TestVerifyAccepted(t *testing.T) {
	c := startServer(t, NewToleranceServer(verify.DefaultToleranceWindow(), nil))
	require.NoError(t, c.Verify(context.Background(), 80))
	require.NoError(t, c.Verify(context.Background(), 76))
}

func TestVerifyRejected(t *testing.T) {
	c := startServer(t, NewToleranceServer(verify.DefaultToleranceWindow(), nil))

	err := c.Verify(context.Background(), 50)
	require.Error(t, err)
	require.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestServerRejectsNonFinite(t *testing.T) {
	srv := NewToleranceServer(verify.DefaultToleranceWindow(), nil)

	_, err := srv.Verify(context.Background(), wrapperspb.Double(math.NaN()))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = srv.Verify(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestInterceptorSeesVerify(t *testing.T) {
	var seen atomic.Value
	interceptor := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		seen.Store(info.FullMethod)
		return handler(ctx, req)
	}
	c := startServer(t, NewToleranceServer(verify.DefaultToleranceWindow(), nil), grpc.UnaryInterceptor(interceptor))

	require.NoError(t, c.Verify(context.Background(), 79))
	require.Equal(t, "/slideverify.v1.Verifier/Verify", seen.Load())
}

func TestClientAsDelegatedPredicate(t *testing.T) {
	c := startServer(t, NewToleranceServer(verify.DefaultToleranceWindow(), nil))
	engine, err := verify.NewDelegatedEngine(c.Verify, nil)
	require.NoError(t, err)

	require.Equal(t, verify.OutcomePass, engine.Verify(context.Background(), 81))
	require.Equal(t, verify.OutcomeFail, engine.Verify(context.Background(), 10))
}

func TestClientWrapsTransportError(t *testing.T) {
	boom := errors.New("transport down")
	c := NewClientWithConn(failingConn{err: boom})

	err := c.Verify(context.Background(), 80)
	require.ErrorIs(t, err, boom)
	require.NoError(t, c.Close())
}

// #endregion verify-tests
