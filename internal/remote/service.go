package remote

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The verifier service uses well-known protobuf types only, so no generated
// code is needed:
//
//	service Verifier {
//	  rpc Verify(google.protobuf.DoubleValue) returns (google.protobuf.Empty);
//	}
//
// An OK status is a pass; any error status is a rejection.
const (
	ServiceName      = "slideverify.v1.Verifier"
	verifyFullMethod = "/" + ServiceName + "/Verify"
)

// #region server-interface
// VerifierServer is the server API for the Verifier service.
type VerifierServer interface {
	Verify(ctx context.Context, offset *wrapperspb.DoubleValue) (*emptypb.Empty, error)
}

// RegisterVerifierServer registers srv on s.
func RegisterVerifierServer(s grpc.ServiceRegistrar, srv VerifierServer) {
	s.RegisterService(&verifierServiceDesc, srv)
}

// #endregion server-interface

// #region service-desc
var verifierServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VerifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Verify",
			Handler:    verifyHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "slideverify/v1/verifier.proto",
}

func verifyHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.DoubleValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VerifierServer).Verify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: verifyFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(VerifierServer).Verify(ctx, req.(*wrapperspb.DoubleValue))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion service-desc
