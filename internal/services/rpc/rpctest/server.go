// Package rpctest runs in-process gRPC servers for client tests.
package rpctest

import (
	"context"
	"net"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Handler answers one unary call carrying raw bytes.
type Handler func(ctx context.Context, req *wrapperspb.BytesValue) (*structpb.Struct, error)

// Serve starts a server on a loopback port exposing method (a full
// "/pkg.Service/Method" name) and the health service. It returns the address.
func Serve(t *testing.T, method string, handler Handler) string {
	t.Helper()

	service, name := splitMethod(t, method)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := grpc.NewServer()
	srv.RegisterService(&grpc.ServiceDesc{
		ServiceName: service,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{{
			MethodName: name,
			Handler: func(_ any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				req := &wrapperspb.BytesValue{}
				if err := dec(req); err != nil {
					return nil, err
				}
				return handler(ctx, req)
			},
		}},
	}, struct{}{})

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return lis.Addr().String()
}

func splitMethod(t *testing.T, method string) (string, string) {
	t.Helper()
	trimmed := strings.TrimPrefix(method, "/")
	i := strings.LastIndex(trimmed, "/")
	if i <= 0 {
		t.Fatalf("malformed method %q", method)
	}
	return trimmed[:i], trimmed[i+1:]
}
