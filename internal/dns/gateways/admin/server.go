package admin

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/quaydns/quaydns/internal/dns/common/log"
)

// serviceDesc is the hand-registered grpc.ServiceDesc for AdminService. No
// protoc-generated .pb.go is required: grpc.ForceServerCodec lets a plain
// JSON codec carry these messages instead of protobuf wire bytes.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: "quaydns.admin.AdminService",
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "InsertOrUpdate",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(InsertOrUpdateRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				svc := srv.(*Service)
				if interceptor == nil {
					return svc.InsertOrUpdate(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: svc, FullMethod: "/quaydns.admin.AdminService/InsertOrUpdate"}
				handler := func(ctx context.Context, req any) (any, error) {
					return svc.InsertOrUpdate(ctx, req.(*InsertOrUpdateRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
		{
			MethodName: "Lookup",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(LookupRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				svc := srv.(*Service)
				if interceptor == nil {
					return svc.Lookup(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: svc, FullMethod: "/quaydns.admin.AdminService/Lookup"}
				handler := func(ctx context.Context, req any) (any, error) {
					return svc.Lookup(ctx, req.(*LookupRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/dns/gateways/admin/admin.proto",
}

// Server hosts the admin gRPC service over a TCP listener.
type Server struct {
	addr    string
	logger  log.Logger
	svc     *Service
	grpcSrv *grpc.Server
}

// NewServer constructs a Server. adminToken, when non-empty, enables the
// bearer-token interceptor; empty disables authentication entirely.
func NewServer(addr string, svc *Service, adminToken string, logger log.Logger) *Server {
	opts := []grpc.ServerOption{grpc.ForceServerCodec(jsonCodec{})}
	if adminToken != "" {
		opts = append(opts, grpc.UnaryInterceptor(tokenInterceptor(adminToken)))
	}

	grpcSrv := grpc.NewServer(opts...)
	grpcSrv.RegisterService(&serviceDesc, svc)

	return &Server{addr: addr, logger: logger, svc: svc, grpcSrv: grpcSrv}
}

// Start begins serving the admin RPC on its configured address. It returns
// once the listener is bound; serving continues in a background goroutine.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("admin: failed to bind %s: %w", s.addr, err)
	}

	go func() {
		if err := s.grpcSrv.Serve(lis); err != nil {
			s.logger.Warn(map[string]any{"error": err.Error()}, "admin gRPC server stopped")
		}
	}()

	s.logger.Info(map[string]any{"address": lis.Addr().String()}, "admin RPC server started")
	return nil
}

// Stop gracefully drains in-flight RPCs, then waits for every auto-refresh
// goroutine the service spawned to exit.
func (s *Server) Stop() {
	s.grpcSrv.GracefulStop()
	s.svc.Wait()
}
