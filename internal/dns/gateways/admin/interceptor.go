package admin

import (
	"context"

	"github.com/golang-jwt/jwt/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// tokenInterceptor returns a unary server interceptor requiring a valid
// bearer token signed with secret on every call: pull "authorization" from
// incoming metadata, strip the "Bearer " prefix, parse and verify.
func tokenInterceptor(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		tokens := md.Get("authorization")
		if len(tokens) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization token")
		}

		raw := tokens[0]
		const prefix = "Bearer "
		if len(raw) > len(prefix) && raw[:len(prefix)] == prefix {
			raw = raw[len(prefix):]
		}

		_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, status.Error(codes.Unauthenticated, "unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid admin token")
		}

		return handler(ctx, req)
	}
}
