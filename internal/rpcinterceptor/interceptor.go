// Package rpcinterceptor provides gRPC unary server interceptors for
// request-ID tagging, structured access logging and panic recovery,
// grounded on the teacher's api-gateway HTTP middleware chain
// (RequestID, Logging, Recovery) but rebuilt against
// google.golang.org/grpc.UnaryServerInterceptor.
package rpcinterceptor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

// RequestIDKey is the context key the request ID is stored under.
const RequestIDKey contextKey = "request_id"

const requestIDMetadataKey = "x-request-id"

// RequestID returns an interceptor that stamps every call with a request
// ID, reusing one supplied by the caller via metadata if present.
func RequestID() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(requestIDMetadataKey); len(vals) > 0 {
				id = vals[0]
			}
		}
		if id == "" {
			id = uuid.New().String()
		}
		ctx = context.WithValue(ctx, RequestIDKey, id)
		return handler(ctx, req)
	}
}

// RequestIDFromContext extracts the request ID stamped by RequestID, or ""
// if none is present.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Logging returns an interceptor that logs method, duration, status code
// and request ID for every unary call.
func Logging(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("request_id", RequestIDFromContext(ctx)),
			zap.Duration("duration", duration),
			zap.String("code", code.String()),
		}
		if err != nil {
			log.Warn("grpc request failed", append(fields, zap.Error(err))...)
		} else {
			log.Info("grpc request", fields...)
		}
		return resp, err
	}
}

// Recovery returns an interceptor that converts a panic in handler into a
// codes.Internal error instead of crashing the process.
func Recovery(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered in grpc handler",
					zap.Any("panic", r),
					zap.String("method", info.FullMethod),
					zap.String("request_id", RequestIDFromContext(ctx)))
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}
