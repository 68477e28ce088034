package grpccodec

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"xdao.co/codec/codecerr"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the package logger. It is a no-op logger by default.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	logger.CompareAndSwap(nil, zap.NewNop())
	return logger.Load()
}

// SetLogger replaces the package logger. A nil logger restores the no-op
// default. Safe to call while requests are in flight.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}

// UnaryLoggingInterceptor logs every Codec RPC with its outcome and latency.
// Codec failures are logged at Info since they describe bad client input.
func UnaryLoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod[strings.LastIndexByte(info.FullMethod, '/')+1:]),
			zap.Duration("latency", time.Since(start)),
			zap.String("code", status.Code(err).String()),
		}
		if err == nil {
			log.Debug("codec rpc", fields...)
			return resp, nil
		}
		if ce := fromStatus(err); codecerr.KindOf(ce) != "" {
			fields = append(fields, zap.String("kind", string(codecerr.KindOf(ce))), zap.String("rule_id", codecerr.RuleID(ce)))
			log.Info("codec rpc rejected", fields...)
			return resp, err
		}
		log.Warn("codec rpc failed", append(fields, zap.Error(err))...)
		return resp, err
	}
}
