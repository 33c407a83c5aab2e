package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"beam/message"
)

// LoggingMiddleware records the method, duration, and any exception for
// each dispatched Request, through the same *zap.Logger every other
// package in this module logs with.
//
// Example output:
//
//	DEBUG  dispatched  {"method": "Arith.Add", "duration": "42µs"}
func LoggingMiddleware(logger *zap.Logger) Middleware {
	logger = logger.Named("middleware.logging")
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			start := time.Now()
			resp := next(ctx, req)
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.Duration("duration", time.Since(start)),
			}
			if resp != nil && resp.IsException {
				logger.Warn("dispatched", append(fields, zap.String("exception", resp.ExceptionMsg))...)
			} else {
				logger.Debug("dispatched", fields...)
			}
			return resp
		}
	}
}
