package middleware

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"beam/message"
)

// RetryMiddleware re-dispatches a Request up to maxRetries times when
// its handler's exception looks transient (timeout or connection
// refused), with exponential backoff between attempts.
func RetryMiddleware(logger *zap.Logger, maxRetries int, baseDelay time.Duration) Middleware {
	logger = logger.Named("middleware.retry")
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			resp := next(ctx, req)
			for i := 0; i < maxRetries; i++ {
				if !resp.IsException {
					return resp
				}
				if !strings.Contains(resp.ExceptionMsg, "timeout") && !strings.Contains(resp.ExceptionMsg, "connection refused") {
					return resp
				}
				logger.Info("retrying",
					zap.Int("attempt", i+1),
					zap.String("method", req.Method),
					zap.String("exception", resp.ExceptionMsg))
				time.Sleep(baseDelay * time.Duration(1<<i))
				resp = next(ctx, req)
			}
			return resp
		}
	}
}
