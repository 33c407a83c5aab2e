package middleware

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/time/rate"

	"beam/auth"
	"beam/message"
)

// RateLimitMiddleware token-bucket limits dispatched Requests. Every
// caller sharing the same key (by default the connection's
// authenticated account id, or "anonymous" for a not-yet-authenticated
// connection) draws from one bucket, so one noisy account can't starve
// another sharing the same servlet process — a plain process-global
// bucket would let one account's burst exhaust every other account's
// share.
//
// r is the refill rate in tokens per second, burst the bucket size.
func RateLimitMiddleware(r float64, burst int) Middleware {
	return RateLimitMiddlewareByKey(r, burst, accountKey)
}

// RateLimitMiddlewareByKey is RateLimitMiddleware with the bucket key
// derived from keyFunc instead of the caller's account id — e.g. a
// fixed key to fall back to the original process-global behavior, or
// the connection's endpoint id for limiting pre-handshake traffic.
func RateLimitMiddlewareByKey(r float64, burst int, keyFunc func(ctx context.Context) string) Middleware {
	var mu sync.Mutex
	buckets := make(map[string]*rate.Limiter)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := buckets[key]
		if !ok {
			l = rate.NewLimiter(rate.Limit(r), burst)
			buckets[key] = l
		}
		return l
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			if !limiterFor(keyFunc(ctx)).Allow() {
				return &message.Response{
					RequestID:    req.RequestID,
					IsException:  true,
					ExceptionMsg: "rate limit exceeded",
				}
			}
			return next(ctx, req)
		}
	}
}

func accountKey(ctx context.Context) string {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		return "anonymous"
	}
	return strconv.FormatInt(session.AccountID(), 10)
}
