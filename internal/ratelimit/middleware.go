package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
)

const tooManyRequestsBody = `{"error":"Too many requests, please try again later."}` + "\n"

// ClientIP keys requests by remote address. Put chi's RealIP middleware in
// front when running behind a proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware rejects requests over budget with 429 and reports the budget
// in RateLimit-Limit and RateLimit-Remaining.
func Middleware(l *Limiter, key func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			w.Header().Set("RateLimit-Limit", strconv.Itoa(l.config.Requests))
			if !l.Allow(k) {
				retry := int(math.Ceil(l.RetryAfter().Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(retry, 1)))
				w.Header().Set("RateLimit-Remaining", "0")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(tooManyRequestsBody))
				return
			}
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(l.Remaining(k)))
			next.ServeHTTP(w, r)
		})
	}
}
