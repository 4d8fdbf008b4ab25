package middleware

import (
	"net/http"
	"sync/atomic"
)

// LimitConcurrent allows at most n requests through at once. Excess requests
// get 503 and onReject is called, if set. n <= 0 disables the limit.
func LimitConcurrent(n int, onReject func(r *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if n <= 0 {
			return next
		}
		sem := make(chan struct{}, n)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
				next.ServeHTTP(w, r)
			default:
				if onReject != nil {
					onReject(r)
				}
				w.Header().Set("Retry-After", "5")
				http.Error(w, "too many concurrent streams", http.StatusServiceUnavailable)
			}
		})
	}
}

// InFlight counts requests currently being served.
func InFlight(counter *atomic.Int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			counter.Add(1)
			defer counter.Add(-1)
			next.ServeHTTP(w, r)
		})
	}
}
