package middleware

import "net/http"

// Sweepable is what the retention sweeper exposes to request handling.
type Sweepable interface {
	MaybeSweep()
}

// Sweep triggers an opportunistic retention sweep at the start of request
// handling. The sweeper itself enforces the once-per-interval policy, so
// this is cheap on the hot path.
func Sweep(s Sweepable) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.MaybeSweep()
			next.ServeHTTP(w, r)
		})
	}
}
