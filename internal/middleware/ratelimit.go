package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

type bucket struct {
	count int
	until time.Time
}

// Rejections elsewhere are localized in the handler layer; the limiter
// answers before any handler runs, so it carries its own copies.
var rateLimitMessages = map[string]string{
	"en": "rate limit exceeded",
	"id": "terlalu banyak permintaan",
}

// ParseRateRule parses rules of the form "10/minute", "100/hour" or
// "5/second" into a count and a window.
func ParseRateRule(rule string) (int, time.Duration, error) {
	parts := strings.SplitN(strings.TrimSpace(rule), "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("rate rule %q: want count/period", rule)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || limit <= 0 {
		return 0, 0, fmt.Errorf("rate rule %q: bad count", rule)
	}
	var per time.Duration
	switch strings.ToLower(strings.TrimSpace(parts[1])) {
	case "second":
		per = time.Second
	case "minute":
		per = time.Minute
	case "hour":
		per = time.Hour
	case "day":
		per = 24 * time.Hour
	default:
		return 0, 0, fmt.Errorf("rate rule %q: bad period", rule)
	}
	return limit, per, nil
}

// RateLimit applies a fixed-window per-client-IP limit. Windows reset
// wholesale when they expire; precision is traded for a single mutex and
// map.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	var mu sync.Mutex
	buckets := make(map[string]*bucket)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIPForRateLimit(r)
			mu.Lock()
			b, ok := buckets[ip]
			now := time.Now()
			if !ok || now.After(b.until) {
				b = &bucket{count: 0, until: now.Add(per)}
				buckets[ip] = b
			}
			if b.count >= limit {
				retryAfter := int(time.Until(b.until).Seconds()) + 1
				mu.Unlock()
				msg, ok := rateLimitMessages[LocaleFromContext(r.Context())]
				if !ok {
					msg = rateLimitMessages["en"]
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, `{"error":{"code":"rate_limited","message":%q}}`, msg)
				return
			}
			b.count++
			mu.Unlock()
			next.ServeHTTP(w, r)
		})
	}
}

func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
