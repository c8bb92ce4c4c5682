package middleware

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP identifies the caller for rate limiting and request logs.
// The status API normally listens on loopback, but it may sit behind a local
// reverse proxy, so the first valid X-Forwarded-For or X-Real-IP entry wins
// over the socket address.
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")

		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
