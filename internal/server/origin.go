package server

import (
	"log/slog"
	"net/http"
	"net/url"
)

// NewCheckOrigin returns the Origin check used when upgrading WebSocket
// connections. Requests without an Origin header (non-browser clients)
// and requests from listed origins are accepted. In development,
// localhost origins are additionally accepted so a frontend dev server
// can connect.
func NewCheckOrigin(allowed []string, isDevelopment bool) func(r *http.Request) bool {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		allowedSet[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		if origin == "" {
			return true
		}

		if _, ok := allowedSet[origin]; ok {
			return true
		}

		if isDevelopment && isLocalhostOrigin(origin) {
			return true
		}

		slog.Warn("WebSocket origin rejected", "origin", origin, "remote_addr", r.RemoteAddr)
		return false
	}
}

func isLocalhostOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}
