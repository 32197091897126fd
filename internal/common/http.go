package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address used for per-client limits. The router
// runs chi's RealIP first, so RemoteAddr already reflects trusted forwarding
// headers. Unparseable addresses collapse to "unknown".
func ClientIP(r *http.Request) string {
	if r == nil {
		return "unknown"
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return "unknown"
	}
	return ip.String()
}
