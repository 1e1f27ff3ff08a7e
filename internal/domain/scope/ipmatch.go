package scope

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// IPAllowed reports whether clientIP is permitted by the restriction
// list. Entries are either single addresses (exact match) or CIDR
// ranges (containment). Malformed entries are skipped, not fatal. An
// empty list allows everything; an unparseable client address against
// a non-empty list denies.
func IPAllowed(clientIP string, restrictions []string) bool {
	if len(restrictions) == 0 {
		return true
	}

	addr, err := netip.ParseAddr(clientIP)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, restriction := range restrictions {
		if strings.Contains(restriction, "/") {
			prefix, err := netip.ParsePrefix(restriction)
			if err != nil {
				continue
			}
			if prefix.Masked().Contains(addr) {
				return true
			}
			continue
		}
		single, err := netip.ParseAddr(restriction)
		if err != nil {
			continue
		}
		if single.Unmap() == addr {
			return true
		}
	}
	return false
}

// ClientIP computes the effective client address for a request:
// first hop of X-Forwarded-For, then X-Real-IP, then the socket
// address.
func ClientIP(headers http.Header, remoteAddr string) string {
	if fwd := headers.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if real := headers.Get("X-Real-IP"); real != "" {
		return real
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
