package security

import (
	"net"
	"net/http"
	"regexp"
	"strings"
)

// UnknownIP is the sentinel identity used when no client address can be
// derived. It still partitions state deterministically.
const UnknownIP = "unknown"

// ClientIP derives the client identity from proxy headers, first non-empty
// wins: X-Forwarded-For (first comma-separated token), X-Real-IP,
// CF-Connecting-IP, then the transport peer address. The value is used as an
// opaque partition key, so no syntax validation happens here.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	if cfIP := r.Header.Get("CF-Connecting-IP"); cfIP != "" {
		return cfIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return UnknownIP
	}
	return host
}

var localhostAddrs = map[string]struct{}{
	"127.0.0.1": {},
	"::1":       {},
	"localhost": {},
	"0.0.0.0":   {},
}

// IsLocalhost reports whether the IP is a loopback-style address, used for
// the development-mode security exemption.
func IsLocalhost(ip string) bool {
	_, ok := localhostAddrs[ip]
	return ok
}

var (
	ipv4Re = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
	ipv6Re = regexp.MustCompile(`^([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}$`)
)

// IsValidIP reports whether the string looks like a well-formed IP address.
// Only used for display and audit; admission logic treats identities as
// opaque keys.
func IsValidIP(ip string) bool {
	return ipv4Re.MatchString(ip) || ipv6Re.MatchString(ip)
}

// IPFromIdentifier reverses ratelimit.Identifier for IPv4 display.
func IPFromIdentifier(identifier string) string {
	return strings.ReplaceAll(identifier, "_", ".")
}

var htmlEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// SanitizeInput escapes HTML-significant characters in user-supplied text.
func SanitizeInput(input string) string {
	return htmlEscaper.Replace(input)
}

// SplitIPList parses a comma-separated IP list from configuration, dropping
// empty entries.
func SplitIPList(raw string) []string {
	var ips []string
	for _, part := range strings.Split(raw, ",") {
		if ip := strings.TrimSpace(part); ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}
