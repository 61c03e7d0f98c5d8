// Package privacy provides helpers for keeping personal data out of logs.
// Consent records are themselves personal data, so anything the service logs
// about a caller or a data subject goes through these helpers first.
package privacy

import (
	"fmt"
	"net"
	"strings"
)

// AnonymizeIP truncates an IP address so it no longer identifies a host.
//
// IPv4 addresses lose the last octet ("192.168.1.47" -> "192.168.1.0").
// IPv6 addresses keep only the /48 prefix. A trailing port, as found in
// http.Request.RemoteAddr, is stripped before parsing.
//
// Returns "invalid" for unparseable input and "unknown" for empty input.
func AnonymizeIP(addr string) string {
	if addr == "" || addr == "unknown" {
		return "unknown"
	}

	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	parsed := net.ParseIP(addr)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	// IPv6: keep the first 6 bytes, the /48 prefix.
	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

// MaskUserID masks a subject identifier for logging, keeping only the last
// two characters. Identifiers of four characters or fewer are fully masked.
func MaskUserID(id string) string {
	if id == "" {
		return ""
	}
	runes := []rune(id)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-2:])
}
