// Package hostutil validates host names and host:port pairs taken from
// configuration.
package hostutil

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

var ErrBadHost = errors.New("bad host")

// ValidateHost accepts an IPv4/IPv6 literal (brackets optional) or an RFC 1123
// host name.
func ValidateHost(raw string) error {
	h := strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
	if strings.Contains(h, ":") {
		if addr, err := netip.ParseAddr(h); err != nil || !addr.Is6() {
			return fmt.Errorf("%w: bad IPv6 %q", ErrBadHost, raw)
		}
		return nil
	}
	if looksNumeric(h) {
		if addr, err := netip.ParseAddr(h); err != nil || !addr.Is4() {
			return fmt.Errorf("%w: bad IPv4 %q", ErrBadHost, raw)
		}
		return nil
	}
	if !validHostname(h) {
		return fmt.Errorf("%w: bad hostname %q", ErrBadHost, raw)
	}
	return nil
}

// ValidateHostPort checks "host:port" as used for Redis and listen addresses.
// An empty host means all interfaces.
func ValidateHostPort(raw string) error {
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadHost, err)
	}
	if p, err := strconv.Atoi(port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("%w: bad port in %q", ErrBadHost, raw)
	}
	if host == "" {
		return nil
	}
	return ValidateHost(host)
}

// dotted digits only, e.g. "10.0.0.300"
func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

func validHostname(s string) bool {
	if s == "" || len(s) > 253 {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if len(label) < 1 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			ok := r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			if !ok {
				return false
			}
		}
	}
	return true
}
