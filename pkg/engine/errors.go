package engine

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Sentinel errors for engine operations. Expected failures never cross the
// engine's public operations as errors; they surface as messages on a
// finished CallResult. These sentinels exist for collaborators and tests.
var (
	// ErrNoProvider indicates the request names no resolvable provider.
	ErrNoProvider = errors.New("no provider configured")

	// ErrEmptyResponse indicates a provider returned neither a result nor
	// an error.
	ErrEmptyResponse = errors.New("provider returned no result")

	// ErrNoToolResult indicates a tool runner returned neither a result nor
	// an error.
	ErrNoToolResult = errors.New("tool returned no result")
)

// IsNetworkError reports whether err is a connectivity-class failure (DNS,
// refused connections, unreachable hosts) as opposed to a provider-side
// failure. Context cancellation and deadline expiry are not network errors;
// they surface as provider-origin outcomes.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"host is unreachable",
		"broken pipe",
		"dns",
		"tls handshake",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
