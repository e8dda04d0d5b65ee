package qr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Substrings that indicate script injection or a dangerous protocol. Matched
// case-insensitively against the whole raw input, not just the scheme, so
// nested payloads like "https://x/?q=javascript:..." are caught too.
var unsafePatterns = []string{
	"javascript:",
	"data:",
	"vbscript:",
	"onload=",
	"onerror=",
	"onclick=",
	"onmouseover=",
	"<script",
}

// sanitizeURL validates a destination URL for scannable content. The input
// must already carry a scheme.
func sanitizeURL(raw string) (*url.URL, error) {
	lower := strings.ToLower(raw)
	for _, pattern := range unsafePatterns {
		if strings.Contains(lower, pattern) {
			return nil, fmt.Errorf("%w: pattern %q not allowed", ErrUnsafeContent, pattern)
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q not allowed", ErrUnsafeContent, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("%w: url has no host", ErrInvalidFormat)
	}
	if isPrivateHost(host) {
		return nil, fmt.Errorf("%w: host %q not allowed", ErrUnsafeContent, host)
	}

	return u, nil
}

func isPrivateHost(host string) bool {
	if host == "localhost" || host == "0.0.0.0" || host == "::1" {
		return true
	}
	if strings.HasPrefix(host, "127.") ||
		strings.HasPrefix(host, "10.") ||
		strings.HasPrefix(host, "192.168.") {
		return true
	}
	// 172.16.0.0 - 172.31.255.255
	if strings.HasPrefix(host, "172.") {
		parts := strings.Split(host, ".")
		if len(parts) == 4 {
			if octet, err := strconv.Atoi(parts[1]); err == nil && octet >= 16 && octet <= 31 {
				return true
			}
		}
	}
	return false
}
