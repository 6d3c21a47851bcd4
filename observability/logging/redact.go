package logging

import (
	"log/slog"
	"net/url"
	"sort"
	"strings"
)

// RedactedValue replaces sensitive values in logs.
const RedactedValue = "[REDACTED]"

var redactionAllowlist = map[string]struct{}{
	"service":   {},
	"env":       {},
	"message":   {},
	"severity":  {},
	"timestamp": {},
	"error":     {},
	"reason":    {},
	"component": {},
	"network":   {},
	"backend":   {},
	"addr":      {},
	"address":   {},
	"account":   {},
	"operation": {},
	"route":     {},
}

// IsAllowlisted reports whether key may be logged verbatim.
func IsAllowlisted(key string) bool {
	_, ok := redactionAllowlist[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// RedactionAllowlist returns the sorted allowlist.
func RedactionAllowlist() []string {
	keys := make([]string, 0, len(redactionAllowlist))
	for key := range redactionAllowlist {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MaskValue returns the placeholder for non-empty values; empty values stay
// empty so "not configured" remains visible.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField redacts value unless key is allowlisted.
func MaskField(key, value string) slog.Attr {
	if IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, MaskValue(value))
}

// MaskDSN keeps the scheme and host of a connection string but drops
// credentials and query parameters. Values that do not parse as URLs are
// fully masked.
func MaskDSN(key, dsn string) slog.Attr {
	parsed, err := url.Parse(dsn)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return slog.String(key, MaskValue(dsn))
	}
	if parsed.User != nil {
		parsed.User = url.User(RedactedValue)
	}
	parsed.RawQuery = ""
	return slog.String(key, parsed.String())
}
