package pipeline

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError reports malformed input: missing fields, bad URL
// schemes, or hosts the service must not fetch from.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks a request before any network or disk work starts.
func (r Request) Validate() error {
	if r.SourceURL == "" && r.LocalPath == "" {
		return &ValidationError{Field: "source", Reason: "either url or file is required"}
	}
	if r.SourceURL != "" && r.LocalPath != "" {
		return &ValidationError{Field: "source", Reason: "url and file are mutually exclusive"}
	}
	if r.SourceURL != "" {
		if err := validateSourceURL(r.SourceURL); err != nil {
			return err
		}
	}
	return nil
}

// validateSourceURL enforces http(s)-only schemes and rejects loopback and
// private hosts so the acquirer cannot be pointed at internal services.
func validateSourceURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "url", Reason: "not a valid URL"}
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return &ValidationError{Field: "url", Reason: fmt.Sprintf("scheme %q not allowed", u.Scheme)}
	}

	host := u.Hostname()
	if host == "" {
		return &ValidationError{Field: "url", Reason: "missing host"}
	}
	if strings.EqualFold(host, "localhost") {
		return &ValidationError{Field: "url", Reason: "loopback host not allowed"}
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			return &ValidationError{Field: "url", Reason: "private or loopback address not allowed"}
		}
	}
	return nil
}
