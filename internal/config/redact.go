package config

import (
	"net/url"
	"strings"
)

// RedactURL replaces the password in a connection URL with "***".
// If the URL cannot be parsed or has no password, it is returned unchanged.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}

	if _, hasPassword := u.User.Password(); !hasPassword {
		return raw
	}

	return strings.Replace(u.Redacted(), ":xxxxx@", ":***@", 1)
}

// RedactSecret hides a credential entirely, keeping only whether it is set.
func RedactSecret(s string) string {
	if s == "" {
		return ""
	}

	return "***"
}
