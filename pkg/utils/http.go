// Package utils provides common utility functions.
package utils

import (
	"net/http"
	"os"
)

// DefaultUserAgent is sent when a candidate does not set its own.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// BuildHeaders creates HTTP headers with defaults, then applies custom
// headers on top. Values expand ${ENV_VAR} references.
func BuildHeaders(customHeaders map[string]string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", DefaultUserAgent)
	headers.Set("Accept", "application/json, application/xml, text/html;q=0.9, */*;q=0.8")
	headers.Set("Accept-Language", "ko,en;q=0.8")

	for key, value := range customHeaders {
		headers.Set(key, ExpandEnv(value))
	}

	return headers
}

// ExpandEnv replaces ${ENV_VAR} patterns with their values.
func ExpandEnv(s string) string {
	return os.Expand(s, os.Getenv)
}
