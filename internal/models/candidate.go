// Package models defines the data structures shared by the fetch, normalize and persist stages.
package models

import (
	"fmt"
	"strings"
)

// Format tags how a candidate's response body must be decoded.
type Format string

// Supported response formats.
const (
	FormatJSONAPI    Format = "json_api"
	FormatRSS        Format = "rss"
	FormatAtom       Format = "atom"
	FormatJSONInHTML Format = "json_in_html"
)

// ParseFormat converts a config string into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSONAPI, FormatRSS, FormatAtom, FormatJSONInHTML:
		return f, nil
	}

	return "", fmt.Errorf("unknown format %q", s)
}

// IsXML reports whether the format is decoded as an element tree.
func (f Format) IsXML() bool {
	return f == FormatRSS || f == FormatAtom
}

// IsJSON reports whether the format is decoded as a JSON value.
func (f Format) IsJSON() bool {
	return f == FormatJSONAPI || f == FormatJSONInHTML
}

// FieldPaths lists, per canonical field, the raw paths tried in order.
// Empty lists fall back to the format defaults.
type FieldPaths struct {
	Title    []string `yaml:"title" json:"title,omitempty"`
	URL      []string `yaml:"url" json:"url,omitempty"`
	Traffic  []string `yaml:"traffic" json:"traffic,omitempty"`
	Snippet  []string `yaml:"snippet" json:"snippet,omitempty"`
	Icon     []string `yaml:"icon" json:"icon,omitempty"`
	Category []string `yaml:"category" json:"category,omitempty"`
}

// SourceCandidate is one way to reach the upstream ranked list.
// Candidates are immutable once built; slice order is priority.
type SourceCandidate struct {
	Headers map[string]string
	Fields  FieldPaths

	Name     string
	URL      string // template: {date}, {api_key}
	Format   Format
	ItemPath string   // dot path to the items array, tried before ItemKeys
	ItemKeys []string // key names handed to the tree searcher
	ScriptID string   // json_in_html only
	APIKey   string   // substituted for {api_key}

	DateOffsetDays int
	CacheBust      bool
}

// DatePlaceholder marks a date-shiftable URL template.
const DatePlaceholder = "{date}"

// APIKeyPlaceholder is replaced with the candidate's API key.
const APIKeyPlaceholder = "{api_key}"

// DateShiftable reports whether the URL template carries a date parameter.
func (c SourceCandidate) DateShiftable() bool {
	return strings.Contains(c.URL, DatePlaceholder)
}
