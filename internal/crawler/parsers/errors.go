// Package parsers decodes raw response bodies into generic trees and
// locates the ranked item list inside them.
package parsers

import (
	"errors"
	"fmt"
	"strings"
)

// DecodeReason classifies why a body could not be decoded.
type DecodeReason string

// Decode failure reasons.
const (
	ReasonInvalidJSON    DecodeReason = "invalid-json"
	ReasonHTMLBlockPage  DecodeReason = "html-block-page"
	ReasonNoEmbeddedJSON DecodeReason = "no-embedded-json"
	ReasonInvalidXML     DecodeReason = "invalid-xml"
	ReasonEmptyBody      DecodeReason = "empty-body"
)

// ErrUnsupportedFormat is returned for a format the decoder does not know.
var ErrUnsupportedFormat = errors.New("unsupported format")

// DecodeError means the body did not match the candidate's format.
type DecodeError struct {
	Err    error
	Reason DecodeReason
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return "decode: " + string(e.Reason)
	}

	return fmt.Sprintf("decode: %s: %v", e.Reason, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ShapeError means the body decoded but no item list could be located.
type ShapeError struct {
	Path string
	Keys []string
}

func (e *ShapeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("shape: no array at %q or under keys [%s]", e.Path, strings.Join(e.Keys, ", "))
	}

	return fmt.Sprintf("shape: no array under keys [%s]", strings.Join(e.Keys, ", "))
}
