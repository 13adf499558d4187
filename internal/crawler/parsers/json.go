package parsers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// xssiPrefix guards some JSON endpoints against script inclusion.
const xssiPrefix = ")]}'"

// leadingSpace is skipped before sniffing a body, byte order mark included.
const leadingSpace = "\ufeff \t\r\n"

var errTrailingData = errors.New("trailing data after JSON value")

// StripXSSI removes a leading anti-XSSI guard line, if present.
func StripXSSI(body string) string {
	trimmed := strings.TrimLeft(body, leadingSpace)
	if !strings.HasPrefix(trimmed, xssiPrefix) {
		return body
	}

	rest := strings.TrimPrefix(trimmed, xssiPrefix)
	rest = strings.TrimPrefix(rest, ",")

	return strings.TrimLeft(rest, " \t\r\n")
}

// LooksLikeHTML reports whether the body starts like a markup page.
func LooksLikeHTML(body string) bool {
	trimmed := strings.TrimLeft(body, leadingSpace)

	return strings.HasPrefix(trimmed, "<")
}

// DecodeJSON parses a JSON API body. Numbers are kept as json.Number.
func DecodeJSON(body string) (any, error) {
	if strings.TrimSpace(body) == "" {
		return nil, &DecodeError{Reason: ReasonEmptyBody}
	}

	if LooksLikeHTML(body) {
		return nil, &DecodeError{Reason: ReasonHTMLBlockPage}
	}

	return parseJSON(StripXSSI(body))
}

func parseJSON(text string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &DecodeError{Reason: ReasonInvalidJSON, Err: err}
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Reason: ReasonInvalidJSON, Err: errTrailingData}
	}

	return v, nil
}
