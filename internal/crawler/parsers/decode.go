package parsers

import (
	"fmt"

	"github.com/SHSHJW/top10-daily/internal/models"
)

// Decode turns a raw body into a generic tree according to the format.
// Every failure is a *DecodeError.
func Decode(body string, format models.Format, scriptID string) (any, error) {
	switch format {
	case models.FormatJSONAPI:
		return DecodeJSON(body)
	case models.FormatRSS, models.FormatAtom:
		return DecodeXML(body)
	case models.FormatJSONInHTML:
		return DecodeEmbeddedJSON(body, scriptID)
	}

	return nil, &DecodeError{Reason: ReasonInvalidJSON, Err: fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)}
}
