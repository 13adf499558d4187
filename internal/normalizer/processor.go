// Package normalizer maps raw source items onto the canonical item shape.
package normalizer

import (
	"fmt"

	"github.com/SHSHJW/top10-daily/internal/models"
)

// Processor handles data processing and transformation.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a new processor instance.
func NewProcessor() *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(),
	}
}

// Process normalizes the raw items of one candidate, applying its field
// overrides and resolving relative links against its URL.
func (p *Processor) Process(raw []any, c models.SourceCandidate) ([]models.CanonicalItem, error) {
	fields := ResolveFields(c.Format, c.Fields)

	items := p.transformer.Transform(raw, fields, c.URL)

	if err := p.validator.Validate(items); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return items, nil
}
