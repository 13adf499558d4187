package normalizer

import (
	"errors"
	"fmt"

	"github.com/SHSHJW/top10-daily/internal/models"
)

// Validation errors.
var (
	ErrTooManyItems = errors.New("normalized list exceeds the item limit")
	ErrRankSequence = errors.New("ranks are not 1..n in order")
)

// Validator checks the normalized output before it leaves the package.
type Validator struct {
	maxItems int
}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{maxItems: models.MaxItems}
}

// Validate checks the list length and rank sequence.
func (v *Validator) Validate(items []models.CanonicalItem) error {
	if len(items) > v.maxItems {
		return fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(items), v.maxItems)
	}

	for i, item := range items {
		if item.Rank != i+1 {
			return fmt.Errorf("%w: index %d has rank %d", ErrRankSequence, i, item.Rank)
		}
	}

	return nil
}
