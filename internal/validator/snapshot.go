// Package validator checks snapshot documents against the output contract.
package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SHSHJW/top10-daily/internal/models"
)

// Validation errors.
var (
	ErrMissingUpdatedAt = errors.New("updatedAt is required")
	ErrInvalidTimestamp = errors.New("updatedAt is not an RFC3339 timestamp")
	ErrMissingItems     = errors.New("items is required")
	ErrTooManyItems     = errors.New("too many items")
	ErrRankSequence     = errors.New("rank out of sequence")
	ErrMalformedJSON    = errors.New("snapshot is not valid JSON")
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Err     error
	Field   string
	Value   string
	Message string
	Index   int // item index, -1 for document fields
}

func (e ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("items[%d].%s: %s", e.Index, e.Field, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error { return e.Err }

// ValidationResult contains validation results.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
	Stats    ValidationStats
	IsValid  bool
}

// ValidationStats contains validation statistics.
type ValidationStats struct {
	TotalItems        int
	ItemsMissingTitle int
	ItemsMissingURL   int
}

// Err returns the first error, or nil when the document is valid.
func (r *ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}

	return r.Errors[0]
}

func (r *ValidationResult) addError(e ValidationError) {
	r.Errors = append(r.Errors, e)
	r.IsValid = false
}

// ValidateSnapshot checks the timestamp, the item limit and the rank
// sequence. Empty titles and links are warnings.
func ValidateSnapshot(s *models.Snapshot) *ValidationResult {
	result := &ValidationResult{
		IsValid:  true,
		Errors:   []ValidationError{},
		Warnings: []string{},
	}

	if s == nil {
		result.addError(ValidationError{Field: "snapshot", Message: "missing", Err: ErrMissingItems, Index: -1})

		return result
	}

	if s.UpdatedAt == "" {
		result.addError(ValidationError{Field: "updatedAt", Message: "missing", Err: ErrMissingUpdatedAt, Index: -1})
	} else if _, err := time.Parse(time.RFC3339Nano, s.UpdatedAt); err != nil {
		result.addError(ValidationError{
			Field: "updatedAt", Value: s.UpdatedAt, Message: err.Error(), Err: ErrInvalidTimestamp, Index: -1,
		})
	}

	validateItems(s.Items, result)

	return result
}

// ValidateItems checks an item list on its own.
func ValidateItems(items []models.CanonicalItem) *ValidationResult {
	result := &ValidationResult{IsValid: true, Errors: []ValidationError{}, Warnings: []string{}}
	validateItems(items, result)

	return result
}

func validateItems(items []models.CanonicalItem, result *ValidationResult) {
	result.Stats.TotalItems = len(items)

	if len(items) > models.MaxItems {
		result.addError(ValidationError{
			Field:   "items",
			Value:   strconv.Itoa(len(items)),
			Message: fmt.Sprintf("at most %d items allowed", models.MaxItems),
			Err:     ErrTooManyItems,
			Index:   -1,
		})
	}

	for i, item := range items {
		if item.Rank != i+1 {
			result.addError(ValidationError{
				Field:   "rank",
				Value:   strconv.Itoa(item.Rank),
				Message: fmt.Sprintf("expected %d", i+1),
				Err:     ErrRankSequence,
				Index:   i,
			})
		}

		if item.Title == "" {
			result.Stats.ItemsMissingTitle++
			result.Warnings = append(result.Warnings, fmt.Sprintf("items[%d] has an empty title", i))
		}

		if item.URL == "" {
			result.Stats.ItemsMissingURL++
		}
	}

	if result.Stats.ItemsMissingURL > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d of %d items have no url", result.Stats.ItemsMissingURL, len(items)))
	}
}

// rawSnapshot distinguishes absent keys from zero values.
type rawSnapshot struct {
	UpdatedAt *string                 `json:"updatedAt"`
	Items     *[]models.CanonicalItem `json:"items"`
}

// ParseSnapshot decodes and validates snapshot bytes. The snapshot is
// returned whenever the JSON itself decoded, even if it is invalid.
func ParseSnapshot(data []byte) (*models.Snapshot, *ValidationResult) {
	result := &ValidationResult{IsValid: true, Errors: []ValidationError{}, Warnings: []string{}}

	var raw rawSnapshot

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		result.addError(ValidationError{Field: "snapshot", Message: err.Error(), Err: ErrMalformedJSON, Index: -1})

		return nil, result
	}

	if raw.Items == nil {
		result.addError(ValidationError{Field: "items", Message: "missing", Err: ErrMissingItems, Index: -1})
	}

	s := &models.Snapshot{}
	if raw.UpdatedAt != nil {
		s.UpdatedAt = *raw.UpdatedAt
	}

	if raw.Items != nil {
		s.Items = *raw.Items
	}

	checked := ValidateSnapshot(s)
	result.Errors = append(result.Errors, checked.Errors...)
	result.Warnings = append(result.Warnings, checked.Warnings...)
	result.Stats = checked.Stats
	result.IsValid = len(result.Errors) == 0

	return s, result
}
