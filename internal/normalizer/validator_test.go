package normalizer

import (
	"errors"
	"testing"

	"github.com/SHSHJW/top10-daily/internal/models"
)

func rankedItems(n int) []models.CanonicalItem {
	items := make([]models.CanonicalItem, n)
	for i := range items {
		items[i] = models.CanonicalItem{Rank: i + 1, Title: "t"}
	}

	return items
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(nil); err != nil {
		t.Errorf("Expected empty list to be valid, got %v", err)
	}

	if err := v.Validate(rankedItems(models.MaxItems)); err != nil {
		t.Errorf("Expected %d items to be valid, got %v", models.MaxItems, err)
	}

	if err := v.Validate(rankedItems(models.MaxItems + 1)); !errors.Is(err, ErrTooManyItems) {
		t.Errorf("Expected ErrTooManyItems, got %v", err)
	}

	gap := rankedItems(3)
	gap[2].Rank = 4

	if err := v.Validate(gap); !errors.Is(err, ErrRankSequence) {
		t.Errorf("Expected ErrRankSequence, got %v", err)
	}
}
