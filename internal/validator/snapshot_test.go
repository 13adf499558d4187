package validator

import (
	"errors"
	"testing"
	"time"

	"github.com/SHSHJW/top10-daily/internal/models"
)

func items(n int) []models.CanonicalItem {
	out := make([]models.CanonicalItem, n)
	for i := range out {
		out[i] = models.CanonicalItem{Rank: i + 1, Title: "t", URL: "https://e"}
	}

	return out
}

func TestValidateSnapshot_Valid(t *testing.T) {
	s := models.NewSnapshot(time.Now(), items(10))

	result := ValidateSnapshot(s)
	if !result.IsValid {
		t.Fatalf("Expected valid snapshot, got errors: %v", result.Errors)
	}

	if result.Stats.TotalItems != 10 {
		t.Errorf("Expected 10 items counted, got %d", result.Stats.TotalItems)
	}

	if len(result.Warnings) != 0 {
		t.Errorf("Unexpected warnings: %v", result.Warnings)
	}
}

func TestValidateSnapshot_Errors(t *testing.T) {
	tests := []struct {
		snap *models.Snapshot
		want error
		name string
	}{
		{name: "missing timestamp", snap: &models.Snapshot{Items: items(1)}, want: ErrMissingUpdatedAt},
		{name: "bad timestamp", snap: &models.Snapshot{UpdatedAt: "yesterday", Items: items(1)}, want: ErrInvalidTimestamp},
		{name: "too many", snap: models.NewSnapshot(time.Now(), items(11)), want: ErrTooManyItems},
		{
			name: "rank gap",
			snap: models.NewSnapshot(time.Now(), []models.CanonicalItem{{Rank: 1, Title: "a"}, {Rank: 3, Title: "b"}}),
			want: ErrRankSequence,
		},
		{
			name: "duplicate rank",
			snap: models.NewSnapshot(time.Now(), []models.CanonicalItem{{Rank: 1, Title: "a"}, {Rank: 1, Title: "b"}}),
			want: ErrRankSequence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateSnapshot(tt.snap)
			if result.IsValid {
				t.Fatal("Expected invalid result")
			}

			if !errors.Is(result.Err(), tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, result.Err())
			}
		})
	}
}

func TestValidateSnapshot_EmptyTitleIsWarning(t *testing.T) {
	s := models.NewSnapshot(time.Now(), []models.CanonicalItem{{Rank: 1}})

	result := ValidateSnapshot(s)
	if !result.IsValid {
		t.Fatalf("Empty title should not invalidate: %v", result.Errors)
	}

	if result.Stats.ItemsMissingTitle != 1 || len(result.Warnings) == 0 {
		t.Errorf("Expected a title warning, got %+v", result)
	}
}

func TestParseSnapshot(t *testing.T) {
	good := []byte(`{"updatedAt":"2024-03-15T01:30:00Z","items":[{"rank":1,"title":"a","url":"","traffic":"","snippet":"","icon":"","category":""}]}`)

	s, result := ParseSnapshot(good)
	if !result.IsValid || s == nil || len(s.Items) != 1 {
		t.Fatalf("Expected valid parse, got %+v / %v", s, result.Errors)
	}

	if _, result := ParseSnapshot([]byte(`{"updatedAt":`)); !errors.Is(result.Err(), ErrMalformedJSON) {
		t.Errorf("Expected ErrMalformedJSON, got %v", result.Err())
	}

	if _, result := ParseSnapshot([]byte(`{"updatedAt":"2024-03-15T01:30:00Z"}`)); !errors.Is(result.Err(), ErrMissingItems) {
		t.Errorf("Expected ErrMissingItems, got %v", result.Err())
	}

	if _, result := ParseSnapshot([]byte(`[]`)); result.IsValid {
		t.Error("Expected a top-level array to be rejected")
	}
}
