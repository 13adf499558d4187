package models

import "time"

// Snapshot is the sole output document of a run.
type Snapshot struct {
	UpdatedAt string          `json:"updatedAt"`
	Items     []CanonicalItem `json:"items"`
}

// NewSnapshot stamps items with the given wall-clock time.
// A nil slice is stored as an empty list so the file never carries null.
func NewSnapshot(at time.Time, items []CanonicalItem) *Snapshot {
	if items == nil {
		items = []CanonicalItem{}
	}

	return &Snapshot{
		UpdatedAt: at.UTC().Format(time.RFC3339Nano),
		Items:     items,
	}
}

// UpdatedTime parses UpdatedAt.
func (s *Snapshot) UpdatedTime() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s.UpdatedAt)
}
