// Package digest fingerprints item lists so runs can tell whether the
// ranked list actually changed.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SHSHJW/top10-daily/internal/models"
)

// ErrHashMismatch is returned by Verify when items do not match a digest.
var ErrHashMismatch = errors.New("hash mismatch")

// ItemsHash computes the SHA-256 of the items' canonical JSON encoding.
// The snapshot timestamp is not part of it.
func ItemsHash(items []models.CanonicalItem) string {
	if items == nil {
		items = []models.CanonicalItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		// CanonicalItem holds only strings and ints.
		panic(fmt.Sprintf("digest: marshal items: %v", err))
	}

	hash := sha256.Sum256(data)

	return hex.EncodeToString(hash[:])
}

// Short returns the first 12 hex characters of a digest for log lines.
func Short(hash string) string {
	if len(hash) <= 12 {
		return hash
	}

	return hash[:12]
}

// Verify checks items against an expected digest.
func Verify(items []models.CanonicalItem, expected string) error {
	calculated := ItemsHash(items)
	if calculated != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, Short(expected), Short(calculated))
	}

	return nil
}
