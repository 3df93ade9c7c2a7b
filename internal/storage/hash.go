package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// ContentHash fingerprints an article by source, case-folded title and
// publication time. It is stored for analytics and never used for identity.
func ContentHash(a types.Article) string {
	key := a.Source + "|" + strings.ToLower(strings.TrimSpace(a.Title)) + "|" + a.PublishedAtString()
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
