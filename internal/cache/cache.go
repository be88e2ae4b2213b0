// Package cache stores serialized symptom analyses keyed by input text.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/medlens/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyPrefix is bumped whenever the cached analysis format changes
const keyPrefix = "medlens:v1:"

// CacheKey generates a cache key for an input under a given configuration
// fingerprint, so results computed with other dictionaries or classifier
// parameters are never reused
func CacheKey(fingerprint, text string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// New builds the configured cache, or nil when caching is disabled.
// Without a disk directory only the memory layer is used.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.DiskDir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.DiskDir, cfg.DiskTTL)
}
