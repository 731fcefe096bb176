package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-proposals/internal/cache"
	"github.com/ignatzorin/freelance-proposals/internal/logger"
)

// Payload sources reported by read-through lookups.
const (
	SourceCache = "cache"
	SourceStore = "store"
)

// CacheService coordinates the read-through cache in front of profile and
// proposal reads. It never mutates entity truth, only cached copies.
// Backend failures degrade to cache misses and are never surfaced to callers.
type CacheService struct {
	backend cache.Backend
}

// NewCacheService creates a cache coordinator on top of the given backend.
func NewCacheService(backend cache.Backend) *CacheService {
	return &CacheService{backend: backend}
}

// GetJSON reads a key and unmarshals it into dest. Returns false on a miss
// or any backend/decoding problem.
func (cs *CacheService) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	raw, err := cs.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logWarn("cache: get failed, treating as miss", key, err)
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logWarn("cache: corrupted payload, treating as miss", key, err)
		return false
	}

	return true
}

// SetJSON stores a value with the given TTL. Failures are logged and ignored.
func (cs *CacheService) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		logWarn("cache: marshal failed, skipping set", key, err)
		return
	}

	if err := cs.backend.Set(ctx, key, string(raw), ttl); err != nil {
		logWarn("cache: set failed", key, err)
	}
}

// Delete invalidates a single key. Write paths call this before the write
// is acknowledged, so a subsequent read cannot observe the stale value.
func (cs *CacheService) Delete(ctx context.Context, key string) {
	if err := cs.backend.Del(ctx, key); err != nil {
		logWarn("cache: delete failed", key, err)
	}
}

// InvalidateProfile drops the single-profile key for a user. The aggregate
// listing key is left alone on purpose: it expires by TTL.
func (cs *CacheService) InvalidateProfile(ctx context.Context, userID uuid.UUID) {
	cs.Delete(ctx, ProfileCacheKey(userID))
}

// InvalidateProposal drops the single-proposal key.
func (cs *CacheService) InvalidateProposal(ctx context.Context, proposalID uuid.UUID) {
	cs.Delete(ctx, ProposalCacheKey(proposalID))
}

// Cache key generators. Keys are deterministic functions of the query.
func ProfilesCacheKey() string {
	return "api:profiles"
}

func ProfileCacheKey(userID uuid.UUID) string {
	return "api:profile:" + userID.String()
}

func ProposalCacheKey(proposalID uuid.UUID) string {
	return "api:proposal:" + proposalID.String()
}

func logWarn(msg, key string, err error) {
	if logger.Log != nil {
		logger.Log.WithField("key", key).WithError(err).Warn(msg)
	}
}
