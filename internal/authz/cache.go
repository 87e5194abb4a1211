package authz

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const policyKeyPrefix = "authz:policy:"

// PolicyEntry is the cached result of resolving (role, module name) against
// the policy store. Module or Permission stay nil when the store has no
// matching row; caching the absence keeps deny decisions cheap too.
type PolicyEntry struct {
	Module     *Module     `json:"module"`
	Permission *Permission `json:"permission"`
}

// PolicyCache is a read-through cache for policy rows. Policy changes are
// rare administrative events, so a short TTL plus explicit invalidation on
// mutation is enough discipline. Concurrent misses for the same key are
// collapsed through singleflight.
type PolicyCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewPolicyCache constructs a PolicyCache. A nil client disables caching
// and every lookup goes straight to the loader.
func NewPolicyCache(client *redis.Client, ttl time.Duration) *PolicyCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PolicyCache{client: client, ttl: ttl}
}

// Lookup returns the cached entry for (roleID, module), invoking load on a
// miss. Cache transport errors fall back to the loader.
func (c *PolicyCache) Lookup(ctx context.Context, roleID int64, module string, load func(context.Context) (PolicyEntry, error)) (PolicyEntry, error) {
	if c == nil || c.client == nil {
		return load(ctx)
	}

	key := c.key(roleID, module)
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var entry PolicyEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			return entry, nil
		}
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		entry, err := load(ctx)
		if err != nil {
			return PolicyEntry{}, err
		}
		if data, err := json.Marshal(entry); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttl).Err()
		}
		return entry, nil
	})
	if err != nil {
		return PolicyEntry{}, err
	}
	return value.(PolicyEntry), nil
}

// InvalidateRole drops every cached entry for a role.
func (c *PolicyCache) InvalidateRole(ctx context.Context, roleID int64) {
	if c == nil || c.client == nil {
		return
	}
	c.deleteByPattern(ctx, policyKeyPrefix+strconv.FormatInt(roleID, 10)+":*")
}

// InvalidateAll drops every cached policy entry. Used on module mutations,
// which can affect any role.
func (c *PolicyCache) InvalidateAll(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	c.deleteByPattern(ctx, policyKeyPrefix+"*")
}

func (c *PolicyCache) deleteByPattern(ctx context.Context, pattern string) {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}

func (c *PolicyCache) key(roleID int64, module string) string {
	return policyKeyPrefix + strconv.FormatInt(roleID, 10) + ":" + module
}
