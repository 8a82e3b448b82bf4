package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"otaku_hub/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const keyProfile = "profile:"

// ProfileCache keeps GET /profile/me results in Redis. Upserts overwrite the
// entry with Set; reads populate it with Fill, which never replaces an
// existing entry, so a slow read cannot put an older row back.
type ProfileCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewProfileCache(rdb *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached profile or nil on a miss.
func (c *ProfileCache) Get(ctx context.Context, userID string) (*model.Profile, error) {
	b, err := c.rdb.Get(ctx, keyProfile+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p model.Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *ProfileCache) Set(ctx context.Context, p *model.Profile) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyProfile+p.UserID, b, c.ttl).Err()
}

// Fill stores p only when no entry exists for its user.
func (c *ProfileCache) Fill(ctx context.Context, p *model.Profile) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.SetNX(ctx, keyProfile+p.UserID, b, c.ttl).Err()
}

func (c *ProfileCache) Invalidate(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, keyProfile+userID).Err()
}
