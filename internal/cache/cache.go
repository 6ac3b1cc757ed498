package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kiranshivaraju/recruitflow/pkg/models"
	"github.com/redis/go-redis/v9"
)

// Cache is the caching interface. All cache operations go through here.
// Implementations must be safe for concurrent use.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	SetStatus(ctx context.Context, view models.StatusView, ttl time.Duration) error
	GetStatus(ctx context.Context, candidateID string) (*models.StatusView, bool, error)
	InvalidateStatus(ctx context.Context, candidateID string) error
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// statusEntry is the cached form of a status view. Version is the view's
// UpdatedDate in microseconds, which fits a Lua number exactly.
type statusEntry struct {
	Version int64             `json:"version"`
	View    models.StatusView `json:"view"`
}

// setStatusScript writes ARGV[2] unless the cached entry carries a higher
// version. Unreadable entries are overwritten.
var setStatusScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
	local ok, entry = pcall(cjson.decode, cur)
	if ok and type(entry) == 'table' and tonumber(entry.version) and tonumber(entry.version) > tonumber(ARGV[1]) then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// SetStatus caches the polling view of one candidate. A view older than the
// cached one is dropped, so a slow reader cannot replace a fresher write.
func (c *RedisCache) SetStatus(ctx context.Context, view models.StatusView, ttl time.Duration) error {
	entry := statusEntry{Version: view.UpdatedDate.UnixMicro(), View: view}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal status view: %w", err)
	}
	ms := ttl.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	return setStatusScript.Run(ctx, c.client, []string{StatusKey(view.CandidateID)}, entry.Version, data, ms).Err()
}

func (c *RedisCache) GetStatus(ctx context.Context, candidateID string) (*models.StatusView, bool, error) {
	data, ok, err := c.Get(ctx, StatusKey(candidateID))
	if err != nil || !ok {
		return nil, false, err
	}
	var entry statusEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.View.CandidateID == "" {
		// A corrupt entry is treated as a miss; the next write replaces it.
		return nil, false, nil
	}
	return &entry.View, true, nil
}

func (c *RedisCache) InvalidateStatus(ctx context.Context, candidateID string) error {
	return c.Delete(ctx, StatusKey(candidateID))
}

func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
