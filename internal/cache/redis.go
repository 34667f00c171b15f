package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"MatchSync/internal/interfaces"
	"MatchSync/internal/model"
)

const keyPrefix = "matchsync"

// RedisCache caches query results under a per-sport version number. Invalidate bumps the
// version, which orphans every cached page for the sport until its TTL expires.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRedisClient connects and pings with a bounded timeout.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return client, nil
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

var _ interfaces.QueryCache = (*RedisCache)(nil)

func versionKey(sport model.Sport) string {
	return keyPrefix + ":ver:" + string(sport)
}

func pageKey(sport model.Sport, version string, f model.MatchFilter) string {
	return fmt.Sprintf("%s:matches:%s:v%s:%s:%s:%d", keyPrefix, sport, version,
		strconv.Quote(f.Participant), strconv.Quote(f.Competition), f.EffectiveLimit())
}

func (c *RedisCache) version(ctx context.Context, sport model.Sport) (string, error) {
	v, err := c.client.Get(ctx, versionKey(sport)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return v, err
}

// GetMatches reports a miss on any redis or decode error. On a miss the returned version is the
// one the caller must hand back to SetMatches; it is empty when the version could not be read.
func (c *RedisCache) GetMatches(ctx context.Context, sport model.Sport, filter model.MatchFilter) ([]model.MatchRecord, string, bool) {
	ver, err := c.version(ctx, sport)
	if err != nil {
		c.logger.WithError(err).WithField("sport", sport).Debug("query cache version lookup failed")
		return nil, "", false
	}
	data, err := c.client.Get(ctx, pageKey(sport, ver, filter)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("sport", sport).Debug("query cache read failed")
		}
		return nil, ver, false
	}
	var records []model.MatchRecord
	if err := json.Unmarshal(data, &records); err != nil {
		c.logger.WithError(err).WithField("sport", sport).Warn("discarding undecodable cache entry")
		return nil, ver, false
	}
	return records, ver, true
}

// SetMatches stores records under the version observed before they were read from the store. A
// page read across an Invalidate therefore lands under the orphaned version and is never served.
func (c *RedisCache) SetMatches(ctx context.Context, sport model.Sport, filter model.MatchFilter, version string, records []model.MatchRecord) {
	if version == "" {
		return
	}
	data, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, pageKey(sport, version, filter), data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("sport", sport).Debug("query cache write failed")
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, sport model.Sport) error {
	if err := c.client.Incr(ctx, versionKey(sport)).Err(); err != nil {
		return fmt.Errorf("invalidate %s cache: %w", sport, err)
	}
	return nil
}

// Noop never caches.
type Noop struct{}

func (Noop) GetMatches(context.Context, model.Sport, model.MatchFilter) ([]model.MatchRecord, string, bool) {
	return nil, "", false
}

func (Noop) SetMatches(context.Context, model.Sport, model.MatchFilter, string, []model.MatchRecord) {}

func (Noop) Invalidate(context.Context, model.Sport) error { return nil }
