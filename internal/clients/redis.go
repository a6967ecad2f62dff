package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"travelplanner/internal/config"
	"travelplanner/internal/domain/models"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// kvStore is the subset of Redis the cache needs. It is implemented by the
// go-redis adapter and by the in-memory store.
type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

type redisKV struct {
	client *redis.Client
}

func (r *redisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return val, err
}

func (r *redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisKV) Ping(ctx context.Context) error {
	val, err := r.client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	if val != "PONG" {
		return fmt.Errorf("unexpected PING response: %q", val)
	}
	return nil
}

func (r *redisKV) Close() error { return r.client.Close() }

type memoryEntry struct {
	value   string
	expires time.Time
}

// memoryKV backs the cache when no Redis address is configured.
type memoryKV struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[key]
	if !ok {
		return "", ErrCacheMiss
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.items, key)
		return "", ErrCacheMiss
	}
	return e.value, nil
}

func (m *memoryKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.items[key] = e
	return nil
}

func (m *memoryKV) Ping(context.Context) error { return nil }
func (m *memoryKV) Close() error               { return nil }

// Cache stores generated itineraries and weather forecasts.
type Cache struct {
	kv  kvStore
	ttl time.Duration
}

// NewRedisCache connects lazily; nothing is dialled until the first call.
func NewRedisCache(cfg config.RedisConfig) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Cache{kv: &redisKV{client: client}, ttl: cfg.TTL}
}

// NewMemoryCache keeps everything in process memory.
func NewMemoryCache(ttl time.Duration) *Cache {
	return &Cache{
		kv:  &memoryKV{items: map[string]memoryEntry{}, now: time.Now},
		ttl: ttl,
	}
}

func itineraryKey(id string) string { return "itinerary:" + id }

func weatherKey(destination, startDate string, days int) string {
	dest := strings.ToLower(strings.Join(strings.Fields(destination), "_"))
	return fmt.Sprintf("weather:%s:%s:%d", dest, startDate, days)
}

func (c *Cache) SaveItinerary(ctx context.Context, saved models.SavedItinerary) error {
	if strings.TrimSpace(saved.Itinerary.ID) == "" {
		return errors.New("itinerary id is empty")
	}
	return c.putJSON(ctx, itineraryKey(saved.Itinerary.ID), saved)
}

// LoadItinerary returns ErrCacheMiss when the id is unknown or expired.
func (c *Cache) LoadItinerary(ctx context.Context, id string) (models.SavedItinerary, error) {
	var saved models.SavedItinerary
	err := c.getJSON(ctx, itineraryKey(id), &saved)
	return saved, err
}

func (c *Cache) SaveForecast(ctx context.Context, destination, startDate string, days int, f models.Forecast) error {
	return c.putJSON(ctx, weatherKey(destination, startDate, days), f)
}

func (c *Cache) LoadForecast(ctx context.Context, destination, startDate string, days int) (models.Forecast, error) {
	var f models.Forecast
	err := c.getJSON(ctx, weatherKey(destination, startDate, days), &f)
	return f, err
}

func (c *Cache) Ping(ctx context.Context) error { return c.kv.Ping(ctx) }

func (c *Cache) Close() error { return c.kv.Close() }

func (c *Cache) putJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.kv.Set(ctx, key, string(b), c.ttl); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) getJSON(ctx context.Context, key string, v any) error {
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return ErrCacheMiss
		}
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
