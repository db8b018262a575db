// internal/infrastructure/cache/redis/cache.go
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	keyRecentAlerts = "alerts:recent"
	keyLatestAlert  = "alerts:latest"
)

type Cache struct {
	client *redis.Client
	prefix string
}

func NewCache(addr, password string, db int) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		prefix: "loginmon:",
	}
}

// NewCacheWithClient создает Cache с существующим клиентом
func NewCacheWithClient(client *redis.Client) *Cache {
	return &Cache{
		client: client,
		prefix: "loginmon:",
	}
}

// Set устанавливает значение в Redis с TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	fullKey := c.prefix + key

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, fullKey, data, ttl).Err()
}

// Get получает значение из Redis
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	fullKey := c.prefix + key

	data, err := c.client.Get(ctx, fullKey).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), dest)
}

// Delete удаляет ключ из Redis
func (c *Cache) Delete(ctx context.Context, key string) error {
	fullKey := c.prefix + key
	return c.client.Del(ctx, fullKey).Err()
}

// DeleteMulti удаляет несколько ключей из Redis
func (c *Cache) DeleteMulti(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = c.prefix + key
	}

	return c.client.Del(ctx, fullKeys...).Err()
}

// SetRecentAlerts кэширует срез последних событий алертов
func (c *Cache) SetRecentAlerts(ctx context.Context, alerts interface{}, ttl time.Duration) error {
	return c.Set(ctx, keyRecentAlerts, alerts, ttl)
}

// GetRecentAlerts читает кэшированный срез последних событий алертов
func (c *Cache) GetRecentAlerts(ctx context.Context, dest interface{}) error {
	return c.Get(ctx, keyRecentAlerts, dest)
}

// SetLatestAlert кэширует последнее событие алерта
func (c *Cache) SetLatestAlert(ctx context.Context, alert interface{}, ttl time.Duration) error {
	return c.Set(ctx, keyLatestAlert, alert, ttl)
}

// GetLatestAlert читает кэшированное последнее событие алерта
func (c *Cache) GetLatestAlert(ctx context.Context, dest interface{}) error {
	return c.Get(ctx, keyLatestAlert, dest)
}

// InvalidateAlerts сбрасывает все ключи кэша алертов
func (c *Cache) InvalidateAlerts(ctx context.Context) error {
	return c.DeleteMulti(ctx, keyRecentAlerts, keyLatestAlert)
}
