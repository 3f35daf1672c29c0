// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"tourvia/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client, also used for the canonical
	// unread counters.
	CacheClient *redis.Client
	// NotifyClient is the dedicated client for the notification pub/sub
	// channel. Pub/sub holds the connection in subscriber mode, so it gets its
	// own client instead of sharing CacheClient.
	NotifyClient *redis.Client
)

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitNotifyClient initializes the Redis client used for the notification
// channel.
func InitNotifyClient() {
	NotifyClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisNotifyDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NotifyClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Notify): %v", err)
	}
}

// GetNotifyClient returns the Redis client for the notification channel.
func GetNotifyClient() *redis.Client {
	if NotifyClient == nil {
		InitNotifyClient()
	}
	return NotifyClient
}
