package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus reports the last observed state of each backing store. The
// two Redis databases are tracked separately because losing the notify
// instance degrades the feed while the cache instance only slows auth.
type HealthStatus struct {
	Mongo       bool      `json:"mongo"`
	CacheRedis  bool      `json:"cacheRedis"`
	NotifyRedis bool      `json:"notifyRedis"`
	CheckedAt   time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	healthMu      sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	healthMu.RLock()
	defer healthMu.RUnlock()
	return currentHealth
}

func probeHealth(cache, notify *redis.Client, mongoClient *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status := HealthStatus{
		Mongo:       mongoClient.Ping(ctx, nil) == nil,
		CacheRedis:  cache.Ping(ctx).Err() == nil,
		NotifyRedis: notify.Ping(ctx).Err() == nil,
		CheckedAt:   time.Now(),
	}

	healthMu.Lock()
	currentHealth = status
	healthMu.Unlock()
}

// StartHealthMonitor probes the backing stores once immediately, then every
// minute, keeping the snapshot served by the health endpoint current.
func StartHealthMonitor(cache, notify *redis.Client, mongoClient *mongo.Client) {
	go func() {
		probeHealth(cache, notify, mongoClient)

		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			probeHealth(cache, notify, mongoClient)
		}
	}()
}
