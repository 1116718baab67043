package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lectura/config"
	"lectura/logger"
	"lectura/model"

	"github.com/redis/go-redis/v9"
)

// statusTTL keeps finished job statuses around long enough for polling
// clients without growing the keyspace forever.
const statusTTL = 24 * time.Hour

// RedisTracker stores status snapshots in Redis so they survive a process
// restart. It keeps the same last-write-wins contract as MemoryTracker.
type RedisTracker struct {
	client *redis.Client
}

// NewRedisTracker connects to Redis and verifies the connection.
func NewRedisTracker(cfg *config.Config) (*RedisTracker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTracker{client: client}, nil
}

func statusKey(id string) string {
	return "status:" + id
}

// Set stores the snapshot for id. Redis errors are logged rather than
// propagated; a status write must never fail a pipeline stage.
func (t *RedisTracker) Set(id string, s model.Status) {
	data, err := json.Marshal(s)
	if err != nil {
		logger.Error("failed to marshal status", logger.String("id", id), logger.ErrorField(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := t.client.Set(ctx, statusKey(id), data, statusTTL).Err(); err != nil {
		logger.Error("failed to write status to Redis", logger.String("id", id), logger.ErrorField(err))
	}
}

// Get returns the current snapshot for id, or a status with stage "unknown".
func (t *RedisTracker) Get(id string) model.Status {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := t.client.Get(ctx, statusKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Error("failed to read status from Redis", logger.String("id", id), logger.ErrorField(err))
		}
		return model.Status{Stage: model.StageUnknown}
	}

	var s model.Status
	if err := json.Unmarshal(data, &s); err != nil {
		logger.Error("failed to unmarshal status", logger.String("id", id), logger.ErrorField(err))
		return model.Status{Stage: model.StageUnknown}
	}
	return s
}

// Close releases the Redis connection.
func (t *RedisTracker) Close() error {
	return t.client.Close()
}
