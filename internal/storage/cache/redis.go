// Package cache wraps go-redis/v8 for the price read-through cache (§4.1),
// adapted from the teacher's Redis wrapper. The Redis Streams primitives below
// are kept on the wrapper but no pipeline stage calls them.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/smartwallet/tracker/pkg/utils/config"
	"github.com/smartwallet/tracker/pkg/utils/logger"
)

// XMessage is one entry read off a Redis Stream consumer group.
type XMessage struct {
	ID     string
	Values map[string]interface{}
}

// Redis wraps a go-redis client and exposes the key-value and streams
// operations the rest of the module needs.
type Redis struct {
	client *redis.Client
	ctx    context.Context
	logger *logger.Logger
}

// NewRedisConnection opens and pings a Redis connection.
func NewRedisConnection(cfg *config.RedisConfig, log *logger.Logger) (*Redis, error) {
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	log.Info("connected to redis", map[string]interface{}{"host": cfg.Host, "port": cfg.Port})

	return &Redis{client: client, ctx: ctx, logger: log}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Set(key string, value string, expiration time.Duration) error {
	return r.client.Set(r.ctx, key, value, expiration).Err()
}

func (r *Redis) Get(key string) (string, error) {
	return r.client.Get(r.ctx, key).Result()
}

func (r *Redis) Delete(key string) error {
	return r.client.Del(r.ctx, key).Err()
}

func (r *Redis) Exists(key string) (bool, error) {
	val, err := r.client.Exists(r.ctx, key).Result()
	if err != nil {
		return false, err
	}
	return val > 0, nil
}

func (r *Redis) TTL(key string) (time.Duration, error) {
	return r.client.TTL(r.ctx, key).Result()
}

// IsNil reports whether err is go-redis's cache-miss sentinel.
func (r *Redis) IsNil(err error) bool {
	return err == redis.Nil
}

// XAdd appends a message to a stream, auto-generating its ID.
func (r *Redis) XAdd(stream string, values map[string]interface{}) error {
	return r.client.XAdd(r.ctx, &redis.XAddArgs{
		Stream: stream,
		ID:     "*",
		Values: values,
	}).Err()
}

// XGroupCreate creates a consumer group for a stream, creating the stream
// first (with a throwaway init message) if it doesn't exist yet.
func (r *Redis) XGroupCreate(stream, group string) error {
	exists, err := r.Exists(stream)
	if err != nil {
		return err
	}
	if !exists {
		if err := r.XAdd(stream, map[string]interface{}{"init": "true"}); err != nil {
			return err
		}
	}

	err = r.client.XGroupCreate(r.ctx, stream, group, "$").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return err
	}
	return nil
}

func (r *Redis) XAck(stream, group, messageID string) error {
	return r.client.XAck(r.ctx, stream, group, messageID).Err()
}

// XReadGroup reads up to count pending messages for (stream, group, consumer),
// blocking up to timeout. A redis.Nil result (no messages) is reported as an
// empty slice, not an error.
func (r *Redis) XReadGroup(stream, group, consumer string, count int, timeout time.Duration) ([]XMessage, error) {
	result, err := r.client.XReadGroup(r.ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    int64(count),
		Block:    timeout,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var messages []XMessage
	for _, s := range result {
		for _, m := range s.Messages {
			messages = append(messages, XMessage{ID: m.ID, Values: m.Values})
		}
	}
	return messages, nil
}
