package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"studybuddy/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const roomChannelPrefix = "session:"

// RoomChannel is the Redis channel carrying events for one session room.
func RoomChannel(sessionID uint) string {
	return roomChannelPrefix + strconv.FormatUint(uint64(sessionID), 10)
}

// RedisRelay carries room events over Redis Pub/Sub.
type RedisRelay struct {
	Redis *redis.Client
}

// NewRedisRelay wraps an already connected client.
func NewRedisRelay(rdb *redis.Client) *RedisRelay {
	return &RedisRelay{Redis: rdb}
}

// ConnectRedis creates a client and verifies the connection.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}
	return rdb, nil
}

// Publish sends an envelope on the session's channel.
func (r *RedisRelay) Publish(ctx context.Context, env models.RoomEnvelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return r.Redis.Publish(ctx, RoomChannel(env.SessionID), payload).Err()
}

// Subscribe listens on every session channel until ctx is done. The returned
// channel is closed when the subscription ends.
func (r *RedisRelay) Subscribe(ctx context.Context) <-chan models.RoomEnvelope {
	out := make(chan models.RoomEnvelope)
	pubsub := r.Redis.PSubscribe(ctx, roomChannelPrefix+"*")

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				env, err := decodeEnvelope(msg.Channel, msg.Payload)
				if err != nil {
					log.Printf("ERROR: Dropping relay message on %s: %v", msg.Channel, err)
					continue
				}
				select {
				case out <- env:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Ping checks the Redis connection.
func (r *RedisRelay) Ping(ctx context.Context) error {
	return r.Redis.Ping(ctx).Err()
}

func decodeEnvelope(channel, payload string) (models.RoomEnvelope, error) {
	var env models.RoomEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return env, err
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(channel, roomChannelPrefix), 10, 64)
	if err != nil {
		return env, fmt.Errorf("bad channel name: %w", err)
	}
	if env.SessionID != uint(id) {
		return env, fmt.Errorf("envelope for session %d on channel %s", env.SessionID, channel)
	}
	return env, nil
}
