package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"survive/internal/model"

	"github.com/redis/go-redis/v9"
)

// RoomCache mirrors room snapshots to Redis for read-only consumers
type RoomCache interface {
	SetSnapshot(ctx context.Context, room *model.Room) error
	GetSnapshot(ctx context.Context, id string) (*model.Room, error)
	Delete(ctx context.Context, id string) error
}

type roomCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomCache creates a new room cache
func NewRoomCache(client *redis.Client, ttl time.Duration) RoomCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &roomCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *roomCache) key(id string) string {
	return fmt.Sprintf("room:%s", id)
}

func (c *roomCache) SetSnapshot(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(room.ID), data, c.ttl).Err()
}

// GetSnapshot returns nil, nil when no snapshot is cached
func (c *roomCache) GetSnapshot(ctx context.Context, id string) (*model.Room, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var room model.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *roomCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
