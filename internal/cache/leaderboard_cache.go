package cache

import (
	"context"
	"fmt"
	"time"

	"survive/internal/model"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache handles Redis ZSET operations for room standings
type LeaderboardCache interface {
	Sync(ctx context.Context, roomID string, players []*model.Player) error
	GetTop(ctx context.Context, roomID string, limit int) ([]LeaderboardEntry, error)
	GetRank(ctx context.Context, roomID, name string) (int64, error)
	Remove(ctx context.Context, roomID, name string) error
	Delete(ctx context.Context, roomID string) error
}

// LeaderboardEntry represents a single leaderboard entry
type LeaderboardEntry struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Rank   int    `json:"rank"`
}

type leaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client, ttl time.Duration) LeaderboardCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &leaderboardCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *leaderboardCache) key(roomID string) string {
	return fmt.Sprintf("room:%s:lb", roomID)
}

// Sync writes every player's current points in one pipeline
func (c *leaderboardCache) Sync(ctx context.Context, roomID string, players []*model.Player) error {
	if len(players) == 0 {
		return nil
	}
	members := make([]redis.Z, len(players))
	for i, p := range players {
		members[i] = redis.Z{Score: float64(p.Points), Member: p.Name}
	}

	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, c.key(roomID), members...)
	pipe.Expire(ctx, c.key(roomID), c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *leaderboardCache) GetTop(ctx context.Context, roomID string, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		return []LeaderboardEntry{}, nil
	}
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(roomID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = LeaderboardEntry{
			Name:   z.Member.(string),
			Points: int(z.Score),
			Rank:   i + 1,
		}
	}
	return entries, nil
}

// GetRank returns the 1-indexed rank, or -1 when the player is not ranked
func (c *leaderboardCache) GetRank(ctx context.Context, roomID, name string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(roomID), name).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err
}

func (c *leaderboardCache) Remove(ctx context.Context, roomID, name string) error {
	return c.client.ZRem(ctx, c.key(roomID), name).Err()
}

func (c *leaderboardCache) Delete(ctx context.Context, roomID string) error {
	return c.client.Del(ctx, c.key(roomID)).Err()
}
