package cache

import (
	"context"

	"survive/internal/model"
)

// The noop caches stand in when Redis is disabled. Reads report a miss.

type noopRoomCache struct{}

func NewNoopRoomCache() RoomCache { return noopRoomCache{} }

func (noopRoomCache) SetSnapshot(context.Context, *model.Room) error { return nil }
func (noopRoomCache) GetSnapshot(context.Context, string) (*model.Room, error) {
	return nil, nil
}
func (noopRoomCache) Delete(context.Context, string) error { return nil }

type noopLeaderboardCache struct{}

func NewNoopLeaderboardCache() LeaderboardCache { return noopLeaderboardCache{} }

func (noopLeaderboardCache) Sync(context.Context, string, []*model.Player) error { return nil }
func (noopLeaderboardCache) GetTop(context.Context, string, int) ([]LeaderboardEntry, error) {
	return []LeaderboardEntry{}, nil
}
func (noopLeaderboardCache) GetRank(context.Context, string, string) (int64, error) {
	return -1, nil
}
func (noopLeaderboardCache) Remove(context.Context, string, string) error { return nil }
func (noopLeaderboardCache) Delete(context.Context, string) error         { return nil }

type noopCheckoutCache struct{}

func NewNoopCheckoutCache() CheckoutCache { return noopCheckoutCache{} }

func (noopCheckoutCache) Set(context.Context, *model.CheckoutSession) error { return nil }
func (noopCheckoutCache) Get(context.Context, string) (*model.CheckoutSession, error) {
	return nil, nil
}
func (noopCheckoutCache) Delete(context.Context, string) error { return nil }
