package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"survive/internal/cache"
	"survive/internal/common/clock"
	"survive/internal/common/uuid"
	"survive/internal/config"
	"survive/internal/model"
	"survive/internal/store"

	"go.uber.org/zap"
)

// RoomStore is the in-process room map
type RoomStore interface {
	Create(room *model.Room) error
	Get(id string) (*model.Room, error)
	Update(id string, fn func(*model.Room) error) error
	Delete(id string) bool
	Exists(id string) bool
	IDs() []string
}

// RuntimeConfig lists the collaborators shared by the room services
type RuntimeConfig struct {
	Store       RoomStore
	Clock       clock.Clock
	IDs         uuid.UUID
	Broadcaster Broadcaster
	RoomCache   cache.RoomCache
	Leaderboard cache.LeaderboardCache
	Rules       config.GameConfig
	Logger      *zap.Logger
}

// Runtime is the shared state behind RoomService, PlayerService, GameService and BoostService
type Runtime struct {
	store       RoomStore
	clock       clock.Clock
	ids         uuid.UUID
	broadcaster Broadcaster
	rooms       cache.RoomCache
	leaderboard cache.LeaderboardCache
	rules       config.GameConfig
	log         *zap.Logger
	timers      *timerSet
}

const mirrorTimeout = 250 * time.Millisecond

var (
	errNilStore       = errors.New("room store cannot be nil")
	errNilClock       = errors.New("clock cannot be nil")
	errNilIDs         = errors.New("id generator cannot be nil")
	errNilBroadcaster = errors.New("broadcaster cannot be nil")
)

// NewRuntime validates cfg and fills optional collaborators with no-ops
func NewRuntime(cfg *RuntimeConfig) (*Runtime, error) {
	switch {
	case cfg.Store == nil:
		return nil, errNilStore
	case cfg.Clock == nil:
		return nil, errNilClock
	case cfg.IDs == nil:
		return nil, errNilIDs
	case cfg.Broadcaster == nil:
		return nil, errNilBroadcaster
	}

	rt := &Runtime{
		store:       cfg.Store,
		clock:       cfg.Clock,
		ids:         cfg.IDs,
		broadcaster: cfg.Broadcaster,
		rooms:       cfg.RoomCache,
		leaderboard: cfg.Leaderboard,
		rules:       cfg.Rules,
		log:         cfg.Logger,
	}
	if rt.rooms == nil {
		rt.rooms = cache.NewNoopRoomCache()
	}
	if rt.leaderboard == nil {
		rt.leaderboard = cache.NewNoopLeaderboardCache()
	}
	if rt.log == nil {
		rt.log = zap.NewNop()
	}
	rt.timers = newTimerSet(rt.clock, rt.log)
	return rt, nil
}

// update runs fn under the room lock, mapping a missing room to ErrRoomNotFound
func (rt *Runtime) update(roomID string, fn func(*model.Room) error) error {
	err := rt.store.Update(roomID, fn)
	if errors.Is(err, store.ErrNotFound) {
		return ErrRoomNotFound
	}
	return err
}

func (rt *Runtime) get(roomID string) (*model.Room, error) {
	room, err := rt.store.Get(roomID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

func (rt *Runtime) now() time.Time {
	return rt.clock.Now()
}

func (rt *Runtime) publish(roomID, msgType string, payload interface{}) {
	rt.broadcaster.BroadcastToRoom(roomID, msgType, payload)
}

func (rt *Runtime) publishState(room *model.Room) {
	rt.publish(room.ID, EventRoomState, roomStatePayload{GameID: room.ID, Room: room.Clone()})
}

// commit stamps activity and mirrors the room to the caches.
// Called with the room lock held so mirrored snapshots land in mutation order.
func (rt *Runtime) commit(room *model.Room) {
	room.LastActivity = rt.now()

	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	if err := rt.rooms.SetSnapshot(ctx, room); err != nil {
		rt.log.Warn("room snapshot mirror failed", zap.String("room_id", room.ID), zap.Error(err))
	}
	if err := rt.leaderboard.Sync(ctx, room.ID, room.Players); err != nil {
		rt.log.Warn("leaderboard sync failed", zap.String("room_id", room.ID), zap.Error(err))
	}
}

// forget drops every trace of a room: timers, store entry, cache entries and socket group
func (rt *Runtime) forget(roomID string) {
	rt.timers.cancelRoom(roomID)
	rt.store.Delete(roomID)

	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := rt.rooms.Delete(ctx, roomID); err != nil {
		rt.log.Warn("room snapshot delete failed", zap.String("room_id", roomID), zap.Error(err))
	}
	if err := rt.leaderboard.Delete(ctx, roomID); err != nil {
		rt.log.Warn("leaderboard delete failed", zap.String("room_id", roomID), zap.Error(err))
	}
	rt.broadcaster.DisconnectRoom(roomID)
}

func (rt *Runtime) validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > rt.rules.MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// PendingTimers reports the number of scheduled game timers
func (rt *Runtime) PendingTimers() int {
	return rt.timers.len()
}

// Shutdown cancels every scheduled timer
func (rt *Runtime) Shutdown() {
	for _, id := range rt.store.IDs() {
		rt.timers.cancelRoom(id)
	}
}
