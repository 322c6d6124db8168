package service

import (
	"context"
	"sync"
	"time"

	"survive/internal/common/clock"
	"survive/internal/common/uuid"
	"survive/internal/config"
	"survive/internal/model"
	repomocks "survive/internal/repository/mocks"
	"survive/internal/service/mocks"
	"survive/internal/store"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type recordedEvent struct {
	RoomID  string
	Player  string
	Type    string
	Payload interface{}
}

// gameSuite wires every room service over an in-memory store, a fake clock and mocks
type gameSuite struct {
	suite.Suite

	ctx         context.Context
	ctrl        *gomock.Controller
	clock       *clock.Fake
	store       *store.Memory
	broadcaster *mocks.MockBroadcaster
	matches     *repomocks.MockMatchRepo
	boostRepo   *repomocks.MockBoostRepo

	rt      *Runtime
	auth    *AuthService
	rooms   *RoomService
	players *PlayerService
	game    *GameService
	boosts  *BoostService

	mu           sync.Mutex
	events       []recordedEvent
	disconnected []string
}

func (s *gameSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.clock = clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	s.store = store.NewMemory()
	s.broadcaster = mocks.NewMockBroadcaster(s.ctrl)
	s.matches = repomocks.NewMockMatchRepo(s.ctrl)
	s.boostRepo = repomocks.NewMockBoostRepo(s.ctrl)

	s.mu.Lock()
	s.events = nil
	s.disconnected = nil
	s.mu.Unlock()

	s.broadcaster.EXPECT().BroadcastToRoom(gomock.Any(), gomock.Any(), gomock.Any()).
		Do(func(roomID, msgType string, payload interface{}) {
			s.record(recordedEvent{RoomID: roomID, Type: msgType, Payload: payload})
		}).AnyTimes()
	s.broadcaster.EXPECT().BroadcastToPlayer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Do(func(roomID, playerName, msgType string, payload interface{}) {
			s.record(recordedEvent{RoomID: roomID, Player: playerName, Type: msgType, Payload: payload})
		}).AnyTimes()
	s.broadcaster.EXPECT().DisconnectRoom(gomock.Any()).
		Do(func(roomID string) {
			s.mu.Lock()
			s.disconnected = append(s.disconnected, roomID)
			s.mu.Unlock()
		}).AnyTimes()

	s.build(config.Default().Game)
}

// build (re)creates the services with the given rules
func (s *gameSuite) build(rules config.GameConfig) {
	rt, err := NewRuntime(&RuntimeConfig{
		Store:       s.store,
		Clock:       s.clock,
		IDs:         uuid.NewSequence("id"),
		Broadcaster: s.broadcaster,
		Rules:       rules,
	})
	s.Require().NoError(err)

	s.rt = rt
	s.auth = NewAuthService("test-secret", time.Hour, s.clock)
	s.rooms = NewRoomService(rt, s.matches, s.auth)
	s.players = NewPlayerService(rt, s.rooms, s.auth)
	s.game = NewGameService(rt)
	s.boosts = NewBoostService(rt, s.boostRepo, false)
}

func (s *gameSuite) record(e recordedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *gameSuite) eventTypes(roomID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.events {
		if e.RoomID == roomID {
			out = append(out, e.Type)
		}
	}
	return out
}

func (s *gameSuite) lastEvent(roomID, msgType string) *recordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].RoomID == roomID && s.events[i].Type == msgType {
			e := s.events[i]
			return &e
		}
	}
	return nil
}

func (s *gameSuite) createRoom(name string, timer int) *CreateRoomOutput {
	out, err := s.rooms.CreateRoom(s.ctx, &CreateRoomInput{PlayerName: name, TimerSeconds: timer})
	s.Require().NoError(err)
	return out
}

func (s *gameSuite) join(roomID, name string) *JoinRoomOutput {
	out, err := s.players.JoinRoom(s.ctx, &JoinRoomInput{RoomID: roomID, PlayerName: name})
	s.Require().NoError(err)
	return out
}

func (s *gameSuite) room(roomID string) *model.Room {
	r, err := s.rooms.GetRoom(s.ctx, roomID)
	s.Require().NoError(err)
	return r
}

func (s *gameSuite) call(roomID, caller, target string) *CallOutput {
	out, err := s.game.Call(s.ctx, &CallInput{RoomID: roomID, Caller: caller, Target: target})
	s.Require().NoError(err)
	return out
}

// assertOneCenter checks that exactly one player holds the center role and CenterIndex points at it
func (s *gameSuite) assertOneCenter(r *model.Room) {
	if len(r.Players) == 0 {
		return
	}
	centers := 0
	for i, p := range r.Players {
		if p.IsCenter {
			centers++
			s.Equal(i, r.CenterIndex)
		}
	}
	s.Equal(1, centers)
}

// assertDistinctAnimals checks that no animal is held by two players
func (s *gameSuite) assertDistinctAnimals(r *model.Room) {
	seen := make(map[string]bool)
	for _, p := range r.Players {
		s.False(seen[p.Animal], "animal %s held twice", p.Animal)
		seen[p.Animal] = true
	}
}

// expectArchive expects exactly one archived match and captures it
func (s *gameSuite) expectArchive() *model.MatchRecord {
	var archived model.MatchRecord
	s.matches.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m *model.MatchRecord) error {
			archived = *m
			return nil
		}).Times(1)
	return &archived
}
