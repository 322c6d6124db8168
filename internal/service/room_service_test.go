package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"survive/internal/cache"
	"survive/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RoomServiceTestSuite struct {
	gameSuite
}

func TestRoomServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RoomServiceTestSuite))
}

func (s *RoomServiceTestSuite) TestCreateRoomSeedsCreatorAsCenter() {
	out := s.createRoom("Alice", 600)

	s.Len(out.Room.ID, 6)
	s.Equal(model.RoomWaiting, out.Room.Status)
	s.Equal(600, out.Room.TimerSeconds)
	s.Require().Len(out.Room.Players, 1)

	alice := out.Room.Players[0]
	s.Equal("Alice", alice.Name)
	s.True(alice.IsCenter)
	s.Equal(20, alice.Points)
	s.Equal("Aardvark", alice.Animal)
	s.True(alice.Connected)
	s.Equal(0, out.Room.CenterIndex)

	claims, err := s.auth.ValidateSessionToken(out.SessionToken)
	s.Require().NoError(err)
	s.Equal(out.Room.ID, claims.RoomID)
	s.Equal("Alice", claims.PlayerName)
}

func (s *RoomServiceTestSuite) TestCreateRoomDefaultsTimer() {
	out := s.createRoom("Alice", 0)
	s.Equal(s.rt.rules.DefaultTimerSeconds, out.Room.TimerSeconds)
}

func (s *RoomServiceTestSuite) TestCreateRoomValidation() {
	testCases := []struct {
		name    string
		player  string
		timer   int
		wantErr error
	}{
		{name: "empty name", player: "", timer: 600, wantErr: ErrInvalidName},
		{name: "blank name", player: "   ", timer: 600, wantErr: ErrInvalidName},
		{name: "long name", player: strings.Repeat("x", 25), timer: 600, wantErr: ErrInvalidName},
		{name: "negative timer", player: "Alice", timer: -1, wantErr: ErrInvalidTimer},
		{name: "timer above max", player: "Alice", timer: 3601, wantErr: ErrInvalidTimer},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.rooms.CreateRoom(s.ctx, &CreateRoomInput{PlayerName: tc.player, TimerSeconds: tc.timer})
			s.ErrorIs(err, tc.wantErr)
			s.Equal(KindValidation, KindOf(err))
		})
	}
	s.Empty(s.store.IDs())
}

func (s *RoomServiceTestSuite) TestRoomCodesAreUnique() {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		out := s.createRoom("Alice", 600)
		s.False(seen[out.Room.ID])
		seen[out.Room.ID] = true
		for _, c := range out.Room.ID {
			s.True(strings.ContainsRune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789", c))
		}
	}
}

func (s *RoomServiceTestSuite) TestGetRoomNotFound() {
	_, err := s.rooms.GetRoom(s.ctx, "NOPE00")
	s.ErrorIs(err, ErrRoomNotFound)
	s.Equal(KindNotFound, KindOf(err))
}

func (s *RoomServiceTestSuite) TestGetSnapshotFallsBackToStore() {
	out := s.createRoom("Alice", 600)
	room, err := s.rooms.GetSnapshot(s.ctx, out.Room.ID)
	s.Require().NoError(err)
	s.Equal(out.Room.ID, room.ID)
}

func (s *RoomServiceTestSuite) TestStartRoomNeedsMinPlayers() {
	out := s.createRoom("Alice", 600)
	_, err := s.rooms.StartRoom(s.ctx, out.Room.ID)
	s.ErrorIs(err, ErrNotEnoughPlayers)
	s.Equal(model.RoomWaiting, s.room(out.Room.ID).Status)
}

func (s *RoomServiceTestSuite) TestStartRoomIsIdempotent() {
	out := s.createRoom("Alice", 600)
	s.join(out.Room.ID, "Bob")

	room, err := s.rooms.StartRoom(s.ctx, out.Room.ID)
	s.Require().NoError(err)
	s.Equal(model.RoomActive, room.Status)
	s.Equal(1, countOf(s.eventTypes(out.Room.ID), EventGameStarted))
}

func (s *RoomServiceTestSuite) TestRoundExpiryEndsRoom() {
	out := s.createRoom("Alice", 600)
	roomID := out.Room.ID
	s.join(roomID, "Bob")
	s.True(s.rt.timers.has(roundTimerKey(roomID)))

	archived := s.expectArchive()
	s.clock.Advance(600 * time.Second)

	room := s.room(roomID)
	s.Equal(model.RoomEnded, room.Status)
	s.Require().NotNil(room.EndedAt)
	s.Equal(roomID, archived.RoomID)
	s.Equal(EndReasonTimer, archived.Reason)
	s.Len(archived.Standings, 2)

	ended := s.lastEvent(roomID, EventGameEnded)
	s.Require().NotNil(ended)
	s.Equal(EndReasonTimer, ended.Payload.(gameEndedPayload).Reason)

	_, err := s.game.Call(s.ctx, &CallInput{RoomID: roomID, Caller: "Alice", Target: "Bob"})
	s.ErrorIs(err, ErrRoomNotActive)

	_, err = s.players.JoinRoom(s.ctx, &JoinRoomInput{RoomID: roomID, PlayerName: "Carol"})
	s.ErrorIs(err, ErrRoomEnded)
}

func (s *RoomServiceTestSuite) TestEndRoomCancelsPendingCall() {
	out := s.createRoom("Alice", 600)
	roomID := out.Room.ID
	s.join(roomID, "Bob")
	s.call(roomID, "Alice", "Bob")

	s.expectArchive()
	room, err := s.rooms.EndRoom(s.ctx, roomID, EndReasonManual)
	s.Require().NoError(err)
	s.Nil(room.PendingCall)
	s.Require().NotNil(room.LastCalled)
	s.Equal(model.CallCancelled, room.LastCalled.Resolution)
	s.Equal(0, s.rt.PendingTimers())

	_, err = s.rooms.EndRoom(s.ctx, roomID, EndReasonManual)
	s.ErrorIs(err, ErrRoomNotActive)
}

func (s *RoomServiceTestSuite) TestArchiveFailureDoesNotFailEnd() {
	out := s.createRoom("Alice", 600)
	s.join(out.Room.ID, "Bob")

	s.matches.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("mongo down"))
	room, err := s.rooms.EndRoom(s.ctx, out.Room.ID, EndReasonManual)
	s.Require().NoError(err)
	s.Equal(model.RoomEnded, room.Status)
}

func (s *RoomServiceTestSuite) TestDeleteRoom() {
	out := s.createRoom("Alice", 600)
	s.Require().NoError(s.rooms.DeleteRoom(s.ctx, out.Room.ID))
	s.False(s.store.Exists(out.Room.ID))
	s.Contains(s.disconnected, out.Room.ID)
	s.ErrorIs(s.rooms.DeleteRoom(s.ctx, out.Room.ID), ErrRoomNotFound)
}

func (s *RoomServiceTestSuite) TestSweepRemovesIdleRooms() {
	idle := s.createRoom("Alice", 600)
	s.clock.Advance(s.rt.rules.IdleTimeout - time.Minute)
	fresh := s.createRoom("Carol", 600)
	s.clock.Advance(2 * time.Minute)

	s.Equal(1, s.rooms.Sweep(s.ctx))
	s.False(s.store.Exists(idle.Room.ID))
	s.True(s.store.Exists(fresh.Room.ID))
}

func (s *RoomServiceTestSuite) TestSweepRemovesEndedRoomsAfterRetention() {
	out := s.createRoom("Alice", 600)
	roomID := out.Room.ID
	s.join(roomID, "Bob")

	s.expectArchive()
	_, err := s.rooms.EndRoom(s.ctx, roomID, EndReasonManual)
	s.Require().NoError(err)

	s.Equal(0, s.rooms.Sweep(s.ctx))
	s.clock.Advance(s.rt.rules.EndedRetention + time.Second)
	s.Equal(1, s.rooms.Sweep(s.ctx))
	s.False(s.store.Exists(roomID))
}

func (s *RoomServiceTestSuite) TestLeaderboardFromLiveState() {
	out := s.createRoom("Alice", 600)
	roomID := out.Room.ID
	s.join(roomID, "Bob")
	s.join(roomID, "Carol")

	s.call(roomID, "Alice", "Bob")
	_, err := s.game.Tap(s.ctx, &TapInput{RoomID: roomID, Actor: "Bob"})
	s.Require().NoError(err)

	standings, err := s.rooms.Leaderboard(s.ctx, roomID, 2)
	s.Require().NoError(err)
	s.Require().Len(standings, 2)
	s.Equal("Alice", standings[0].Name)
	s.Equal(1, standings[0].Rank)
	s.Equal(20, standings[0].Points)
	s.Equal("Carol", standings[1].Name)
}

func (s *RoomServiceTestSuite) TestPlayerStandingFromLiveState() {
	roomID := s.createRoom("Alice", 600).Room.ID
	s.join(roomID, "Bob")

	s.call(roomID, "Alice", "Bob")
	_, err := s.game.Tap(s.ctx, &TapInput{RoomID: roomID, Actor: "Bob"})
	s.Require().NoError(err)

	bob, err := s.rooms.PlayerStanding(s.ctx, roomID, "Bob")
	s.Require().NoError(err)
	s.Equal(2, bob.Rank)
	s.Equal(18, bob.Points)

	_, err = s.rooms.PlayerStanding(s.ctx, roomID, "Zed")
	s.ErrorIs(err, ErrPlayerNotFound)
	_, err = s.rooms.PlayerStanding(s.ctx, "NOPE00", "Bob")
	s.ErrorIs(err, ErrRoomNotFound)
}

func (s *RoomServiceTestSuite) TestPlayerStandingPrefersMirroredRank() {
	mr := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	s.rt.leaderboard = cache.NewLeaderboardCache(client, time.Hour)

	roomID := s.createRoom("Alice", 600).Room.ID
	s.join(roomID, "Bob")
	s.True(mr.Exists("room:" + roomID + ":lb"))

	_, err := mr.ZAdd("room:"+roomID+":lb", 99, "Bob")
	s.Require().NoError(err)

	bob, err := s.rooms.PlayerStanding(s.ctx, roomID, "Bob")
	s.Require().NoError(err)
	s.Equal(1, bob.Rank)
	s.Equal(20, bob.Points)
}

func countOf(items []string, want string) int {
	n := 0
	for _, it := range items {
		if it == want {
			n++
		}
	}
	return n
}
