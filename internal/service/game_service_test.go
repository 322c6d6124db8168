package service

import (
	"testing"
	"time"

	"survive/internal/model"

	"github.com/stretchr/testify/suite"
)

type GameServiceTestSuite struct {
	gameSuite
	roomID string
}

func TestGameServiceTestSuite(t *testing.T) {
	suite.Run(t, new(GameServiceTestSuite))
}

func (s *GameServiceTestSuite) SetupTest() {
	s.gameSuite.SetupTest()
	s.roomID = s.createRoom("Alice", 600).Room.ID
	s.join(s.roomID, "Bob")
}

func (s *GameServiceTestSuite) TestAliceCallsBobAndBobTaps() {
	before := s.room(s.roomID)
	s.Equal(model.RoomActive, before.Status)
	bobAnimal := before.PlayerByName("Bob").Animal
	s.Equal("Badger", bobAnimal)

	called := s.call(s.roomID, "Alice", "Bob")
	s.Require().NotNil(called.Call)
	s.Equal("Alice", called.Call.Caller)
	s.Equal("Bob", called.Call.Target)
	s.Equal(s.clock.Now().Add(10*time.Second), called.Call.Deadline)
	s.NotNil(s.room(s.roomID).PendingCall)

	out, err := s.game.Tap(s.ctx, &TapInput{RoomID: s.roomID, Actor: "Bob", Target: "Bob"})
	s.Require().NoError(err)
	s.Equal(model.ResolvedByTap, out.Outcome.Resolution)

	room := s.room(s.roomID)
	bob := room.PlayerByName("Bob")
	alice := room.PlayerByName("Alice")
	s.True(bob.IsCenter)
	s.False(alice.IsCenter)
	s.Equal(1, room.CenterIndex)
	s.Equal("Aardvark", bob.Animal)
	s.Equal(bobAnimal, alice.Animal)
	s.Equal(18, bob.Points)
	s.Equal(20, alice.Points)
	s.Nil(room.PendingCall)
	s.Equal(1, room.Round)
	s.False(s.rt.timers.has(callTimerKey(s.roomID)))

	types := s.eventTypes(s.roomID)
	s.Contains(types, EventCallIssued)
	s.Contains(types, EventPlayerTapped)
	s.Contains(types, EventAnimalSwitched)
}

func (s *GameServiceTestSuite) TestTimeoutAutoResolvesLikeTap() {
	bobAnimal := s.room(s.roomID).PlayerByName("Bob").Animal
	s.call(s.roomID, "Alice", "Bob")

	s.clock.Advance(9 * time.Second)
	s.NotNil(s.room(s.roomID).PendingCall)

	s.clock.Advance(time.Second)
	room := s.room(s.roomID)
	s.Nil(room.PendingCall)
	bob := room.PlayerByName("Bob")
	s.True(bob.IsCenter)
	s.Equal("Aardvark", bob.Animal)
	s.Equal(bobAnimal, room.PlayerByName("Alice").Animal)
	s.Equal(18, bob.Points)
	s.Require().NotNil(room.LastCalled)
	s.Equal(model.ResolvedByTimeout, room.LastCalled.Resolution)

	switched := s.lastEvent(s.roomID, EventAnimalSwitched)
	s.Require().NotNil(switched)
	s.Equal(string(model.ResolvedByTimeout), switched.Payload.(animalSwitchedPayload).Resolution)
}

func (s *GameServiceTestSuite) TestStaleTimeoutDoesNotResolveAgain() {
	s.call(s.roomID, "Alice", "Bob")
	_, err := s.game.Tap(s.ctx, &TapInput{RoomID: s.roomID, Actor: "Alice"})
	s.Require().NoError(err)

	s.clock.Advance(30 * time.Second)
	room := s.room(s.roomID)
	s.Equal(1, room.Round)
	s.True(room.PlayerByName("Bob").IsCenter)
	s.Equal(18, room.PlayerByName("Bob").Points)
}

func (s *GameServiceTestSuite) TestTimeoutForOldCallIgnored() {
	s.call(s.roomID, "Alice", "Bob")
	callID := s.room(s.roomID).PendingCall.ID
	_, err := s.game.Tap(s.ctx, &TapInput{RoomID: s.roomID, Actor: "Bob"})
	s.Require().NoError(err)

	s.call(s.roomID, "Bob", "Alice")
	s.game.onCallTimeout(s.roomID, callID)

	room := s.room(s.roomID)
	s.NotNil(room.PendingCall)
	s.Equal(1, room.Round)
}

func (s *GameServiceTestSuite) TestCallWhilePendingRejected() {
	s.join(s.roomID, "Carol")
	s.call(s.roomID, "Alice", "Bob")
	before := s.room(s.roomID)

	_, err := s.game.Call(s.ctx, &CallInput{RoomID: s.roomID, Caller: "Alice", Target: "Carol"})
	s.ErrorIs(err, ErrCallAlreadyPending)
	s.Equal(KindConflict, KindOf(err))

	after := s.room(s.roomID)
	s.Equal(before.CenterIndex, after.CenterIndex)
	s.Equal(before.PendingCall.ID, after.PendingCall.ID)
	for i, p := range after.Players {
		s.Equal(before.Players[i].Animal, p.Animal)
		s.Equal(before.Players[i].Points, p.Points)
	}
}

func (s *GameServiceTestSuite) TestCallValidation() {
	testCases := []struct {
		name    string
		caller  string
		target  string
		wantErr error
	}{
		{name: "unknown caller", caller: "Zed", target: "Bob", wantErr: ErrPlayerNotFound},
		{name: "not center", caller: "Bob", target: "Alice", wantErr: ErrNotCenter},
		{name: "unknown target", caller: "Alice", target: "Zed", wantErr: ErrTargetNotFound},
		{name: "self", caller: "Alice", target: "Alice", wantErr: ErrInvalidTarget},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.game.Call(s.ctx, &CallInput{RoomID: s.roomID, Caller: tc.caller, Target: tc.target})
			s.ErrorIs(err, tc.wantErr)
		})
	}
	s.Nil(s.room(s.roomID).PendingCall)

	_, err := s.game.Call(s.ctx, &CallInput{RoomID: "NOPE00", Caller: "Alice", Target: "Bob"})
	s.ErrorIs(err, ErrRoomNotFound)
}

func (s *GameServiceTestSuite) TestCallInWaitingRoomRejected() {
	waiting := s.createRoom("Dora", 600).Room.ID
	_, err := s.game.Call(s.ctx, &CallInput{RoomID: waiting, Caller: "Dora", Target: "Dora"})
	s.ErrorIs(err, ErrRoomNotActive)
}

func (s *GameServiceTestSuite) TestTapValidation() {
	_, err := s.game.Tap(s.ctx, &TapInput{RoomID: s.roomID, Actor: "Alice"})
	s.ErrorIs(err, ErrNoPendingCall)

	s.join(s.roomID, "Carol")
	s.call(s.roomID, "Alice", "Bob")

	_, err = s.game.Tap(s.ctx, &TapInput{RoomID: s.roomID, Actor: "Carol"})
	s.ErrorIs(err, ErrNotCenter)

	_, err = s.game.Tap(s.ctx, &TapInput{RoomID: s.roomID, Actor: "Alice", Target: "Carol"})
	s.ErrorIs(err, ErrTargetMismatch)

	_, err = s.game.Tap(s.ctx, &TapInput{RoomID: s.roomID, Actor: "Alice", Target: "Zed"})
	s.ErrorIs(err, ErrTargetNotFound)

	_, err = s.game.Tap(s.ctx, &TapInput{RoomID: s.roomID, Actor: "Zed"})
	s.ErrorIs(err, ErrPlayerNotFound)

	s.NotNil(s.room(s.roomID).PendingCall)
}

func (s *GameServiceTestSuite) TestPointsNeverDropBelowZero() {
	s.Require().NoError(s.store.Update(s.roomID, func(r *model.Room) error {
		r.PlayerByName("Bob").Points = 1
		return nil
	}))

	s.call(s.roomID, "Alice", "Bob")
	out, err := s.game.Tap(s.ctx, &TapInput{RoomID: s.roomID, Actor: "Bob"})
	s.Require().NoError(err)
	s.Equal(0, out.Outcome.TargetPoints)
	s.Equal(0, s.room(s.roomID).PlayerByName("Bob").Points)

	s.call(s.roomID, "Bob", "Alice")
	_, err = s.game.Tap(s.ctx, &TapInput{RoomID: s.roomID, Actor: "Alice"})
	s.Require().NoError(err)
	s.call(s.roomID, "Alice", "Bob")
	_, err = s.game.Tap(s.ctx, &TapInput{RoomID: s.roomID, Actor: "Alice"})
	s.Require().NoError(err)
	s.Equal(0, s.room(s.roomID).PlayerByName("Bob").Points)
}

func (s *GameServiceTestSuite) TestOneCenterAcrossManyRounds() {
	s.join(s.roomID, "Carol")
	s.join(s.roomID, "Dave")
	names := []string{"Alice", "Bob", "Carol", "Dave"}

	for round := 0; round < 24; round++ {
		room := s.room(s.roomID)
		s.assertOneCenter(room)
		s.assertDistinctAnimals(room)

		center := room.Center().Name
		target := names[(round*3+1)%len(names)]
		if target == center {
			target = names[(round*3+2)%len(names)]
		}
		before := room.PlayerByName(target).Points
		centerAnimal := room.Center().Animal
		targetAnimal := room.PlayerByName(target).Animal

		s.call(s.roomID, center, target)
		if round%2 == 0 {
			_, err := s.game.Tap(s.ctx, &TapInput{RoomID: s.roomID, Actor: center})
			s.Require().NoError(err)
		} else {
			s.clock.Advance(s.rt.rules.CallWindow)
		}

		after := s.room(s.roomID)
		s.assertOneCenter(after)
		s.assertDistinctAnimals(after)
		s.Equal(target, after.Center().Name)
		s.Equal(centerAnimal, after.PlayerByName(target).Animal)
		s.Equal(targetAnimal, after.PlayerByName(center).Animal)
		want := before - 2
		if want < 0 {
			want = 0
		}
		s.Equal(want, after.PlayerByName(target).Points)
	}
	s.Equal(24, s.room(s.roomID).Round)
}
