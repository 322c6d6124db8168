package service

import (
	"context"
	"errors"
	"fmt"

	"survive/internal/logger"
	"survive/internal/model"

	"go.uber.org/zap"
)

const (
	LeaveReasonLeft    = "left"
	LeaveReasonTimeout = "disconnect_timeout"
)

// PlayerService handles the room roster: join, leave, disconnect and resume
type PlayerService struct {
	rt      *Runtime
	rooms   *RoomService
	authSvc *AuthService
}

// NewPlayerService creates a new player service
func NewPlayerService(rt *Runtime, rooms *RoomService, authSvc *AuthService) *PlayerService {
	return &PlayerService{
		rt:      rt,
		rooms:   rooms,
		authSvc: authSvc,
	}
}

type JoinRoomInput struct {
	RoomID     string
	PlayerName string
}

type JoinRoomOutput struct {
	Room         *model.Room
	Player       *model.Player
	SessionToken string
}

// JoinRoom adds a player to the roster. A taken name is rejected with ErrAlreadyExists
// and leaves the roster untouched. The room starts once it reaches its minimum size.
func (s *PlayerService) JoinRoom(ctx context.Context, input *JoinRoomInput) (*JoinRoomOutput, error) {
	name, err := s.rt.validateName(input.PlayerName)
	if err != nil {
		return nil, err
	}

	var out JoinRoomOutput
	var sessionID string
	err = s.rt.update(input.RoomID, func(r *model.Room) error {
		if r.Status == model.RoomEnded {
			return ErrRoomEnded
		}
		if r.IndexOf(name) >= 0 {
			return ErrAlreadyExists
		}
		if len(r.Players) >= r.MaxPlayers {
			return ErrRoomFull
		}

		sessionID = s.rt.ids.NewUUID()
		player := &model.Player{
			Name:      name,
			Points:    s.rt.rules.InitialPoints,
			Animal:    r.NextAnimal(s.rt.rules.Animals),
			Connected: true,
			SessionID: sessionID,
			JoinedAt:  s.rt.now(),
		}
		r.Players = append(r.Players, player)
		r.SyncCenter()

		s.rt.publish(r.ID, EventPlayerJoined, playerJoinedPayload{
			GameID: r.ID,
			Player: *player,
			Count:  len(r.Players),
		})
		if r.Status == model.RoomWaiting && len(r.Players) >= r.MinPlayers {
			s.rooms.activateLocked(r)
		}
		s.rt.publishState(r)
		s.rt.commit(r)

		out.Room = r.Clone()
		out.Player = out.Room.PlayerByName(name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.SessionToken, err = s.authSvc.IssueSessionToken(input.RoomID, name, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	logger.LogGameEvent("player_joined", input.RoomID, zap.String("player", name))
	return &out, nil
}

// Disconnect marks the player offline and schedules eviction after game.rejoin_grace.
// sessionID must match the roster entry so a stale socket cannot knock out a resumed one.
func (s *PlayerService) Disconnect(ctx context.Context, roomID, name, sessionID string) error {
	err := s.rt.update(roomID, func(r *model.Room) error {
		p := r.PlayerByName(name)
		if p == nil || p.SessionID != sessionID || !p.Connected {
			return nil
		}

		now := s.rt.now()
		p.Connected = false
		p.DisconnectedAt = &now

		grace := s.rt.rules.RejoinGrace
		s.rt.timers.schedule(evictTimerKey(roomID, name), grace, func() {
			s.onGraceExpired(roomID, name, sessionID)
		})

		s.rt.publish(roomID, EventPlayerDisconnected, playerDisconnectedPayload{
			GameID:       roomID,
			PlayerName:   name,
			GraceSeconds: int(grace.Seconds()),
			Connected:    r.ConnectedCount(),
		})
		s.rt.publishState(r)
		s.rt.commit(r)
		return nil
	})
	if errors.Is(err, ErrRoomNotFound) {
		return nil
	}
	return err
}

func (s *PlayerService) onGraceExpired(roomID, name, sessionID string) {
	var record *model.MatchRecord
	var emptied bool
	err := s.rt.update(roomID, func(r *model.Room) error {
		idx := r.IndexOf(name)
		if idx < 0 {
			return nil
		}
		p := r.Players[idx]
		if p.Connected || p.SessionID != sessionID {
			return nil
		}
		record, emptied = s.evictLocked(r, idx, LeaveReasonTimeout)
		return nil
	})
	if err != nil && !errors.Is(err, ErrRoomNotFound) {
		s.rt.log.Error("eviction failed", zap.String("room_id", roomID), zap.String("player", name), zap.Error(err))
		return
	}
	s.afterEviction(roomID, record, emptied)
}

type ResumeOutput struct {
	Room         *model.Room
	Player       *model.Player
	SessionToken string
}

// Resume reattaches a player using a session token. The session id rotates so the
// previous token and socket no longer act for the player.
func (s *PlayerService) Resume(ctx context.Context, token string) (*ResumeOutput, error) {
	claims, err := s.authSvc.ValidateSessionToken(token)
	if err != nil {
		return nil, ErrInvalidSession
	}

	var out ResumeOutput
	var sessionID string
	err = s.rt.update(claims.RoomID, func(r *model.Room) error {
		p := r.PlayerByName(claims.PlayerName)
		if p == nil || p.SessionID != claims.SessionID {
			return ErrInvalidSession
		}

		s.rt.timers.cancel(evictTimerKey(r.ID, p.Name))
		sessionID = s.rt.ids.NewUUID()
		p.SessionID = sessionID
		p.Connected = true
		p.DisconnectedAt = nil

		s.rt.publish(r.ID, EventPlayerReconnected, playerReconnectedPayload{
			GameID:     r.ID,
			PlayerName: p.Name,
			Connected:  r.ConnectedCount(),
		})
		s.rt.publishState(r)
		s.rt.commit(r)

		out.Room = r.Clone()
		out.Player = out.Room.PlayerByName(p.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.SessionToken, err = s.authSvc.IssueSessionToken(claims.RoomID, claims.PlayerName, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}
	return &out, nil
}

// SessionOf returns the current session id of a player, used to bind sockets
func (s *PlayerService) SessionOf(roomID, name string) (string, error) {
	room, err := s.rt.get(roomID)
	if err != nil {
		return "", err
	}
	p := room.PlayerByName(name)
	if p == nil {
		return "", ErrPlayerNotFound
	}
	return p.SessionID, nil
}

// Leave removes the player immediately
func (s *PlayerService) Leave(ctx context.Context, roomID, name string) error {
	var record *model.MatchRecord
	var emptied bool
	err := s.rt.update(roomID, func(r *model.Room) error {
		idx := r.IndexOf(name)
		if idx < 0 {
			return ErrPlayerNotFound
		}
		record, emptied = s.evictLocked(r, idx, LeaveReasonLeft)
		return nil
	})
	if err != nil {
		return err
	}
	s.afterEviction(roomID, record, emptied)
	return nil
}

// evictLocked removes a player while keeping exactly one center. A pending call the
// player is party to is cancelled. An active room that drops below two players ends.
// The last player out removes the room from the store before the lock is released,
// so no join can land in a room that is about to be forgotten.
// Room lock must be held.
func (s *PlayerService) evictLocked(r *model.Room, idx int, reason string) (*model.MatchRecord, bool) {
	name := r.Players[idx].Name
	s.rt.timers.cancel(evictTimerKey(r.ID, name))

	if pc := r.PendingCall; pc != nil && (pc.Caller == name || pc.Target == name) {
		cancelPendingLocked(s.rt, r, "player_left")
	}

	r.RemovePlayer(idx)

	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := s.rt.leaderboard.Remove(ctx, r.ID, name); err != nil {
		s.rt.log.Warn("leaderboard remove failed", zap.String("room_id", r.ID), zap.Error(err))
	}

	s.rt.publish(r.ID, EventPlayerLeft, playerLeftPayload{
		GameID:     r.ID,
		PlayerName: name,
		Reason:     reason,
	})
	logger.LogGameEvent("player_left", r.ID, zap.String("player", name), zap.String("reason", reason))

	if len(r.Players) == 0 {
		s.rt.store.Delete(r.ID)
		return nil, true
	}

	var record *model.MatchRecord
	if r.Status == model.RoomActive && len(r.Players) < 2 {
		record = s.rooms.endLocked(r, EndReasonPlayersLeft)
	} else {
		s.rt.publishState(r)
		s.rt.commit(r)
	}
	return record, false
}

// afterEviction runs the work that must happen outside the room lock
func (s *PlayerService) afterEviction(roomID string, record *model.MatchRecord, emptied bool) {
	if record != nil {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		s.rooms.archive(ctx, record)
	}

	if emptied {
		s.rt.forget(roomID)
		logger.LogGameEvent("room_deleted", roomID, zap.String("reason", "empty"))
	}
}
