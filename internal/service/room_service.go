package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"survive/internal/logger"
	"survive/internal/model"
	"survive/internal/repository"
	"survive/internal/store"

	"go.uber.org/zap"
)

const (
	EndReasonTimer       = "timer"
	EndReasonPlayersLeft = "players_left"
	EndReasonManual      = "manual"

	archiveTimeout = 5 * time.Second
)

// RoomService handles room lifecycle operations
type RoomService struct {
	rt      *Runtime
	matches repository.MatchRepo
	authSvc *AuthService
}

// NewRoomService creates a new room service
func NewRoomService(rt *Runtime, matches repository.MatchRepo, authSvc *AuthService) *RoomService {
	if matches == nil {
		matches = repository.NewNoopMatchRepo()
	}
	return &RoomService{
		rt:      rt,
		matches: matches,
		authSvc: authSvc,
	}
}

type CreateRoomInput struct {
	PlayerName   string
	TimerSeconds int
}

type CreateRoomOutput struct {
	Room         *model.Room
	Player       *model.Player
	SessionToken string
}

// CreateRoom creates a waiting room seeded with its creator as center
func (s *RoomService) CreateRoom(ctx context.Context, input *CreateRoomInput) (*CreateRoomOutput, error) {
	name, err := s.rt.validateName(input.PlayerName)
	if err != nil {
		return nil, err
	}

	rules := s.rt.rules
	timer := input.TimerSeconds
	if timer == 0 {
		timer = rules.DefaultTimerSeconds
	}
	if timer < 0 || timer > rules.MaxTimerSeconds {
		return nil, ErrInvalidTimer
	}

	now := s.rt.now()
	creator := &model.Player{
		Name:      name,
		Points:    rules.InitialPoints,
		Animal:    rules.CreatorAnimal,
		IsCenter:  true,
		Connected: true,
		SessionID: s.rt.ids.NewUUID(),
		JoinedAt:  now,
	}
	room := &model.Room{
		Status:       model.RoomWaiting,
		Players:      []*model.Player{creator},
		CenterIndex:  0,
		TimerSeconds: timer,
		MinPlayers:   rules.MinPlayers,
		MaxPlayers:   rules.MaxPlayers,
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := s.insertWithCode(room); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	var snapshot *model.Room
	if err := s.rt.update(room.ID, func(r *model.Room) error {
		s.rt.commit(r)
		snapshot = r.Clone()
		return nil
	}); err != nil {
		return nil, err
	}

	token, err := s.authSvc.IssueSessionToken(room.ID, name, creator.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	logger.LogGameEvent("room_created", room.ID,
		zap.String("creator", name),
		zap.Int("timer_seconds", timer),
	)

	return &CreateRoomOutput{
		Room:         snapshot,
		Player:       snapshot.Players[0],
		SessionToken: token,
	}, nil
}

// insertWithCode assigns a fresh room code and inserts the room
func (s *RoomService) insertWithCode(room *model.Room) error {
	for attempts := 0; attempts < 10; attempts++ {
		code, err := generateRoomCode()
		if err != nil {
			return err
		}
		if s.rt.store.Exists(code) {
			continue
		}
		room.ID = code
		err = s.rt.store.Create(room)
		if errors.Is(err, store.ErrExists) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to generate unique room code after 10 attempts")
}

// generateRoomCode creates a 6-char alphanumeric code
func generateRoomCode() (string, error) {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	const codeLen = 6

	b := make([]byte, codeLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	code := make([]byte, codeLen)
	for i := range code {
		// 256 is a multiple of 32 so the modulo is unbiased
		code[i] = chars[int(b[i])%len(chars)]
	}
	return string(code), nil
}

// GetRoom returns a snapshot of the room
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	return s.rt.get(roomID)
}

// GetSnapshot serves reads from the Redis mirror when available and falls back to the store
func (s *RoomService) GetSnapshot(ctx context.Context, roomID string) (*model.Room, error) {
	room, err := s.rt.rooms.GetSnapshot(ctx, roomID)
	if err != nil {
		s.rt.log.Warn("room snapshot read failed", zap.String("room_id", roomID), zap.Error(err))
	}
	if room != nil {
		return room, nil
	}
	return s.rt.get(roomID)
}

// StartRoom moves a waiting room to active. Starting an active room is a no-op.
func (s *RoomService) StartRoom(ctx context.Context, roomID string) (*model.Room, error) {
	var snapshot *model.Room
	err := s.rt.update(roomID, func(r *model.Room) error {
		switch r.Status {
		case model.RoomEnded:
			return ErrRoomEnded
		case model.RoomWaiting:
			if len(r.Players) < r.MinPlayers {
				return ErrNotEnoughPlayers
			}
			s.activateLocked(r)
			s.rt.publishState(r)
			s.rt.commit(r)
		}
		snapshot = r.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// activateLocked starts the round clock. Room lock must be held.
func (s *RoomService) activateLocked(r *model.Room) {
	now := s.rt.now()
	r.Status = model.RoomActive
	r.StartTime = &now

	roomID := r.ID
	duration := time.Duration(r.TimerSeconds) * time.Second
	s.rt.timers.schedule(roundTimerKey(roomID), duration, func() {
		s.onRoundExpired(roomID)
	})

	s.rt.publish(roomID, EventGameStarted, gameStartedPayload{
		GameID:       roomID,
		TimerSeconds: r.TimerSeconds,
		StartTime:    now.UTC().Format(time.RFC3339),
		EndsAt:       now.Add(duration).UTC().Format(time.RFC3339),
	})
	logger.LogGameEvent("room_started", roomID, zap.Int("players", len(r.Players)))
}

func (s *RoomService) onRoundExpired(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if _, err := s.EndRoom(ctx, roomID, EndReasonTimer); err != nil && !errors.Is(err, ErrRoomNotActive) && !errors.Is(err, ErrRoomNotFound) {
		s.rt.log.Error("round expiry failed", zap.String("room_id", roomID), zap.Error(err))
	}
}

// EndRoom stops an active room and archives the result
func (s *RoomService) EndRoom(ctx context.Context, roomID, reason string) (*model.Room, error) {
	var snapshot *model.Room
	var record *model.MatchRecord
	err := s.rt.update(roomID, func(r *model.Room) error {
		if r.Status != model.RoomActive {
			return ErrRoomNotActive
		}
		record = s.endLocked(r, reason)
		snapshot = r.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.archive(ctx, record)
	return snapshot, nil
}

// endLocked finishes the game. Room lock must be held.
func (s *RoomService) endLocked(r *model.Room, reason string) *model.MatchRecord {
	now := s.rt.now()
	r.Status = model.RoomEnded
	r.EndedAt = &now

	s.rt.timers.cancel(roundTimerKey(r.ID))
	if r.PendingCall != nil {
		cancelPendingLocked(s.rt, r, "game_ended")
	}

	standings := r.Standings()
	s.rt.publish(r.ID, EventGameEnded, gameEndedPayload{
		GameID:    r.ID,
		Reason:    reason,
		Standings: standings,
	})
	s.rt.publishState(r)
	s.rt.commit(r)

	logger.LogGameEvent("room_ended", r.ID,
		zap.String("reason", reason),
		zap.Int("rounds", r.Round),
	)

	return &model.MatchRecord{
		RoomID:       r.ID,
		Reason:       reason,
		TimerSeconds: r.TimerSeconds,
		Rounds:       r.Round,
		Standings:    standings,
		CreatedAt:    r.CreatedAt,
		StartedAt:    r.StartTime,
		EndedAt:      now,
	}
}

func (s *RoomService) archive(ctx context.Context, record *model.MatchRecord) {
	if record == nil {
		return
	}
	if err := s.matches.Create(ctx, record); err != nil {
		s.rt.log.Error("match archive failed", zap.String("room_id", record.RoomID), zap.Error(err))
	}
}

// DeleteRoom removes the room, its timers and its cache entries
func (s *RoomService) DeleteRoom(ctx context.Context, roomID string) error {
	if !s.rt.store.Exists(roomID) {
		return ErrRoomNotFound
	}
	s.rt.forget(roomID)
	logger.LogGameEvent("room_deleted", roomID)
	return nil
}

// Sweep deletes rooms idle past game.idle_timeout and ended rooms past game.ended_retention
func (s *RoomService) Sweep(ctx context.Context) int {
	now := s.rt.now()
	removed := 0
	for _, id := range s.rt.store.IDs() {
		room, err := s.rt.store.Get(id)
		if err != nil {
			continue
		}
		expired := now.Sub(room.LastActivity) > s.rt.rules.IdleTimeout
		if room.Status == model.RoomEnded && room.EndedAt != nil {
			expired = expired || now.Sub(*room.EndedAt) > s.rt.rules.EndedRetention
		}
		if !expired {
			continue
		}
		if room.Status == model.RoomActive {
			// an abandoned active room still gets a result on record
			if _, err := s.EndRoom(ctx, id, EndReasonManual); err != nil && !errors.Is(err, ErrRoomNotActive) {
				s.rt.log.Warn("end idle room failed", zap.String("room_id", id), zap.Error(err))
			}
		}
		s.rt.forget(id)
		removed++
	}
	if removed > 0 {
		s.rt.log.Info("swept rooms", zap.Int("removed", removed))
	}
	return removed
}

// RunJanitor sweeps on game.sweep_interval until ctx is done
func (s *RoomService) RunJanitor(ctx context.Context) {
	interval := s.rt.rules.SweepInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Leaderboard returns the top standings from the Redis ZSET, falling back to live state
func (s *RoomService) Leaderboard(ctx context.Context, roomID string, limit int) ([]model.Standing, error) {
	entries, err := s.rt.leaderboard.GetTop(ctx, roomID, limit)
	if err != nil {
		s.rt.log.Warn("leaderboard read failed", zap.String("room_id", roomID), zap.Error(err))
	}
	if len(entries) > 0 {
		out := make([]model.Standing, len(entries))
		for i, e := range entries {
			out[i] = model.Standing{Rank: e.Rank, Name: e.Name, Points: e.Points}
		}
		return out, nil
	}

	room, err := s.rt.get(roomID)
	if err != nil {
		return nil, err
	}
	standings := room.Standings()
	if limit > 0 && len(standings) > limit {
		standings = standings[:limit]
	}
	return standings, nil
}

// PlayerStanding returns one player's standing. The rank comes from the Redis ZSET
// when it is mirrored there, otherwise from live state.
func (s *RoomService) PlayerStanding(ctx context.Context, roomID, name string) (*model.Standing, error) {
	room, err := s.rt.get(roomID)
	if err != nil {
		return nil, err
	}

	var standing *model.Standing
	for _, st := range room.Standings() {
		if st.Name == name {
			st := st
			standing = &st
			break
		}
	}
	if standing == nil {
		return nil, ErrPlayerNotFound
	}

	rank, err := s.rt.leaderboard.GetRank(ctx, roomID, name)
	if err != nil {
		s.rt.log.Warn("leaderboard rank read failed", zap.String("room_id", roomID), zap.Error(err))
	} else if rank > 0 {
		standing.Rank = int(rank)
	}
	return standing, nil
}

// Matches returns archived results for a room code
func (s *RoomService) Matches(ctx context.Context, roomID string) ([]*model.MatchRecord, error) {
	return s.matches.ListByRoom(ctx, roomID)
}
