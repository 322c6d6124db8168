package service

import (
	"context"
	"errors"
	"time"

	"survive/internal/logger"
	"survive/internal/model"

	"go.uber.org/zap"
)

// GameService applies the call/tap turn rules
type GameService struct {
	rt *Runtime
}

// NewGameService creates a new game service
func NewGameService(rt *Runtime) *GameService {
	return &GameService{rt: rt}
}

type CallInput struct {
	RoomID string
	Caller string
	Target string
}

type CallOutput struct {
	Call *model.PendingCall
	Room *model.Room
}

// Call lets the center name a target. The call resolves on tap or when the call window elapses.
func (s *GameService) Call(ctx context.Context, input *CallInput) (*CallOutput, error) {
	var out CallOutput
	err := s.rt.update(input.RoomID, func(r *model.Room) error {
		if r.Status != model.RoomActive {
			return ErrRoomNotActive
		}
		ci := r.IndexOf(input.Caller)
		if ci < 0 {
			return ErrPlayerNotFound
		}
		if ci != r.CenterIndex {
			return ErrNotCenter
		}
		ti := r.IndexOf(input.Target)
		if ti < 0 {
			return ErrTargetNotFound
		}
		if ti == ci {
			return ErrInvalidTarget
		}
		if r.PendingCall != nil {
			return ErrCallAlreadyPending
		}

		now := s.rt.now()
		pc := &model.PendingCall{
			ID:       s.rt.ids.NewUUID(),
			Caller:   input.Caller,
			Target:   input.Target,
			IssuedAt: now,
			Deadline: now.Add(s.rt.rules.CallWindow),
		}
		r.PendingCall = pc

		roomID, callID := r.ID, pc.ID
		s.rt.timers.schedule(callTimerKey(roomID), s.rt.rules.CallWindow, func() {
			s.onCallTimeout(roomID, callID)
		})

		s.rt.publish(roomID, EventCallIssued, callIssuedPayload{
			GameID:   roomID,
			CallID:   callID,
			Caller:   pc.Caller,
			Target:   pc.Target,
			Deadline: pc.Deadline.UTC().Format(time.RFC3339Nano),
		})
		s.rt.commit(r)

		out.Room = r.Clone()
		out.Call = out.Room.PendingCall
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.rt.log.Debug("call issued",
		zap.String("room_id", input.RoomID),
		zap.String("caller", input.Caller),
		zap.String("target", input.Target),
	)
	return &out, nil
}

type TapInput struct {
	RoomID string
	// Actor is the player confirming; the current center or the called target
	Actor string
	// Target must name the pending call's target. Empty means the pending target.
	Target string
}

type TapOutput struct {
	Outcome *model.CallOutcome
	Room    *model.Room
}

// Tap confirms the pending call and applies the swap
func (s *GameService) Tap(ctx context.Context, input *TapInput) (*TapOutput, error) {
	var out TapOutput
	err := s.rt.update(input.RoomID, func(r *model.Room) error {
		if r.Status != model.RoomActive {
			return ErrRoomNotActive
		}
		pc := r.PendingCall
		if pc == nil {
			return ErrNoPendingCall
		}
		if r.IndexOf(input.Actor) < 0 {
			return ErrPlayerNotFound
		}
		if input.Actor != r.Center().Name && input.Actor != pc.Target {
			return ErrNotCenter
		}
		target := input.Target
		if target == "" {
			target = pc.Target
		}
		if r.IndexOf(target) < 0 {
			return ErrTargetNotFound
		}
		if target != pc.Target {
			return ErrTargetMismatch
		}

		s.rt.timers.cancel(callTimerKey(r.ID))
		s.rt.publish(r.ID, EventPlayerTapped, playerTappedPayload{
			GameID: r.ID,
			CallID: pc.ID,
			By:     input.Actor,
			Target: target,
		})

		outcome := resolveLocked(s.rt, r, model.ResolvedByTap)
		out.Outcome = &outcome
		out.Room = r.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// onCallTimeout auto-resolves the call if it is still the one that was scheduled
func (s *GameService) onCallTimeout(roomID, callID string) {
	err := s.rt.update(roomID, func(r *model.Room) error {
		if r.Status != model.RoomActive || r.PendingCall == nil || r.PendingCall.ID != callID {
			return nil
		}
		resolveLocked(s.rt, r, model.ResolvedByTimeout)
		return nil
	})
	if err != nil && !errors.Is(err, ErrRoomNotFound) {
		s.rt.log.Error("call timeout failed", zap.String("room_id", roomID), zap.Error(err))
	}
}

// resolveLocked swaps animals between the center and the called target, hands the
// center role to the target and charges the target the swap cost. Room lock must be held
// and r.PendingCall must be set.
func resolveLocked(rt *Runtime, r *model.Room, how model.Resolution) model.CallOutcome {
	pc := r.PendingCall
	center := r.Center()
	ti := r.IndexOf(pc.Target)
	target := r.Players[ti]

	center.Animal, target.Animal = target.Animal, center.Animal
	r.CenterIndex = ti
	r.SyncCenter()

	target.Points -= rt.rules.SwapCost
	if target.Points < 0 {
		target.Points = 0
	}

	r.PendingCall = nil
	r.Round++

	outcome := model.CallOutcome{
		CallID:       pc.ID,
		Caller:       center.Name,
		Target:       target.Name,
		Resolution:   how,
		CallerAnimal: center.Animal,
		TargetAnimal: target.Animal,
		TargetPoints: target.Points,
		At:           rt.now(),
	}
	r.LastCalled = &outcome

	rt.publish(r.ID, EventAnimalSwitched, animalSwitchedPayload{
		GameID:     r.ID,
		CallID:     pc.ID,
		Resolution: string(how),
		From:       center.Name,
		To:         target.Name,
		FromAnimal: center.Animal,
		ToAnimal:   target.Animal,
		ToPoints:   target.Points,
		Round:      r.Round,
	})
	rt.publishState(r)
	rt.commit(r)

	logger.LogGameEvent("call_resolved", r.ID,
		zap.String("call_id", pc.ID),
		zap.String("resolution", string(how)),
		zap.String("new_center", target.Name),
		zap.Int("round", r.Round),
	)
	return outcome
}

// cancelPendingLocked drops the pending call without a swap. Room lock must be held.
func cancelPendingLocked(rt *Runtime, r *model.Room, reason string) {
	pc := r.PendingCall
	if pc == nil {
		return
	}
	rt.timers.cancel(callTimerKey(r.ID))
	r.PendingCall = nil
	r.LastCalled = &model.CallOutcome{
		CallID:     pc.ID,
		Caller:     pc.Caller,
		Target:     pc.Target,
		Resolution: model.CallCancelled,
		At:         rt.now(),
	}
	rt.publish(r.ID, EventCallCancelled, callCancelledPayload{
		GameID: r.ID,
		CallID: pc.ID,
		Reason: reason,
	})
}
