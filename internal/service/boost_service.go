package service

import (
	"context"

	"survive/internal/logger"
	"survive/internal/model"
	"survive/internal/repository"

	"go.uber.org/zap"
)

// BoostService is the one-shot per-player bonus ledger
type BoostService struct {
	rt                  *Runtime
	grants              repository.BoostRepo
	requireConfirmation bool
}

// NewBoostService creates a new boost service. With requireConfirmation set, boosts are
// granted only from confirmed payments.
func NewBoostService(rt *Runtime, grants repository.BoostRepo, requireConfirmation bool) *BoostService {
	if grants == nil {
		grants = repository.NewNoopBoostRepo()
	}
	return &BoostService{
		rt:                  rt,
		grants:              grants,
		requireConfirmation: requireConfirmation,
	}
}

type GrantInput struct {
	RoomID     string
	PlayerName string
	Source     model.BoostSource
	PaymentRef string
}

// GrantResult reports whether this call applied the boost, and the player's points after it
type GrantResult struct {
	Applied bool `json:"applied"`
	Points  int  `json:"points"`
}

// RequestGrant is the client-initiated purchase path
func (s *BoostService) RequestGrant(ctx context.Context, roomID, playerName string) (*GrantResult, error) {
	if s.requireConfirmation {
		return nil, ErrPaymentRequired
	}
	return s.Grant(ctx, &GrantInput{
		RoomID:     roomID,
		PlayerName: playerName,
		Source:     model.BoostDirect,
	})
}

// Grant applies the boost at most once per player. A repeat returns Applied=false and
// leaves points unchanged.
func (s *BoostService) Grant(ctx context.Context, input *GrantInput) (*GrantResult, error) {
	var result GrantResult
	var grant *model.BoostGrant
	err := s.rt.update(input.RoomID, func(r *model.Room) error {
		p := r.PlayerByName(input.PlayerName)
		if p == nil {
			return ErrPlayerNotFound
		}
		if p.HasBoost {
			result = GrantResult{Applied: false, Points: p.Points}
			return nil
		}

		points := s.rt.rules.BoostPoints
		p.HasBoost = true
		p.Points += points
		result = GrantResult{Applied: true, Points: p.Points}

		if input.Source == model.BoostPayment {
			// the buyer may not be the socket that asked, so tell them directly
			s.rt.broadcaster.BroadcastToPlayer(r.ID, p.Name, EventBoostApplied, boostAppliedPayload{
				GameID: r.ID,
				Points: p.Points,
			})
		}
		s.rt.commit(r)

		grant = &model.BoostGrant{
			RoomID:     r.ID,
			PlayerName: p.Name,
			Points:     points,
			Source:     input.Source,
			PaymentRef: input.PaymentRef,
			GrantedAt:  s.rt.now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if grant != nil {
		if err := s.grants.Create(ctx, grant); err != nil {
			s.rt.log.Error("boost audit write failed",
				zap.String("room_id", grant.RoomID),
				zap.String("player", grant.PlayerName),
				zap.Error(err),
			)
		}
		logger.LogGameEvent("boost_applied", grant.RoomID,
			zap.String("player", grant.PlayerName),
			zap.String("source", string(grant.Source)),
		)
	}
	return &result, nil
}

// History lists the applied boosts of a room
func (s *BoostService) History(ctx context.Context, roomID string) ([]*model.BoostGrant, error) {
	return s.grants.ListByRoom(ctx, roomID)
}
