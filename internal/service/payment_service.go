package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"survive/internal/cache"
	"survive/internal/config"
	"survive/internal/model"
	"survive/internal/repository"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_checkout_provider.go survive/internal/service CheckoutProvider

// CheckoutProvider creates hosted checkout pages with the payment provider
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, priceRef, successURL, cancelURL string, metadata map[string]string) (id string, url string, err error)
}

const (
	metaRoomID     = "room_id"
	metaPlayerName = "player_name"
)

// StripeCheckout is the Stripe Checkout Sessions provider
type StripeCheckout struct {
	api *client.API
}

// NewStripeCheckout creates a provider authenticated with the given secret key
func NewStripeCheckout(secretKey string) *StripeCheckout {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeCheckout{api: sc}
}

func (p *StripeCheckout) CreateCheckoutSession(ctx context.Context, priceRef, successURL, cancelURL string, metadata map[string]string) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceRef),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: metadata,
	}
	params.Context = ctx
	if ref, ok := metadata[metaRoomID]; ok {
		params.ClientReferenceID = stripe.String(ref + ":" + metadata[metaPlayerName])
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", "", err
	}
	return sess.ID, sess.URL, nil
}

// PaymentService ties boost purchases to confirmed payments
type PaymentService struct {
	cfg       config.PaymentConfig
	provider  CheckoutProvider
	checkouts cache.CheckoutCache
	boosts    *BoostService
	grants    repository.BoostRepo
	rt        *Runtime
}

// NewPaymentService creates a new payment service
func NewPaymentService(cfg config.PaymentConfig, provider CheckoutProvider, checkouts cache.CheckoutCache, boosts *BoostService, grants repository.BoostRepo, rt *Runtime) *PaymentService {
	if checkouts == nil {
		checkouts = cache.NewNoopCheckoutCache()
	}
	if grants == nil {
		grants = repository.NewNoopBoostRepo()
	}
	return &PaymentService{
		cfg:       cfg,
		provider:  provider,
		checkouts: checkouts,
		boosts:    boosts,
		grants:    grants,
		rt:        rt,
	}
}

// CreateCheckout starts a boost purchase and returns the hosted checkout URL
func (s *PaymentService) CreateCheckout(ctx context.Context, roomID, playerName string) (*model.CheckoutSession, error) {
	if !s.cfg.Enabled || s.provider == nil {
		return nil, ErrPaymentsDisabled
	}

	room, err := s.rt.get(roomID)
	if err != nil {
		return nil, err
	}
	p := room.PlayerByName(playerName)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if p.HasBoost {
		return nil, ErrBoostAlreadyApplied
	}

	id, url, err := s.provider.CreateCheckoutSession(ctx, s.cfg.PriceID, s.cfg.SuccessURL, s.cfg.CancelURL, map[string]string{
		metaRoomID:     roomID,
		metaPlayerName: playerName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	session := &model.CheckoutSession{
		ID:         id,
		RoomID:     roomID,
		PlayerName: playerName,
		URL:        url,
		CreatedAt:  s.rt.now(),
	}
	if err := s.checkouts.Set(ctx, session); err != nil {
		s.rt.log.Warn("checkout cache write failed", zap.String("checkout_id", id), zap.Error(err))
	}

	s.rt.log.Info("checkout created",
		zap.String("room_id", roomID),
		zap.String("player", playerName),
		zap.String("checkout_id", id),
	)
	return session, nil
}

// HandleWebhook verifies a provider event and grants the boost for a paid checkout.
// Unrelated or unpaid events return a nil result.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*GrantResult, error) {
	if !s.cfg.Enabled {
		return nil, ErrPaymentsDisabled
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.rt.log.Warn("webhook signature rejected", zap.Error(err))
		return nil, ErrBadSignature
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		s.rt.log.Debug("webhook event ignored", zap.String("type", string(event.Type)))
		return nil, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, nil
	}

	seen, err := s.grants.CountByPaymentRef(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check payment reference: %w", err)
	}
	if seen > 0 {
		s.rt.log.Info("duplicate payment event", zap.String("checkout_id", sess.ID))
		return &GrantResult{Applied: false}, nil
	}

	roomID, playerName := sess.Metadata[metaRoomID], sess.Metadata[metaPlayerName]
	if pending, err := s.checkouts.Get(ctx, sess.ID); err == nil && pending != nil {
		roomID, playerName = pending.RoomID, pending.PlayerName
	}
	if roomID == "" || playerName == "" {
		return nil, fmt.Errorf("checkout %s has no room binding", sess.ID)
	}

	result, err := s.boosts.Grant(ctx, &GrantInput{
		RoomID:     roomID,
		PlayerName: playerName,
		Source:     model.BoostPayment,
		PaymentRef: sess.ID,
	})
	if err != nil {
		// the room may be gone by the time the payment settles
		if errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrPlayerNotFound) {
			s.rt.log.Warn("paid boost has no recipient",
				zap.String("checkout_id", sess.ID),
				zap.String("room_id", roomID),
				zap.String("player", playerName),
			)
		}
		return nil, err
	}

	if err := s.checkouts.Delete(ctx, sess.ID); err != nil {
		s.rt.log.Warn("checkout cache delete failed", zap.String("checkout_id", sess.ID), zap.Error(err))
	}
	return result, nil
}
