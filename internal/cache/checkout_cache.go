package cache

import (
	"context"
	"encoding/json"
	"time"

	"survive/internal/model"

	"github.com/redis/go-redis/v9"
)

// CheckoutCache tracks boost checkouts awaiting payment confirmation
type CheckoutCache interface {
	Set(ctx context.Context, session *model.CheckoutSession) error
	Get(ctx context.Context, id string) (*model.CheckoutSession, error)
	Delete(ctx context.Context, id string) error
}

type checkoutCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCheckoutCache creates a checkout cache; entries outlive the provider's session expiry
func NewCheckoutCache(client *redis.Client) CheckoutCache {
	return &checkoutCache{
		client: client,
		ttl:    25 * time.Hour,
	}
}

func (c *checkoutCache) key(id string) string {
	return "checkout:" + id
}

func (c *checkoutCache) Set(ctx context.Context, session *model.CheckoutSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(session.ID), data, c.ttl).Err()
}

// Get returns nil, nil for an unknown checkout
func (c *checkoutCache) Get(ctx context.Context, id string) (*model.CheckoutSession, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.CheckoutSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *checkoutCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
