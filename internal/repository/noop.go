package repository

import (
	"context"

	"survive/internal/model"
)

// Noop repos are used when Mongo archiving is disabled

type noopMatchRepo struct{}

func NewNoopMatchRepo() MatchRepo { return noopMatchRepo{} }

func (noopMatchRepo) Create(context.Context, *model.MatchRecord) error { return nil }
func (noopMatchRepo) GetByID(context.Context, string) (*model.MatchRecord, error) {
	return nil, nil
}
func (noopMatchRepo) ListByRoom(context.Context, string) ([]*model.MatchRecord, error) {
	return nil, nil
}

type noopBoostRepo struct{}

func NewNoopBoostRepo() BoostRepo { return noopBoostRepo{} }

func (noopBoostRepo) Create(context.Context, *model.BoostGrant) error { return nil }
func (noopBoostRepo) ListByRoom(context.Context, string) ([]*model.BoostGrant, error) {
	return nil, nil
}
func (noopBoostRepo) CountByPaymentRef(context.Context, string) (int64, error) { return 0, nil }
