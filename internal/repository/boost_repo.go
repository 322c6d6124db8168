package repository

import (
	"context"

	"survive/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_boost_repo.go survive/internal/repository BoostRepo

// BoostRepo is the audit trail of applied boosts
type BoostRepo interface {
	Create(ctx context.Context, grant *model.BoostGrant) error
	ListByRoom(ctx context.Context, roomID string) ([]*model.BoostGrant, error)
	CountByPaymentRef(ctx context.Context, ref string) (int64, error)
}

type boostRepo struct {
	collection *mongo.Collection
}

func NewBoostRepo(db *mongo.Database) BoostRepo {
	return &boostRepo{
		collection: db.Collection("boost_grants"),
	}
}

func (r *boostRepo) Create(ctx context.Context, grant *model.BoostGrant) error {
	if grant.ID == "" {
		grant.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, grant)
	return err
}

func (r *boostRepo) ListByRoom(ctx context.Context, roomID string) ([]*model.BoostGrant, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"roomId": roomID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var grants []*model.BoostGrant
	if err := cursor.All(ctx, &grants); err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *boostRepo) CountByPaymentRef(ctx context.Context, ref string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"paymentRef": ref})
}
