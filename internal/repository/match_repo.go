package repository

import (
	"context"

	"survive/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_match_repo.go survive/internal/repository MatchRepo

// MatchRepo archives finished rooms
type MatchRepo interface {
	Create(ctx context.Context, match *model.MatchRecord) error
	GetByID(ctx context.Context, id string) (*model.MatchRecord, error)
	ListByRoom(ctx context.Context, roomID string) ([]*model.MatchRecord, error)
}

type matchRepo struct {
	collection *mongo.Collection
}

func NewMatchRepo(db *mongo.Database) MatchRepo {
	return &matchRepo{
		collection: db.Collection("matches"),
	}
}

func (r *matchRepo) Create(ctx context.Context, match *model.MatchRecord) error {
	if match.ID == "" {
		match.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, match)
	return err
}

func (r *matchRepo) GetByID(ctx context.Context, id string) (*model.MatchRecord, error) {
	var match model.MatchRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&match)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &match, nil
}

// ListByRoom returns archived matches for a room code, newest first.
// Room codes are reused after eviction so more than one record can exist.
func (r *matchRepo) ListByRoom(ctx context.Context, roomID string) ([]*model.MatchRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "endedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"roomId": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var matches []*model.MatchRecord
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}
