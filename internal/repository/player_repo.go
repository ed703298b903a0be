package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ParikTV/balanza-server/internal/model"
)

// PlayerRepo handles MongoDB operations for players
type PlayerRepo interface {
	Create(ctx context.Context, player *model.Player) error
	GetByID(ctx context.Context, id string) (*model.Player, error)
	Update(ctx context.Context, player *model.Player) error
	ListBySession(ctx context.Context, sessionID string) ([]*model.Player, error)
}

type playerRepo struct {
	collection *mongo.Collection
}

// NewPlayerRepo creates a new player repository
func NewPlayerRepo(db *mongo.Database) PlayerRepo {
	return &playerRepo{
		collection: db.Collection("players"),
	}
}

func (r *playerRepo) Create(ctx context.Context, player *model.Player) error {
	_, err := r.collection.InsertOne(ctx, player)
	return err
}

func (r *playerRepo) GetByID(ctx context.Context, id string) (*model.Player, error) {
	var player model.Player
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&player)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &player, nil
}

func (r *playerRepo) Update(ctx context.Context, player *model.Player) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": player.ID}, player, opts)
	return err
}

func (r *playerRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Player, error) {
	findOpts := options.Find().SetSort(bson.M{"turnOrder": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var players []*model.Player
	if err := cursor.All(ctx, &players); err != nil {
		return nil, err
	}
	return players, nil
}
