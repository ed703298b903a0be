package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ParikTV/balanza-server/internal/model"
)

// SessionRepo handles MongoDB operations for sessions. The in-memory state
// is authoritative while a session runs; this collection is its durable
// mirror.
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	GetByCode(ctx context.Context, code string) (*model.Session, error)
	Update(ctx context.Context, session *model.Session) error
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("sessions"),
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *sessionRepo) GetByCode(ctx context.Context, code string) (*model.Session, error) {
	return r.findOne(ctx, bson.M{"code": code})
}

func (r *sessionRepo) findOne(ctx context.Context, filter bson.M) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Update(ctx context.Context, session *model.Session) error {
	// Upsert: mirror writes race the initial insert and must not be lost.
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": session.ID}, session, opts)
	return err
}
