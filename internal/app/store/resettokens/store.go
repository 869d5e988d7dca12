// internal/app/store/resettokens/store.go
package resettokens

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a token is unknown, expired, or already used.
var ErrNotFound = errors.New("reset token not found or expired")

// Token is a one-time password-reset token.
type Token struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Token     string             `bson:"token"`
	ExpiresAt time.Time          `bson:"expires_at"` // TTL index field
	CreatedAt time.Time          `bson:"created_at"`
}

// Store manages password-reset tokens in MongoDB.
type Store struct {
	c *mongo.Collection
}

// New creates a reset-token Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reset_tokens")}
}

// EnsureIndexes creates the token lookup index and the TTL index that
// expires stale rows server-side.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_reset_token"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_reset_ttl"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create stores a token for the user with the given expiry.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, token string, expiresAt time.Time) error {
	_, err := s.c.InsertOne(ctx, Token{
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

// Consume validates a token, deletes it (one-time use), and returns the
// owning user id. Unknown or expired tokens return ErrNotFound.
func (s *Store) Consume(ctx context.Context, token string) (primitive.ObjectID, error) {
	var t Token
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return primitive.NilObjectID, ErrNotFound
		}
		return primitive.NilObjectID, err
	}
	return t.UserID, nil
}
