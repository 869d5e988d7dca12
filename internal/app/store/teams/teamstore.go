// internal/app/store/teams/teamstore.go
package teamstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/msalazarj/primebug/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateName = errors.New("a team with this name already exists")
	ErrNotFound      = errors.New("team not found")
)

// batchCeiling caps how many IDs a single $in query may carry. Larger
// batches are split into sequential queries.
const batchCeiling = 30

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("teams")}
}

// Create inserts a new team.
func (s *Store) Create(ctx context.Context, t models.Team) (models.Team, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.NameCI = text.Fold(t.Name)
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Team{}, ErrDuplicateName
		}
		return models.Team{}, err
	}
	return t, nil
}

// GetByID retrieves a team by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	var t models.Team
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Team{}, ErrNotFound
		}
		return models.Team{}, err
	}
	return t, nil
}

// GetBatchByIDs returns the teams whose IDs appear in ids, preserving the
// order of ids. IDs over the per-query ceiling are fetched in chunks.
// Missing IDs are skipped, not errors.
func (s *Store) GetBatchByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Team, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	byID := make(map[primitive.ObjectID]models.Team, len(ids))
	for start := 0; start < len(ids); start += batchCeiling {
		end := start + batchCeiling
		if end > len(ids) {
			end = len(ids)
		}
		cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids[start:end]}})
		if err != nil {
			return nil, err
		}
		var chunk []models.Team
		if err := cur.All(ctx, &chunk); err != nil {
			return nil, err
		}
		for _, t := range chunk {
			byID[t.ID] = t
		}
	}

	teams := make([]models.Team, 0, len(byID))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			teams = append(teams, t)
		}
	}
	return teams, nil
}

// Update modifies a team's mutable fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, t models.Team) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if t.Name != "" {
		set["name"] = t.Name
		set["name_ci"] = text.Fold(t.Name)
	}
	set["description"] = t.Description

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a team by ID.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates indexes for the teams collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_team_name_ci"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
