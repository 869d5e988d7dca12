// internal/app/store/issues/issuestore.go
package issuestore

import (
	"context"
	"errors"
	"time"

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

var ErrNotFound = errors.New("issue not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("issues")}
}

// Create inserts a new issue. New issues open in the Abierto state unless
// a status is already set.
func (s *Store) Create(ctx context.Context, i models.Issue) (models.Issue, error) {
	now := time.Now().UTC()
	i.ID = primitive.NewObjectID()
	i.TitleCI = text.Fold(i.Title)
	if i.Status == "" {
		i.Status = models.StatusOpen
	}
	i.CreatedAt = now
	i.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, i); err != nil {
		return models.Issue{}, err
	}
	return i, nil
}

// GetByID retrieves an issue by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Issue, error) {
	var i models.Issue
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&i)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Issue{}, ErrNotFound
		}
		return models.Issue{}, err
	}
	return i, nil
}

// ListByProject returns a project's issues, newest first.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Issue, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var issues []models.Issue
	if err := cur.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// Update modifies an issue's mutable fields.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, i models.Issue) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if i.Title != "" {
		set["title"] = i.Title
		set["title_ci"] = text.Fold(i.Title)
	}
	// Callers pass the full document, and an empty description is a
	// deliberate clear, so it is always written.
	set["description"] = i.Description
	if i.Status != "" {
		set["status"] = i.Status
	}
	if i.Priority != "" {
		set["priority"] = i.Priority
	}
	set["assignee_id"] = i.AssigneeID

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus transitions an issue to the given status.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an issue by ID.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Watch opens a change stream scoped to one project's issues. The caller
// owns the stream and must Close it; canceling ctx also tears it down.
func (s *Store) Watch(ctx context.Context, projectID primitive.ObjectID) (*mongo.ChangeStream, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"$or": bson.A{
				bson.M{"fullDocument.project_id": projectID},
				bson.M{"operationType": "delete"},
			},
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	return s.c.Watch(ctx, pipeline, opts)
}

// EnsureIndexes creates indexes for the issues collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_issue_project_created"),
		},
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_issue_project_status"),
		},
		{
			Keys:    bson.D{{Key: "assignee_id", Value: 1}},
			Options: options.Index().SetName("idx_issue_assignee"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
