// internal/app/issuewatch/mongosource.go
package issuewatch

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// StreamOpener is the change-stream half of the issue store.
type StreamOpener interface {
	Watch(ctx context.Context, projectID primitive.ObjectID) (*mongo.ChangeStream, error)
}

// MongoChangeSource adapts a Mongo change stream into the ChangeSource
// signal channel the watcher consumes.
type MongoChangeSource struct {
	opener StreamOpener
	log    *zap.Logger
}

func NewMongoChangeSource(opener StreamOpener, logger *zap.Logger) *MongoChangeSource {
	return &MongoChangeSource{opener: opener, log: logger}
}

func (s *MongoChangeSource) Changes(ctx context.Context, projectID primitive.ObjectID) (<-chan struct{}, error) {
	stream, err := s.opener.Watch(ctx, projectID)
	if err != nil {
		return nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			// Collapse bursts: a pending signal already forces a
			// re-fetch that will see this change too.
			select {
			case out <- struct{}{}:
			default:
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			s.log.Warn("issue change stream ended",
				zap.String("project_id", projectID.Hex()), zap.Error(err))
		}
	}()
	return out, nil
}
