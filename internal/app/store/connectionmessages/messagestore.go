// internal/app/store/connectionmessages/messagestore.go
package messagestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrEmptyContent = errors.New("message content is empty")

// Store persists the comment thread attached to each connection. The thread
// is a conversation log: messages are returned oldest first and are never
// edited or reordered after the fact.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("connection_messages")}
}

// EnsureIndexes creates the thread listing index. The sort matches the
// query builder's default oldest-first order.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "connection_id", Value: 1},
				{Key: "created", Value: 1},
			},
			Options: options.Index().SetName("idx_connmsg_thread"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Append adds a user-authored message to the connection's thread. Content is
// sanitized before storage; a message that sanitizes to nothing is rejected.
func (s *Store) Append(ctx context.Context, connectionID, authorID primitive.ObjectID, authorName, content string) (models.ConnectionMessage, error) {
	clean := htmlsanitize.Sanitize(content)
	if clean == "" {
		return models.ConnectionMessage{}, ErrEmptyContent
	}

	m := models.ConnectionMessage{
		ID:           primitive.NewObjectID(),
		ConnectionID: connectionID,
		AuthorID:     &authorID,
		AuthorName:   authorName,
		Content:      clean,
		Created:      time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.ConnectionMessage{}, err
	}
	return m, nil
}

// AppendAuto adds a system-generated message describing a state change. The
// author reference stays nil and readers render the fixed system label.
func (s *Store) AppendAuto(ctx context.Context, connectionID primitive.ObjectID, content string) (models.ConnectionMessage, error) {
	m := models.ConnectionMessage{
		ID:              primitive.NewObjectID(),
		ConnectionID:    connectionID,
		IsAutoGenerated: true,
		Content:         htmlsanitize.Sanitize(content),
		Created:         time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.ConnectionMessage{}, err
	}
	return m, nil
}

// ListForConnection returns the full thread for a connection, oldest first.
func (s *Store) ListForConnection(ctx context.Context, connectionID primitive.ObjectID) ([]models.ConnectionMessage, error) {
	return s.Query().AddAncestor(connectionID).Build().Execute(ctx)
}

// CountForConnection returns the number of messages in a connection's thread.
func (s *Store) CountForConnection(ctx context.Context, connectionID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"connection_id": connectionID})
}

// DeleteForConnection removes a connection's entire thread. Used when a
// connection itself is deleted by an administrator.
func (s *Store) DeleteForConnection(ctx context.Context, connectionID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"connection_id": connectionID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
