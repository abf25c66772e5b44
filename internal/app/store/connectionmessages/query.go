// internal/app/store/connectionmessages/query.go
package messagestore

import (
	"context"

	"github.com/dalemusser/mentorhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Order controls the sort direction of a message query. Threads are
// conversation logs, so the default is oldest first.
type Order int

const (
	OrderCreatedAsc Order = iota
	OrderCreatedDesc
)

// Builder accumulates filters for a message query. Methods mutate the
// builder and return it for chaining; Build snapshots the current state into
// an immutable Query so a builder can be reused (via Clear) without
// invalidating queries already built from it.
type Builder struct {
	s        *Store
	filter   bson.M
	order    Order
	keysOnly bool
	limit    int64
}

// Query returns a fresh builder scoped to this store.
func (s *Store) Query() *Builder {
	return &Builder{s: s, filter: bson.M{}}
}

// AddAncestor restricts the query to the thread of the given connection.
func (b *Builder) AddAncestor(connectionID primitive.ObjectID) *Builder {
	b.filter["connection_id"] = connectionID
	return b
}

// SetAuthor restricts the query to messages written by the given author.
// System-generated messages have no author and never match.
func (b *Builder) SetAuthor(authorID primitive.ObjectID) *Builder {
	b.filter["author_id"] = authorID
	return b
}

// SetKeysOnly makes the query return messages with only the ID populated.
func (b *Builder) SetKeysOnly() *Builder {
	b.keysOnly = true
	return b
}

// SetOrder overrides the default oldest-first ordering.
func (b *Builder) SetOrder(o Order) *Builder {
	b.order = o
	return b
}

// SetLimit caps the number of messages returned. Zero means no cap.
func (b *Builder) SetLimit(n int64) *Builder {
	b.limit = n
	return b
}

// Clear resets the builder to its initial state and returns it.
func (b *Builder) Clear() *Builder {
	b.filter = bson.M{}
	b.order = OrderCreatedAsc
	b.keysOnly = false
	b.limit = 0
	return b
}

// Build snapshots the builder into an immutable Query.
func (b *Builder) Build() Query {
	filter := make(bson.M, len(b.filter))
	for k, v := range b.filter {
		filter[k] = v
	}
	return Query{
		s:        b.s,
		filter:   filter,
		order:    b.order,
		keysOnly: b.keysOnly,
		limit:    b.limit,
	}
}

// Query is a frozen message query. It is safe to execute repeatedly and is
// unaffected by later changes to the builder it came from.
type Query struct {
	s        *Store
	filter   bson.M
	order    Order
	keysOnly bool
	limit    int64
}

// Execute runs the query and returns the matching messages.
func (q Query) Execute(ctx context.Context) ([]models.ConnectionMessage, error) {
	dir := 1
	if q.order == OrderCreatedDesc {
		dir = -1
	}

	// Secondary _id key keeps the order total when two messages share a
	// created timestamp.
	opts := options.Find().SetSort(bson.D{
		{Key: "created", Value: dir},
		{Key: "_id", Value: dir},
	})
	if q.keysOnly {
		opts.SetProjection(bson.M{"_id": 1})
	}
	if q.limit > 0 {
		opts.SetLimit(q.limit)
	}

	cur, err := q.s.c.Find(ctx, q.filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ConnectionMessage
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExecuteIDs runs the query in keys-only mode and returns just the IDs.
func (q Query) ExecuteIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	kq := q
	kq.keysOnly = true
	msgs, err := kq.Execute(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	return ids, nil
}
