// internal/domain/models/connectionmessage.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AutoGeneratedAuthor is the fixed label returned for system messages.
const AutoGeneratedAuthor = "Automatically Generated"

// ConnectionMessage is one entry in a connection's comment thread. Messages
// form a conversation log ordered by creation time; readers must never
// reorder them by any other key.
type ConnectionMessage struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConnectionID primitive.ObjectID `bson:"connection_id" json:"connection_id"`

	// AuthorID is nil iff the message was generated by the system in
	// response to a state change.
	AuthorID        *primitive.ObjectID `bson:"author_id,omitempty" json:"author_id,omitempty"`
	AuthorName      string              `bson:"author_name,omitempty" json:"author_name,omitempty"`
	IsAutoGenerated bool                `bson:"is_auto_generated" json:"is_auto_generated"`

	// Content is sanitized rich text (see system/htmlsanitize).
	Content string `bson:"content" json:"content"`

	Created time.Time `bson:"created" json:"created"`
}

// AuthorLabel returns the display name of the author, or the fixed system
// label for auto-generated messages so callers never dereference a nil
// author reference.
func (m *ConnectionMessage) AuthorLabel() string {
	if m.IsAutoGenerated {
		return AutoGeneratedAuthor
	}
	return m.AuthorName
}
