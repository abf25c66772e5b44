// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization includes case/diacritic-insensitive fields for search/sort.
//
// Organizations are never written inside a connection/profile transaction;
// they form a separate ownership scope. Readers of organization-side role
// lists must tolerate brief staleness relative to a just-granted connection.
type Organization struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	NameCI      string             `bson:"name_ci"` // ← always stored
	Description string             `bson:"description,omitempty"`
	Homepage    string             `bson:"homepage,omitempty"`
	ContactInfo string             `bson:"contact_info,omitempty"`
	Status      string             `bson:"status"` // active | disabled
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}
