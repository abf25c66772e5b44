// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that can sign in. Program roles (mentor, org admin)
// are not stored here; they live on the user's Profile and are granted
// through connections.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	EmailCI    string             `bson:"email_ci" json:"email_ci"`

	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	Role   string `bson:"role" json:"role"`     // admin | user
	Status string `bson:"status" json:"status"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
