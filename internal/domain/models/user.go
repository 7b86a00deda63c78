// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a principal allowed to manage announcements.
//
// NOTE:
//   - PasswordHash is a bcrypt hash and is never serialized to JSON.
//   - UsernameCI is the folded username used for lookups and the unique index.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	UsernameCI   string             `bson:"username_ci" json:"-"`
	FullName     string             `bson:"full_name" json:"full_name"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"`     // admin | editor
	Status       string             `bson:"status" json:"status"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// User roles.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// User statuses.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)
