package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// APIKey lets a non-browser client act as UserID.
// Only Prefix and a bcrypt Hash of the secret are stored.
type APIKey struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	ChurchID   primitive.ObjectID `bson:"church_id" json:"church_id"`
	Name       string             `bson:"name" json:"name"`
	Prefix     string             `bson:"prefix" json:"prefix"`
	Hash       string             `bson:"hash" json:"-"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	CreatedBy  primitive.ObjectID `bson:"created_by" json:"created_by"`
	LastUsedAt *time.Time         `bson:"last_used_at,omitempty" json:"last_used_at,omitempty"`
	RevokedAt  *time.Time         `bson:"revoked_at,omitempty" json:"revoked_at,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
