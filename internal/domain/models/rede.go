package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rede is a network of discipleship groups, the top of the hierarchy.
type Rede struct {
	ID             primitive.ObjectID  `bson:"_id" json:"id"`
	ChurchID       primitive.ObjectID  `bson:"church_id" json:"church_id"`
	Name           string              `bson:"name" json:"name"`
	NameCI         string              `bson:"name_ci" json:"-"`
	PastorMemberID *primitive.ObjectID `bson:"pastor_member_id,omitempty" json:"pastor_member_id"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updated_at"`
}
