package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Church is the tenant. Every other document carries a church_id.
type Church struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"`
	TimeZone  string             `bson:"time_zone" json:"time_zone"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
