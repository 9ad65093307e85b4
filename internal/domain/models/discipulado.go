package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Discipulado is a discipleship group. It belongs to exactly one Rede.
type Discipulado struct {
	ID                   primitive.ObjectID  `bson:"_id" json:"id"`
	ChurchID             primitive.ObjectID  `bson:"church_id" json:"church_id"`
	Name                 string              `bson:"name" json:"name"`
	NameCI               string              `bson:"name_ci" json:"-"`
	RedeID               primitive.ObjectID  `bson:"rede_id" json:"rede_id"`
	DiscipuladorMemberID *primitive.ObjectID `bson:"discipulador_member_id,omitempty" json:"discipulador_member_id"`
	CreatedAt            time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time           `bson:"updated_at" json:"updated_at"`
}
