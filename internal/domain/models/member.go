package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MinistryPosition is the member's role in the church ministry
// (e.g. "lider", "discipulador", "pastor"). Lower Priority sorts first.
type MinistryPosition struct {
	Type     string `bson:"type" json:"type"`
	Priority int    `bson:"priority" json:"priority"`
}

// Member is a person in the church, optionally attached to a cell.
type Member struct {
	ID               primitive.ObjectID  `bson:"_id" json:"id"`
	ChurchID         primitive.ObjectID  `bson:"church_id" json:"church_id"`
	Name             string              `bson:"name" json:"name"`
	NameCI           string              `bson:"name_ci" json:"-"`
	Email            string              `bson:"email,omitempty" json:"email,omitempty"`
	Phone            string              `bson:"phone,omitempty" json:"phone,omitempty"`
	CelulaID         *primitive.ObjectID `bson:"celula_id,omitempty" json:"celula_id"`
	MinistryPosition *MinistryPosition   `bson:"ministry_position,omitempty" json:"ministry_position"`
	Status           string              `bson:"status" json:"status"`
	CreatedAt        time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time           `bson:"updated_at" json:"updated_at"`
}
