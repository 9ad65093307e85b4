package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Celula is a cell group.
//
// Weekday follows time.Weekday numbering (0=Sunday..6=Saturday). A nil
// Weekday means the cell has no fixed meeting day. Time is "HH:mm" or nil.
type Celula struct {
	ID             primitive.ObjectID  `bson:"_id" json:"id"`
	ChurchID       primitive.ObjectID  `bson:"church_id" json:"church_id"`
	Name           string              `bson:"name" json:"name"`
	NameCI         string              `bson:"name_ci" json:"-"`
	Weekday        *int                `bson:"weekday,omitempty" json:"weekday"`
	Time           *string             `bson:"time,omitempty" json:"time"`
	DiscipuladoID  *primitive.ObjectID `bson:"discipulado_id,omitempty" json:"discipulado_id"`
	LeaderMemberID *primitive.ObjectID `bson:"leader_member_id,omitempty" json:"leader_member_id"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `bson:"updated_at" json:"updated_at"`
}

// MeetingWeekday reports the fixed meeting weekday, if any.
// Out-of-range stored values are treated as unset.
func (c Celula) MeetingWeekday() (time.Weekday, bool) {
	if c.Weekday == nil || *c.Weekday < 0 || *c.Weekday > 6 {
		return 0, false
	}
	return time.Weekday(*c.Weekday), true
}
