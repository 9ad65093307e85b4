package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report is one attendance report for a cell meeting.
//
// Date is a calendar day ("2006-01-02") in the church's time zone.
// DateOverride is true when the user confirmed a date that does not
// match the cell's meeting weekday at submission time.
type Report struct {
	ID               primitive.ObjectID   `bson:"_id" json:"id"`
	ChurchID         primitive.ObjectID   `bson:"church_id" json:"church_id"`
	CelulaID         primitive.ObjectID   `bson:"celula_id" json:"celula_id"`
	Date             string               `bson:"date" json:"date"`
	PresentMemberIDs []primitive.ObjectID `bson:"present_member_ids" json:"present_member_ids"`
	Visitors         int                  `bson:"visitors" json:"visitors"`
	Notes            string               `bson:"notes,omitempty" json:"notes,omitempty"`
	DateOverride     bool                 `bson:"date_override" json:"date_override"`
	SubmittedBy      primitive.ObjectID   `bson:"submitted_by" json:"submitted_by"`
	CreatedAt        time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time            `bson:"updated_at" json:"updated_at"`
}
