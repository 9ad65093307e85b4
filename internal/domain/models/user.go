package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that can sign in. Its hierarchy permissions
// (pastor, discipulador, leader) are derived from the linked Member.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ChurchID     primitive.ObjectID  `bson:"church_id" json:"church_id"`
	FullName     string              `bson:"full_name" json:"full_name"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"`
	LoginID      string              `bson:"login_id" json:"login_id"`
	LoginIDCI    string              `bson:"login_id_ci" json:"-"`
	Email        string              `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash string              `bson:"password_hash,omitempty" json:"-"`
	AuthMethod   string              `bson:"auth_method" json:"auth_method"` // password | google
	AuthReturnID *string             `bson:"auth_return_id,omitempty" json:"-"`
	Role         string              `bson:"role" json:"role"` // admin | user
	MemberID     *primitive.ObjectID `bson:"member_id,omitempty" json:"member_id"`
	Status       string              `bson:"status" json:"status"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updated_at"`
}
