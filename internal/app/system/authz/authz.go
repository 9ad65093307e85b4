// Package authz reads the signed-in user out of the request context in the
// shapes handlers and policies need: ObjectIDs and the derived permission.
package authz

import (
	"net/http"
	"strings"

	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// UserCtx returns the user's role (lowercased), name, ObjectID and a found
// flag. A missing user or a malformed ID yields "visitor", "", NilObjectID,
// false, so ok=true always carries a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the current user has the admin role.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == RoleAdmin
}

// ChurchID returns the current user's church, or NilObjectID.
func ChurchID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.ChurchID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// MemberID returns the member linked to the current user, if any.
func MemberID(r *http.Request) (primitive.ObjectID, bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.MemberID == "" {
		return primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(user.MemberID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// Permission returns the current user's derived permission. Anonymous
// requests get the zero Permission, which sees nothing.
func Permission(r *http.Request) models.Permission {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return models.Permission{}
	}
	return user.Permission
}

// HasAnyRole reports whether the current user has any of roles.
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if role == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}
