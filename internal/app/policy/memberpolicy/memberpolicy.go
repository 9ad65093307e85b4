// Package memberpolicy provides authorization policies for member management.
//
// Authorization rules:
//   - Admins can view and manage every member of their church
//   - Leaders, discipuladores and pastors can view and manage members of
//     the cells in their Permission.CelulaIDs
//   - Plain members can view the members of their own cell
//   - Members without a cell are visible to admins only
package memberpolicy

import (
	"context"
	"net/http"

	"github.com/celulahub/celulahub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MemberInfo contains the minimal member data needed for authorization checks.
type MemberInfo struct {
	ID       primitive.ObjectID
	CelulaID *primitive.ObjectID
}

// ListScope represents the scope of members a user can list.
type ListScope struct {
	CanList    bool
	AllCelulas bool
	CelulaIDs  []primitive.ObjectID
}

// CanListMembers determines which members the current user can list.
func CanListMembers(r *http.Request) ListScope {
	if _, _, _, ok := authz.UserCtx(r); !ok {
		return ListScope{}
	}
	if authz.IsAdmin(r) {
		return ListScope{CanList: true, AllCelulas: true}
	}
	p := authz.Permission(r)
	if len(p.CelulaIDs) == 0 {
		return ListScope{}
	}
	return ListScope{CanList: true, CelulaIDs: p.CelulaIDs}
}

// CanViewMember reports whether the current user can view a member in
// memberCelulaID.
func CanViewMember(r *http.Request, memberCelulaID *primitive.ObjectID) bool {
	if _, _, _, ok := authz.UserCtx(r); !ok {
		return false
	}
	if authz.IsAdmin(r) {
		return true
	}
	if memberCelulaID == nil {
		return false
	}
	return authz.Permission(r).HasCelula(*memberCelulaID)
}

// CanManageMember reports whether the current user can create, edit or
// delete a member in memberCelulaID.
func CanManageMember(r *http.Request, memberCelulaID *primitive.ObjectID) bool {
	if _, _, _, ok := authz.UserCtx(r); !ok {
		return false
	}
	if authz.IsAdmin(r) {
		return true
	}
	if memberCelulaID == nil {
		return false
	}
	return authz.Permission(r).Manages(*memberCelulaID)
}

// FetchMemberInfo retrieves the minimal member information needed for
// authorization. Returns nil if the member is not in churchID.
func FetchMemberInfo(ctx context.Context, db *mongo.Database, churchID, memberID primitive.ObjectID) (*MemberInfo, error) {
	var result struct {
		ID       primitive.ObjectID  `bson:"_id"`
		CelulaID *primitive.ObjectID `bson:"celula_id"`
	}

	proj := options.FindOne().SetProjection(bson.M{"_id": 1, "celula_id": 1})
	err := db.Collection("members").FindOne(ctx, bson.M{
		"_id":       memberID,
		"church_id": churchID,
	}, proj).Decode(&result)

	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &MemberInfo{ID: result.ID, CelulaID: result.CelulaID}, nil
}

// CheckMemberAccess fetches member info and checks whether the current user
// can manage them.
//
// Returns:
//   - (info, true, nil) if the user can manage the member
//   - (info, false, nil) if the member exists but the user cannot manage it
//   - (nil, false, nil) if the member is not found
//   - (nil, false, err) on database error
func CheckMemberAccess(ctx context.Context, db *mongo.Database, r *http.Request, memberID primitive.ObjectID) (*MemberInfo, bool, error) {
	info, err := FetchMemberInfo(ctx, db, authz.ChurchID(r), memberID)
	if err != nil {
		return nil, false, err
	}
	if info == nil {
		return nil, false, nil
	}
	return info, CanManageMember(r, info.CelulaID), nil
}
