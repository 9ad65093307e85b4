// Package reportpolicy provides authorization policies for attendance reports.
//
// Authorization rules:
//   - Admins can view, submit and delete reports for every cell
//   - Everyone else can view reports of cells in Permission.CelulaIDs
//     (cells they lead, disciple over, pastor over or belong to)
//   - Submitting and deleting is limited to Permission.ManagedCelulaIDs;
//     a cell the user only attends is read-only, even for a leader of
//     another cell
package reportpolicy

import (
	"net/http"

	"github.com/celulahub/celulahub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportScope is the set of cells whose reports the user can see.
type ReportScope struct {
	CanView    bool
	AllCelulas bool
	CelulaIDs  []primitive.ObjectID
}

// Allows reports whether the scope covers celulaID.
func (s ReportScope) Allows(celulaID primitive.ObjectID) bool {
	if !s.CanView {
		return false
	}
	if s.AllCelulas {
		return true
	}
	for _, id := range s.CelulaIDs {
		if id == celulaID {
			return true
		}
	}
	return false
}

// CanViewReports determines which cells' reports the current user can read.
func CanViewReports(r *http.Request) ReportScope {
	if _, _, _, ok := authz.UserCtx(r); !ok {
		return ReportScope{}
	}
	if authz.IsAdmin(r) {
		return ReportScope{CanView: true, AllCelulas: true}
	}
	p := authz.Permission(r)
	if len(p.CelulaIDs) == 0 {
		return ReportScope{}
	}
	return ReportScope{CanView: true, CelulaIDs: p.CelulaIDs}
}

// CanSubmitFor reports whether the current user may submit or delete a
// report for celulaID.
func CanSubmitFor(r *http.Request, celulaID primitive.ObjectID) bool {
	if _, _, _, ok := authz.UserCtx(r); !ok {
		return false
	}
	if authz.IsAdmin(r) {
		return true
	}
	return authz.Permission(r).Manages(celulaID)
}
