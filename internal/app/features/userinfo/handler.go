package userinfo

import (
	"net/http"

	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Handler serves the signed-in user's identity and permission.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Response is the body of GET /api/me.
type Response struct {
	IsAuthenticated bool               `json:"isAuthenticated"`
	ID              string             `json:"id,omitempty"`
	Name            string             `json:"name"`
	LoginID         string             `json:"login_id"`
	Role            string             `json:"role,omitempty"`
	ChurchID        string             `json:"church_id,omitempty"`
	MemberID        string             `json:"member_id,omitempty"`
	ViaAPIKey       bool               `json:"via_api_key,omitempty"`
	Permission      *models.Permission `json:"permission,omitempty"`
}

// ServeMe answers 200 in both cases; anonymous callers get
// isAuthenticated=false and no permission block.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		apierr.JSON(w, http.StatusOK, Response{})
		return
	}

	perm := user.Permission
	if perm.CelulaIDs == nil {
		perm.CelulaIDs = []primitive.ObjectID{}
	}
	apierr.JSON(w, http.StatusOK, Response{
		IsAuthenticated: true,
		ID:              user.ID,
		Name:            user.Name,
		LoginID:         user.LoginID,
		Role:            user.Role,
		ChurchID:        user.ChurchID,
		MemberID:        user.MemberID,
		ViaAPIKey:       user.ViaAPIKey,
		Permission:      &perm,
	})
}
