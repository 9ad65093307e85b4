package reports

import (
	"context"
	"errors"
	"net/http"

	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	"github.com/celulahub/celulahub/internal/app/policy/reportpolicy"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/meetingdates"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/celulahub/celulahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServePlan handles GET /api/reports/plan?celula=ID[&policy=past|future].
// It returns what a report form needs: the selectable dates, the date to
// start with and the active members to check off. A missing or malformed
// celula id yields an empty plan.
func (h *Handler) ServePlan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, ok := hierarchy.ParseRequiredID(q.Get("celula"))
	if !ok {
		apierr.JSON(w, http.StatusOK, planResponse{ValidDates: []string{}, Members: []models.Member{}})
		return
	}
	if !reportpolicy.CanViewReports(r).Allows(id) {
		apierr.NotFound(w, "Celula not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	churchID := authz.ChurchID(r)
	c, err := h.Celulas.GetByID(ctx, churchID, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		apierr.NotFound(w, "Celula not found.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "get celula", err)
		return
	}

	today, err := h.today(ctx, r)
	if err != nil {
		apierr.Server(w, r, h.Log, "load church", err)
		return
	}
	members, err := h.Members.ActiveInCelula(ctx, churchID, id)
	if err != nil {
		apierr.Server(w, r, h.Log, "list active members", err)
		return
	}

	policy := meetingdates.ParsePolicy(q.Get("policy"), h.Policy)
	resp := planResponse{
		Celula:     &c,
		Weekday:    c.Weekday,
		ValidDates: formatDates(meetingdates.ValidDates(c, today)),
		Members:    members,
		CanSubmit:  reportpolicy.CanSubmitFor(r, id),
	}
	if d := policy.DefaultDate(c, today); d != nil {
		resp.DefaultDate = meetingdates.Format(*d)
	}
	apierr.JSON(w, http.StatusOK, resp)
}
