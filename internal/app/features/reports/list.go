package reports

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	"github.com/celulahub/celulahub/internal/app/policy/reportpolicy"
	celulastore "github.com/celulahub/celulahub/internal/app/store/celulas"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/inputval"
	"github.com/celulahub/celulahub/internal/app/system/meetingdates"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/celulahub/celulahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeMonth handles GET /api/reports?month=YYYY-MM[&celula=ID].
//
// With a celula it also returns the cell's expected meeting dates in the
// month and the ones up to today that have no report. Without one it lists
// every report the user can see. A malformed celula id yields the empty
// month.
func (h *Handler) ServeMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	celulaParam := q.Get("celula")
	mq := monthQuery{Month: q.Get("month")}
	if res := inputval.Validate(mq); res.HasErrors() {
		apierr.BadRequest(w, res.All())
		return
	}
	month, _ := time.Parse("2006-01", mq.Month)

	scope := reportpolicy.CanViewReports(r)
	resp := monthResponse{
		Month:         mq.Month,
		Reports:       []models.Report{},
		ExpectedDates: []string{},
		MissingDates:  []string{},
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	churchID := authz.ChurchID(r)

	if celulaParam == "" {
		ids := scope.CelulaIDs
		if scope.AllCelulas {
			all, err := h.Celulas.List(ctx, churchID, celulastore.ListFilter{})
			if err != nil {
				apierr.Server(w, r, h.Log, "list celulas", err)
				return
			}
			ids = make([]primitive.ObjectID, 0, len(all))
			for _, c := range all {
				ids = append(ids, c.ID)
			}
		}
		if scope.CanView {
			list, err := h.Reports.ListMonth(ctx, churchID, ids, month.Year(), month.Month())
			if err != nil {
				apierr.Server(w, r, h.Log, "list reports", err)
				return
			}
			resp.Reports = list
		}
		apierr.JSON(w, http.StatusOK, resp)
		return
	}

	id, ok := hierarchy.ParseRequiredID(celulaParam)
	if !ok {
		apierr.JSON(w, http.StatusOK, resp)
		return
	}
	if !scope.Allows(id) {
		apierr.NotFound(w, "Celula not found.")
		return
	}
	c, err := h.Celulas.GetByID(ctx, churchID, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		apierr.NotFound(w, "Celula not found.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "get celula", err)
		return
	}
	list, err := h.Reports.ListMonth(ctx, churchID, []primitive.ObjectID{id}, month.Year(), month.Month())
	if err != nil {
		apierr.Server(w, r, h.Log, "list reports", err)
		return
	}
	today, err := h.today(ctx, r)
	if err != nil {
		apierr.Server(w, r, h.Log, "load church", err)
		return
	}

	resp.Reports = list
	reported := make(map[string]struct{}, len(list))
	for _, rep := range list {
		reported[rep.Date] = struct{}{}
	}
	for _, d := range meetingdates.DatesInMonth(c, month.Year(), month.Month()) {
		s := meetingdates.Format(d)
		resp.ExpectedDates = append(resp.ExpectedDates, s)
		if _, ok := reported[s]; !ok && !d.After(today) {
			resp.MissingDates = append(resp.MissingDates, s)
		}
	}
	apierr.JSON(w, http.StatusOK, resp)
}
