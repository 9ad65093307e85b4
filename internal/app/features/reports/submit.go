package reports

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	"github.com/celulahub/celulahub/internal/app/policy/reportpolicy"
	reportstore "github.com/celulahub/celulahub/internal/app/store/reports"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/htmlsanitize"
	"github.com/celulahub/celulahub/internal/app/system/inputval"
	"github.com/celulahub/celulahub/internal/app/system/meetingdates"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/celulahub/celulahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleSubmit handles POST /api/reports.
//
// A date off the cell's meeting weekday is refused with 409 date_mismatch
// unless confirm_override is set, in which case the report is stored with
// date_override. Present members must all belong to the cell.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var in submitInput
	if err := apierr.Decode(r, &in); err != nil {
		apierr.BadRequest(w, "Invalid JSON body.")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apierr.BadRequest(w, res.All())
		return
	}

	celulaID, _ := primitive.ObjectIDFromHex(in.CelulaID)
	if !reportpolicy.CanSubmitFor(r, celulaID) {
		apierr.Forbidden(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	churchID := authz.ChurchID(r)
	c, err := h.Celulas.GetByID(ctx, churchID, celulaID)
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
	date, err := meetingdates.ParseDay(in.Date)
	if err != nil {
		apierr.BadRequest(w, "Date must be a date in YYYY-MM-DD format.")
		return
	}

	picker := meetingdates.NewPicker(h.Policy)
	picker.SelectCell(c, today)
	override := !picker.Pick(date)
	if override {
		mm := picker.Pending()
		if !in.ConfirmOverride {
			apierr.JSON(w, http.StatusConflict, mismatchResponse{
				Error:           "date_mismatch",
				Message:         mm.Message(),
				Date:            meetingdates.Format(mm.Date),
				ChosenWeekday:   int(mm.Chosen),
				ExpectedWeekday: int(mm.Expected),
			})
			return
		}
		picker.Confirm()
	}
	date = *picker.Date()

	present, ok := h.checkPresent(ctx, w, r, c, in.PresentMemberIDs)
	if !ok {
		return
	}

	_, _, userID, _ := authz.UserCtx(r)
	rep, err := h.Reports.Create(ctx, models.Report{
		ChurchID:         churchID,
		CelulaID:         celulaID,
		Date:             meetingdates.Format(date),
		PresentMemberIDs: present,
		Visitors:         in.Visitors,
		Notes:            htmlsanitize.Sanitize(strings.TrimSpace(in.Notes)),
		DateOverride:     override,
		SubmittedBy:      userID,
	})
	if errors.Is(err, reportstore.ErrDuplicateDate) {
		apierr.Conflict(w, "duplicate_date", "This celula already has a report for that date.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "create report", err)
		return
	}

	actorID, auditChurch := auditlog.Actor(r)
	h.AuditLog.ReportSubmitted(ctx, r, actorID, auditChurch, rep.ID, celulaID, rep.Date, len(present), rep.DateOverride)
	apierr.JSON(w, http.StatusCreated, rep)
}

// checkPresent dedupes the present ids and verifies each is a member of c.
func (h *Handler) checkPresent(ctx context.Context, w http.ResponseWriter, r *http.Request, c models.Celula, raw []string) ([]primitive.ObjectID, bool) {
	seen := make(map[primitive.ObjectID]struct{}, len(raw))
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, _ := primitive.ObjectIDFromHex(s)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return ids, true
	}

	n, err := h.Members.CountInCelula(ctx, c.ChurchID, c.ID, ids)
	if err != nil {
		apierr.Server(w, r, h.Log, "count present members", err)
		return nil, false
	}
	if n != int64(len(ids)) {
		apierr.BadRequest(w, "Present members must belong to this celula.")
		return nil, false
	}
	return ids, true
}

// HandleDelete handles DELETE /api/reports/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := hierarchy.ParseRequiredID(chi.URLParam(r, "id"))
	if !ok {
		apierr.NotFound(w, "Report not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	churchID := authz.ChurchID(r)
	rep, err := h.Reports.GetByID(ctx, churchID, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && !reportpolicy.CanViewReports(r).Allows(rep.CelulaID)) {
		apierr.NotFound(w, "Report not found.")
		return
	}
	if err != nil {
		apierr.Server(w, r, h.Log, "get report", err)
		return
	}
	if !reportpolicy.CanSubmitFor(r, rep.CelulaID) {
		apierr.Forbidden(w)
		return
	}

	if _, err := h.Reports.Delete(ctx, churchID, id); err != nil {
		apierr.Server(w, r, h.Log, "delete report", err)
		return
	}

	actorID, auditChurch := auditlog.Actor(r)
	h.AuditLog.ReportDeleted(ctx, r, actorID, auditChurch, id)
	w.WriteHeader(http.StatusNoContent)
}
