// internal/app/features/auditlog/list.go
package auditlog

// Terminology: User Identifiers
//   - UserID / userID / user_id: the MongoDB ObjectID (_id) of a user record
//   - ActorID / actor_id: the user who performed the action

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/celulahub/celulahub/internal/app/store/audit"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/inputval"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

type listQuery struct {
	Category  string `validate:"omitempty,oneof=auth admin" label:"Category"`
	UserID    string `validate:"omitempty,objectid" label:"User"`
	StartDate string `validate:"omitempty,isodate" label:"Start date"`
	EndDate   string `validate:"omitempty,isodate" label:"End date"`
}

type listItem struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Category   string            `json:"category"`
	EventType  string            `json:"event_type"`
	ActorID    string            `json:"actor_id,omitempty"`
	ActorName  string            `json:"actor_name,omitempty"`
	UserID     string            `json:"user_id,omitempty"`
	TargetName string            `json:"target_name,omitempty"`
	IP         string            `json:"ip"`
	Success    bool              `json:"success"`
	Reason     string            `json:"failure_reason,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Events     []listItem `json:"events"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Total      int64      `json:"total"`
}

// ServeList handles GET /api/audit.
//
// Query: category (auth|admin), event_type, user, start_date and end_date
// (inclusive UTC days, YYYY-MM-DD) and page. Events are newest first, 50
// per page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	churchID := authz.ChurchID(r)

	q := r.URL.Query()
	in := listQuery{
		Category:  strings.TrimSpace(q.Get("category")),
		UserID:    strings.TrimSpace(q.Get("user")),
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
	}
	if res := inputval.Validate(in); res.HasErrors() {
		apierr.BadRequest(w, res.All())
		return
	}

	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		ChurchID:  &churchID,
		Category:  in.Category,
		EventType: strings.TrimSpace(q.Get("event_type")),
		Limit:     pageSize,
		Offset:    int64((page - 1) * pageSize),
	}
	if in.UserID != "" {
		uid, _ := primitive.ObjectIDFromHex(in.UserID)
		filter.UserID = &uid
	}
	if in.StartDate != "" {
		t, _ := time.Parse("2006-01-02", in.StartDate)
		filter.Since = &t
	}
	if in.EndDate != "" {
		t, _ := time.Parse("2006-01-02", in.EndDate)
		end := t.AddDate(0, 0, 1)
		filter.Until = &end
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		apierr.Server(w, r, h.Log, "query audit events", err)
		return
	}
	total, err := h.Events.Count(ctx, filter)
	if err != nil {
		apierr.Server(w, r, h.Log, "count audit events", err)
		return
	}

	seen := map[primitive.ObjectID]struct{}{}
	var ids []primitive.ObjectID
	for _, e := range events {
		for _, id := range []*primitive.ObjectID{e.ActorID, e.UserID} {
			if id == nil {
				continue
			}
			if _, dup := seen[*id]; !dup {
				seen[*id] = struct{}{}
				ids = append(ids, *id)
			}
		}
	}
	names, err := h.Users.Names(ctx, churchID, ids)
	if err != nil {
		h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		names = nil
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:        e.ID.Hex(),
			Timestamp: e.Timestamp,
			Category:  e.Category,
			EventType: e.EventType,
			IP:        e.IP,
			Success:   e.Success,
			Reason:    e.FailureReason,
			Details:   e.Details,
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			item.ActorName = names[*e.ActorID]
		}
		if e.UserID != nil {
			item.UserID = e.UserID.Hex()
			item.TargetName = names[*e.UserID]
		}
		items = append(items, item)
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	apierr.JSON(w, http.StatusOK, listResponse{
		Events:     items,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	})
}
