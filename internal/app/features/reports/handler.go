// Package reports serves attendance report planning, monthly listings and
// submission.
package reports

import (
	"context"
	"errors"
	"net/http"
	"time"

	churchstore "github.com/celulahub/celulahub/internal/app/store/churches"
	celulastore "github.com/celulahub/celulahub/internal/app/store/celulas"
	memberstore "github.com/celulahub/celulahub/internal/app/store/members"
	reportstore "github.com/celulahub/celulahub/internal/app/store/reports"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/meetingdates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Reports  *reportstore.Store
	Celulas  *celulastore.Store
	Members  *memberstore.Store
	Churches *churchstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger

	// Policy is the default-date policy used when a request does not
	// name one.
	Policy meetingdates.Policy
	// Now is the clock. Tests replace it.
	Now func() time.Time
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, policy meetingdates.Policy, logger *zap.Logger) *Handler {
	return &Handler{
		Reports:  reportstore.New(db),
		Celulas:  celulastore.New(db),
		Members:  memberstore.New(db),
		Churches: churchstore.New(db),
		AuditLog: audit,
		Log:      logger,
		Policy:   policy,
		Now:      time.Now,
	}
}

// today returns the current calendar day in the user's church time zone.
func (h *Handler) today(ctx context.Context, r *http.Request) (time.Time, error) {
	loc := time.UTC
	ch, err := h.Churches.GetByID(ctx, authz.ChurchID(r))
	switch {
	case err == nil:
		loc = churchstore.Location(ch)
	case !errors.Is(err, mongo.ErrNoDocuments):
		return time.Time{}, err
	}
	return meetingdates.Day(h.Now().In(loc)), nil
}

func formatDates(ds []time.Time) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, meetingdates.Format(d))
	}
	return out
}
