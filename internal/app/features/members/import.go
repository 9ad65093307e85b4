package members

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/celulahub/celulahub/internal/app/store/audit"
	celulastore "github.com/celulahub/celulahub/internal/app/store/celulas"
	memberstore "github.com/celulahub/celulahub/internal/app/store/members"
	"github.com/celulahub/celulahub/internal/app/system/apierr"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/csvutil"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type importResponse struct {
	DryRun  bool                `json:"dry_run"`
	Created int                 `json:"created"`
	Rows    []csvutil.MemberRow `json:"rows,omitempty"`
	Errors  []csvutil.RowError  `json:"errors,omitempty"`
}

// csvBody returns the uploaded roster: the "file" part of a multipart form,
// or the raw request body otherwise.
func csvBody(w http.ResponseWriter, r *http.Request) (io.Reader, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.Body, func() {}, nil
	}
	if err := r.ParseMultipartForm(csvutil.MaxUploadSize); err != nil {
		return nil, nil, err
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

// HandleImport handles POST /api/members/import (admin only).
//
// The roster columns are name, email, phone and celula (matched by name,
// case-insensitively). Any invalid row rejects the whole upload with 400
// and the list of problems. With ?dry_run=true the parsed rows are returned
// and nothing is written.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	body, closeBody, err := csvBody(w, r)
	if err != nil {
		apierr.BadRequest(w, "Upload a CSV file in the \"file\" field or as the request body.")
		return
	}
	defer closeBody()

	res, err := csvutil.ParseMembers(body)
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			apierr.Write(w, http.StatusRequestEntityTooLarge, "too_large", "The file is larger than 2 MB.")
		case errors.Is(err, csvutil.ErrTooManyRows):
			apierr.BadRequest(w, "The file has too many rows.")
		default:
			apierr.BadRequest(w, "The file is not valid CSV: "+err.Error())
		}
		return
	}
	if len(res.Rows) == 0 && !res.HasErrors() {
		apierr.BadRequest(w, "The file has no member rows.")
		return
	}

	churchID := authz.ChurchID(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	celulaByName, err := h.celulaNames(ctx, churchID)
	if err != nil {
		apierr.Server(w, r, h.Log, "load celulas for import", err)
		return
	}
	for _, row := range res.Rows {
		if row.Celula == "" {
			continue
		}
		if _, ok := celulaByName[text.Fold(row.Celula)]; !ok {
			res.Errors = append(res.Errors, csvutil.RowError{
				Line: row.Line, Name: row.Name, Reason: "unknown celula " + row.Celula,
			})
		}
	}
	if res.HasErrors() {
		apierr.JSON(w, http.StatusBadRequest, importResponse{Errors: res.Errors})
		return
	}

	if r.URL.Query().Get("dry_run") == "true" {
		apierr.JSON(w, http.StatusOK, importResponse{DryRun: true, Rows: res.Rows})
		return
	}

	actorID, actorChurch := auditlog.Actor(r)
	created := 0
	for _, row := range res.Rows {
		f := memberstore.Fields{Name: row.Name, Email: row.Email, Phone: row.Phone}
		if row.Celula != "" {
			id := celulaByName[text.Fold(row.Celula)]
			f.CelulaID = &id
		}
		m, err := h.Members.Create(ctx, churchID, f)
		if err != nil {
			h.Log.Error("member import stopped",
				zap.Int("line", row.Line), zap.Int("created", created), zap.Error(err))
			apierr.Server(w, r, h.Log, "import member", err)
			return
		}
		h.AuditLog.EntityChanged(ctx, r, actorID, actorChurch, audit.EventMemberSaved, m.ID, m.Name)
		created++
	}
	apierr.JSON(w, http.StatusCreated, importResponse{Created: created})
}

func (h *Handler) celulaNames(ctx context.Context, churchID primitive.ObjectID) (map[string]primitive.ObjectID, error) {
	cells, err := h.Celulas.List(ctx, churchID, celulastore.ListFilter{})
	if err != nil {
		return nil, err
	}
	out := make(map[string]primitive.ObjectID, len(cells))
	for _, c := range cells {
		out[c.NameCI] = c.ID
	}
	return out, nil
}
