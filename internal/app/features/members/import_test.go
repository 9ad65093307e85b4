package members_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/celulahub/celulahub/internal/testutil"
)

func csvRequest(body string, user testutil.TestUser, query string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/members/import"+query, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv")
	return testutil.WithUser(req, user)
}

func TestHandleImport(t *testing.T) {
	w := newWorld(t)
	roster := "Nome,Email,Telefone,Celula\n" +
		"Davi,davi@igreja.org,,a\n" +
		"Eva,,11 5555-0000,\n"

	rec := testutil.NewRecorder()
	w.h.HandleImport(rec, csvRequest(roster, w.admin, "?dry_run=true"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"dry_run":true`)
	if got := len(w.list(t, "?status=all", w.admin)); got != 3 {
		t.Fatalf("dry run wrote members: %d", got)
	}

	rec = testutil.NewRecorder()
	w.h.HandleImport(rec, csvRequest(roster, w.admin, ""))
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"created":2`)

	inA := w.list(t, "?celula="+w.a.ID.Hex(), w.admin)
	found := false
	for _, m := range inA {
		if m.Name == "Davi" {
			found = true
		}
	}
	if !found {
		t.Errorf("Davi not placed in celula A: %+v", inA)
	}
}

func TestHandleImport_Multipart(t *testing.T) {
	w := newWorld(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "membros.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = part.Write([]byte("Fabio\nGabi,gabi@igreja.org\n"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/members/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := testutil.NewRecorder()
	w.h.HandleImport(rec, testutil.WithUser(req, w.admin))
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"created":2`)
}

func TestHandleImport_Rejects(t *testing.T) {
	w := newWorld(t)

	tests := []struct {
		name     string
		body     string
		contains string
	}{
		{"unknown celula", "Davi,,,Celula Fantasma\n", "unknown celula Celula Fantasma"},
		{"bad email", "Davi,davi@\n", "invalid email"},
		{"empty file", "", "no member rows"},
		{"broken csv", "\"Davi\n", "not valid CSV"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			w.h.HandleImport(rec, csvRequest(tt.body, w.admin, ""))
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertContains(t, tt.contains)
		})
	}

	if got := len(w.list(t, "?status=all", w.admin)); got != 3 {
		t.Errorf("rejected uploads wrote members: %d", got)
	}
}
