package health_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/celulahub/celulahub/internal/app/features/health"
	"github.com/celulahub/celulahub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := health.NewHandler(db.Client(), zap.NewNop())

	rec := testutil.NewRecorder()
	h.Serve(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec.AssertStatus(t, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	var body map[string]string
	rec.DecodeJSON(t, &body)
	if body["status"] != "ok" || body["database"] != "connected" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestServe_DatabaseUnreachable(t *testing.T) {
	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Disconnect(context.Background())

	rec := testutil.NewRecorder()
	health.NewHandler(client, zap.NewNop()).Serve(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec.AssertStatus(t, http.StatusServiceUnavailable)
	rec.AssertContains(t, `"database":"disconnected"`)
}

func TestServe_NoClient(t *testing.T) {
	rec := testutil.NewRecorder()
	health.NewHandler(nil, zap.NewNop()).Serve(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	rec.AssertStatus(t, http.StatusServiceUnavailable)
}
