package reportstore_test

import (
	"testing"
	"time"

	reportstore "github.com/celulahub/celulahub/internal/app/store/reports"
	"github.com/celulahub/celulahub/internal/app/system/indexes"
	"github.com/celulahub/celulahub/internal/domain/models"
	"github.com/celulahub/celulahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMonthRange(t *testing.T) {
	tests := []struct {
		year     int
		month    time.Month
		from, to string
	}{
		{2026, time.October, "2026-10-01", "2026-11-01"},
		{2026, time.December, "2026-12-01", "2027-01-01"},
		{2024, time.February, "2024-02-01", "2024-03-01"},
	}
	for _, tt := range tests {
		from, to := reportstore.MonthRange(tt.year, tt.month)
		if from != tt.from || to != tt.to {
			t.Errorf("MonthRange(%d, %s) = %s, %s", tt.year, tt.month, from, to)
		}
	}
}

func TestStore_CreateListMonthDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := reportstore.New(db)
	church := primitive.NewObjectID()
	cell := primitive.NewObjectID()
	other := primitive.NewObjectID()

	for _, r := range []models.Report{
		{ChurchID: church, CelulaID: cell, Date: "2026-10-14"},
		{ChurchID: church, CelulaID: cell, Date: "2026-10-07"},
		{ChurchID: church, CelulaID: cell, Date: "2026-09-30"},
		{ChurchID: church, CelulaID: other, Date: "2026-10-09"},
	} {
		if _, err := store.Create(ctx, r); err != nil {
			t.Fatalf("Create %s: %v", r.Date, err)
		}
	}

	if _, err := store.Create(ctx, models.Report{ChurchID: church, CelulaID: cell, Date: "2026-10-07"}); err != reportstore.ErrDuplicateDate {
		t.Errorf("expected ErrDuplicateDate, got %v", err)
	}

	got, err := store.ListMonth(ctx, church, []primitive.ObjectID{cell}, 2026, time.October)
	if err != nil {
		t.Fatalf("ListMonth: %v", err)
	}
	if len(got) != 2 || got[0].Date != "2026-10-07" || got[1].Date != "2026-10-14" {
		t.Errorf("ListMonth: %+v", got)
	}
	if got[0].PresentMemberIDs == nil {
		t.Error("present ids should be an empty slice, not nil")
	}

	both, _ := store.ListMonth(ctx, church, []primitive.ObjectID{cell, other}, 2026, time.October)
	if len(both) != 3 {
		t.Errorf("two cells: got %d, want 3", len(both))
	}
	if _, err := store.ListMonth(ctx, church, []primitive.ObjectID{cell}, 2026, 13); err == nil {
		t.Error("expected bad month error")
	}

	n, err := store.Delete(ctx, church, got[0].ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
	if _, err := store.GetByID(ctx, church, got[0].ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID after delete: %v", err)
	}
}
