package churchstore_test

import (
	"testing"
	_ "time/tzdata"

	churchstore "github.com/celulahub/celulahub/internal/app/store/churches"
	"github.com/celulahub/celulahub/internal/app/system/indexes"
	"github.com/celulahub/celulahub/internal/domain/models"
	"github.com/celulahub/celulahub/internal/testutil"
)

func TestStore_EnsureDefault_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := churchstore.New(db)

	first, err := store.EnsureDefault(ctx, "Igreja Central", "America/Sao_Paulo")
	if err != nil {
		t.Fatalf("EnsureDefault: %v", err)
	}
	second, err := store.EnsureDefault(ctx, "  igreja central ", "UTC")
	if err != nil {
		t.Fatalf("EnsureDefault again: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected the same church, got %s and %s", first.ID.Hex(), second.ID.Hex())
	}
	if second.TimeZone != "America/Sao_Paulo" {
		t.Errorf("time zone should not change, got %s", second.TimeZone)
	}
}

func TestStore_Create_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := churchstore.New(db)

	if _, err := store.Create(ctx, models.Church{Name: "Bethel"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, models.Church{Name: "BETHEL"}); err != churchstore.ErrDuplicateChurch {
		t.Errorf("expected ErrDuplicateChurch, got %v", err)
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		tz   string
		want string
	}{
		{"", "UTC"},
		{"Not/AZone", "UTC"},
		{"America/Sao_Paulo", "America/Sao_Paulo"},
	}
	for _, tt := range tests {
		loc := churchstore.Location(models.Church{TimeZone: tt.tz})
		if loc.String() != tt.want {
			t.Errorf("Location(%q) = %s, want %s", tt.tz, loc, tt.want)
		}
	}
}
