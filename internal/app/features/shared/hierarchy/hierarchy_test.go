package hierarchy_test

import (
	"testing"

	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	"github.com/celulahub/celulahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestParseID(t *testing.T) {
	valid := primitive.NewObjectID()

	tests := []struct {
		in     string
		wantID *primitive.ObjectID
		wantOK bool
	}{
		{"", nil, true},
		{"all", nil, true},
		{" ALL ", nil, true},
		{"not-an-id", nil, false},
		{valid.Hex(), &valid, true},
	}
	for _, tt := range tests {
		got, ok := hierarchy.ParseID(tt.in)
		if ok != tt.wantOK {
			t.Errorf("ParseID(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
		}
		if (got == nil) != (tt.wantID == nil) || (got != nil && *got != *tt.wantID) {
			t.Errorf("ParseID(%q) = %v, want %v", tt.in, got, tt.wantID)
		}
	}
}

func TestLoader_Load(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	church := fx.CreateChurch(ctx, "Igreja")
	other := fx.CreateChurch(ctx, "Outra")
	rede := fx.CreateRede(ctx, church.ID, "Rede Norte", nil)
	disc := fx.CreateDiscipulado(ctx, church.ID, rede.ID, "Disc A", nil)
	fx.CreateCelula(ctx, church.ID, &disc.ID, "Celula 1", 3, nil)
	fx.CreateRede(ctx, other.ID, "Rede Alheia", nil)

	got := hierarchy.NewLoader(db, zap.NewNop()).Load(ctx, church.ID)
	if !got.Ready() {
		t.Fatalf("unexpected notices: %+v", got.Notices)
	}
	if len(got.Lists.Redes) != 1 || len(got.Lists.Discipulados) != 1 || len(got.Lists.Celulas) != 1 {
		t.Errorf("lists: %d/%d/%d, want 1/1/1",
			len(got.Lists.Redes), len(got.Lists.Discipulados), len(got.Lists.Celulas))
	}
}
