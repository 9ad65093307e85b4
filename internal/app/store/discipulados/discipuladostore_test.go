package discipuladostore_test

import (
	"testing"

	discipuladostore "github.com/celulahub/celulahub/internal/app/store/discipulados"
	"github.com/celulahub/celulahub/internal/app/system/indexes"
	"github.com/celulahub/celulahub/internal/domain/models"
	"github.com/celulahub/celulahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateListByRede(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := discipuladostore.New(db)
	church := primitive.NewObjectID()
	r1, r2 := primitive.NewObjectID(), primitive.NewObjectID()
	disc := primitive.NewObjectID()

	if _, err := store.Create(ctx, models.Discipulado{ChurchID: church, RedeID: r1, Name: "Alfa", DiscipuladorMemberID: &disc}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, models.Discipulado{ChurchID: church, RedeID: r2, Name: "Alfa"}); err != nil {
		t.Fatalf("same name in another rede should be allowed: %v", err)
	}
	if _, err := store.Create(ctx, models.Discipulado{ChurchID: church, RedeID: r1, Name: "ALFA"}); err != discipuladostore.ErrDuplicateName {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}

	all, _ := store.List(ctx, church, nil)
	if len(all) != 2 {
		t.Errorf("List all: got %d, want 2", len(all))
	}
	inR1, _ := store.List(ctx, church, &r1)
	if len(inR1) != 1 || inR1[0].RedeID != r1 {
		t.Errorf("List r1: %+v", inR1)
	}
	both, _ := store.ListByRedes(ctx, church, []primitive.ObjectID{r1, r2})
	if len(both) != 2 {
		t.Errorf("ListByRedes: got %d", len(both))
	}
	none, _ := store.ListByRedes(ctx, church, nil)
	if len(none) != 0 {
		t.Errorf("ListByRedes(nil): got %d", len(none))
	}
	mine, _ := store.ListByDiscipulador(ctx, church, disc)
	if len(mine) != 1 {
		t.Errorf("ListByDiscipulador: got %d", len(mine))
	}
}

func TestStore_UpdateAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	church := fx.CreateChurch(ctx, "Igreja")
	r1 := fx.CreateRede(ctx, church.ID, "R1", nil)
	r2 := fx.CreateRede(ctx, church.ID, "R2", nil)
	disc := primitive.NewObjectID()
	d := fx.CreateDiscipulado(ctx, church.ID, r1.ID, "D", &disc)

	store := discipuladostore.New(db)
	up, err := store.Update(ctx, church.ID, d.ID, "D moved", r2.ID, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if up.RedeID != r2.ID || up.DiscipuladorMemberID != nil {
		t.Errorf("after update: %+v", up)
	}

	fx.CreateCelula(ctx, church.ID, &d.ID, "C", 3, nil)
	if _, err := store.Delete(ctx, church.ID, d.ID); err != discipuladostore.ErrInUse {
		t.Errorf("expected ErrInUse, got %v", err)
	}
}
