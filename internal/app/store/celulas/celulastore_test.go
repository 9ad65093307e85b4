package celulastore_test

import (
	"testing"

	celulastore "github.com/celulahub/celulahub/internal/app/store/celulas"
	"github.com/celulahub/celulahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestStore_CreateUpdateClearsFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := celulastore.New(db)
	church := primitive.NewObjectID()
	disc := primitive.NewObjectID()
	leader := primitive.NewObjectID()

	c, err := store.Create(ctx, church, celulastore.Fields{
		Name: "Vida", Weekday: intPtr(3), Time: strPtr("19:30"), DiscipuladoID: &disc, LeaderMemberID: &leader,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if wd, ok := c.MeetingWeekday(); !ok || wd != 3 {
		t.Errorf("weekday: got %v %v", wd, ok)
	}

	up, err := store.Update(ctx, church, c.ID, celulastore.Fields{Name: "Vida Nova"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if up.Weekday != nil || up.Time != nil || up.DiscipuladoID != nil || up.LeaderMemberID != nil {
		t.Errorf("nil fields should be cleared: %+v", up)
	}
	if _, ok := up.MeetingWeekday(); ok {
		t.Error("cleared weekday should mean no fixed day")
	}
	if _, err := store.Update(ctx, primitive.NewObjectID(), c.ID, celulastore.Fields{Name: "x"}); err != mongo.ErrNoDocuments {
		t.Errorf("cross-church update: got %v", err)
	}
}

func TestStore_ListAndIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	church := fx.CreateChurch(ctx, "Igreja")
	rede := fx.CreateRede(ctx, church.ID, "R", nil)
	d1 := fx.CreateDiscipulado(ctx, church.ID, rede.ID, "D1", nil)
	d2 := fx.CreateDiscipulado(ctx, church.ID, rede.ID, "D2", nil)
	leader := primitive.NewObjectID()
	a := fx.CreateCelula(ctx, church.ID, &d1.ID, "A", 3, &leader)
	fx.CreateCelula(ctx, church.ID, &d2.ID, "B", -1, nil)
	fx.CreateCelula(ctx, church.ID, nil, "Orphan", 0, nil)

	store := celulastore.New(db)
	tests := []struct {
		name string
		lf   celulastore.ListFilter
		want int
	}{
		{"all", celulastore.ListFilter{}, 3},
		{"by discipulado", celulastore.ListFilter{DiscipuladoIDs: []primitive.ObjectID{d1.ID}}, 1},
		{"by ids", celulastore.ListFilter{IDs: []primitive.ObjectID{a.ID}}, 1},
		{"empty ids match nothing", celulastore.ListFilter{IDs: []primitive.ObjectID{}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, church.ID, tt.lf)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d, want %d", len(got), tt.want)
			}
		})
	}

	ids, _ := store.IDsByDiscipulados(ctx, church.ID, []primitive.ObjectID{d1.ID, d2.ID})
	if len(ids) != 2 {
		t.Errorf("IDsByDiscipulados: got %d", len(ids))
	}
	led, _ := store.IDsByLeader(ctx, church.ID, leader)
	if len(led) != 1 || led[0] != a.ID {
		t.Errorf("IDsByLeader: %v", led)
	}
}

func TestStore_Delete_DetachesMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	church := fx.CreateChurch(ctx, "Igreja")
	c := fx.CreateCelula(ctx, church.ID, nil, "C", 2, nil)
	m := fx.CreateMember(ctx, church.ID, "Maria", &c.ID)

	n, err := celulastore.New(db).Delete(ctx, church.ID, c.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete: n=%d err=%v", n, err)
	}
	var got struct {
		CelulaID *primitive.ObjectID `bson:"celula_id"`
	}
	if err := db.Collection("members").FindOne(ctx, map[string]any{"_id": m.ID}).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.CelulaID != nil {
		t.Error("member should be detached from the deleted celula")
	}
}
