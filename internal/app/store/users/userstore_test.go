package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/celulahub/celulahub/internal/app/store/users"
	"github.com/celulahub/celulahub/internal/app/system/indexes"
	"github.com/celulahub/celulahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	userstore.BcryptCost = bcrypt.MinCost
}

func TestStore_CreateAndAuthenticate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := userstore.New(db)
	church := primitive.NewObjectID()

	u, err := store.Create(ctx, userstore.NewUser{
		ChurchID: church, FullName: " Ana Souza ", LoginID: "Ana", Password: "s3cret",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Role != "user" || u.AuthMethod != "password" || u.Status != "active" {
		t.Errorf("defaults: role=%q method=%q status=%q", u.Role, u.AuthMethod, u.Status)
	}
	if u.FullName != "Ana Souza" {
		t.Errorf("name not trimmed: %q", u.FullName)
	}
	if u.PasswordHash == "" || u.PasswordHash == "s3cret" {
		t.Error("password should be hashed")
	}

	tests := []struct {
		name     string
		login    string
		password string
		wantErr  error
	}{
		{"ok", "ana", "s3cret", nil},
		{"wrong password", "ana", "nope", userstore.ErrBadCredentials},
		{"unknown", "bruno", "s3cret", userstore.ErrBadCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Authenticate(ctx, tt.login, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := store.Create(ctx, userstore.NewUser{ChurchID: church, FullName: "Other", LoginID: "ANA", Password: "x"}); err != userstore.ErrDuplicateLoginID {
		t.Errorf("expected ErrDuplicateLoginID, got %v", err)
	}
	if _, err := store.Create(ctx, userstore.NewUser{ChurchID: church, FullName: "R", LoginID: "r", Password: "x", Role: "superadmin"}); err == nil {
		t.Error("expected bad role error")
	}
}

func TestStore_SetRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	church := fx.CreateChurch(ctx, "Igreja")
	u := fx.CreateUser(ctx, church.ID, "carla", "pw", "user", nil)
	member := fx.CreateMember(ctx, church.ID, "Carla", nil)

	store := userstore.New(db)
	old, err := store.SetRole(ctx, church.ID, u.ID, "admin", &member.ID)
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if old != "user" {
		t.Errorf("old role: got %q, want user", old)
	}
	got, err := store.GetByID(ctx, church.ID, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Role != "admin" || got.MemberID == nil || *got.MemberID != member.ID {
		t.Errorf("after SetRole: role=%q member=%v", got.Role, got.MemberID)
	}
	n, _ := store.CountAdmins(ctx, church.ID)
	if n != 1 {
		t.Errorf("CountAdmins: got %d, want 1", n)
	}

	if _, err := store.SetRole(ctx, primitive.NewObjectID(), u.ID, "user", nil); err == nil {
		t.Error("expected an error for a user of another church")
	}
}

func TestStore_ChangePassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	church := fx.CreateChurch(ctx, "Igreja")
	u := fx.CreateUser(ctx, church.ID, "davi", "antiga-senha", "user", nil)
	store := userstore.New(db)

	tests := []struct {
		name    string
		current string
		next    string
		want    error
	}{
		{"wrong current", "errada", "nova-senha", userstore.ErrWrongPassword},
		{"same password", "antiga-senha", "antiga-senha", userstore.ErrSamePassword},
		{"ok", "antiga-senha", "nova-senha", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.ChangePassword(ctx, church.ID, u.ID, tt.current, tt.next); !errors.Is(err, tt.want) {
				t.Errorf("ChangePassword = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := store.Authenticate(ctx, "davi", "nova-senha"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
	if _, err := store.Authenticate(ctx, "davi", "antiga-senha"); !errors.Is(err, userstore.ErrBadCredentials) {
		t.Errorf("old password still accepted: %v", err)
	}

	g, err := store.Create(ctx, userstore.NewUser{ChurchID: church.ID, FullName: "Gil", LoginID: "gil", Email: "gil@igreja.org", AuthMethod: "google"})
	if err != nil {
		t.Fatalf("Create google user: %v", err)
	}
	if err := store.ChangePassword(ctx, church.ID, g.ID, "", "nova-senha"); !errors.Is(err, userstore.ErrNotPasswordUser) {
		t.Errorf("google user: got %v, want ErrNotPasswordUser", err)
	}
}

func TestStore_Names(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	church := fx.CreateChurch(ctx, "Igreja")
	other := fx.CreateChurch(ctx, "Outra")
	a := fx.CreateUser(ctx, church.ID, "ana", "pw", "user", nil)
	b := fx.CreateUser(ctx, other.ID, "bia", "pw", "user", nil)

	names, err := userstore.New(db).Names(ctx, church.ID, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if len(names) != 1 || names[a.ID] != "Test ana" {
		t.Errorf("Names = %v", names)
	}
}
