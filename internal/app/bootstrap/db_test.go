package bootstrap

import (
	"testing"

	churchstore "github.com/celulahub/celulahub/internal/app/store/churches"
	userstore "github.com/celulahub/celulahub/internal/app/store/users"
	"github.com/celulahub/celulahub/internal/app/system/indexes"
	"github.com/celulahub/celulahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func seedConfig() AppConfig {
	return AppConfig{
		DefaultChurchName: "Igreja Central",
		ChurchTimezone:    "America/Sao_Paulo",
		AdminLoginID:      "admin",
		AdminPassword:     "senha-inicial",
	}
}

func TestSeedDefaults_CreatesChurchAndAdmin(t *testing.T) {
	userstore.BcryptCost = bcrypt.MinCost
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	if err := seedDefaults(ctx, db, seedConfig(), testLogger()); err != nil {
		t.Fatalf("seedDefaults failed: %v", err)
	}

	church, err := churchstore.New(db).EnsureDefault(ctx, "Igreja Central", "UTC")
	if err != nil {
		t.Fatalf("EnsureDefault: %v", err)
	}
	if church.TimeZone != "America/Sao_Paulo" {
		t.Errorf("expected seeded time zone, got %q", church.TimeZone)
	}

	u, err := userstore.New(db).Authenticate(ctx, "admin", "senha-inicial")
	if err != nil {
		t.Fatalf("bootstrap admin cannot sign in: %v", err)
	}
	if u.Role != "admin" || u.ChurchID != church.ID {
		t.Errorf("admin: role=%q church=%s", u.Role, u.ChurchID.Hex())
	}
}

func TestSeedDefaults_Idempotent(t *testing.T) {
	userstore.BcryptCost = bcrypt.MinCost
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := seedDefaults(ctx, db, seedConfig(), testLogger()); err != nil {
			t.Fatalf("seedDefaults run %d: %v", i, err)
		}
	}

	for coll, want := range map[string]int64{"churches": 1, "users": 1} {
		n, err := db.Collection(coll).CountDocuments(ctx, bson.M{})
		if err != nil {
			t.Fatalf("count %s: %v", coll, err)
		}
		if n != want {
			t.Errorf("%s: got %d, want %d", coll, n, want)
		}
	}
}

func TestSeedDefaults_KeepsExistingAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	church, err := churchstore.New(db).EnsureDefault(ctx, "Igreja Central", "America/Sao_Paulo")
	if err != nil {
		t.Fatalf("EnsureDefault: %v", err)
	}
	fx.CreateUser(ctx, church.ID, "pastora", "pw", "admin", nil)

	if err := seedDefaults(ctx, db, seedConfig(), testLogger()); err != nil {
		t.Fatalf("seedDefaults failed: %v", err)
	}
	n, err := db.Collection("users").CountDocuments(ctx, bson.M{"login_id_ci": "admin"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Error("bootstrap admin created although the church already has one")
	}
}

func TestSeedDefaults_Disabled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := seedDefaults(ctx, db, AppConfig{}, testLogger()); err != nil {
		t.Fatalf("seedDefaults failed: %v", err)
	}
	n, _ := db.Collection("churches").CountDocuments(ctx, bson.M{})
	if n != 0 {
		t.Errorf("expected no church, got %d", n)
	}
}
