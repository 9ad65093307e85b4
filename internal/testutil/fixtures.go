package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/celulahub/celulahub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that read chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures inserts test documents directly, bypassing store validation.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert into %s: %v", coll, err)
	}
}

// CreateChurch creates an active church in America/Sao_Paulo.
func (f *Fixtures) CreateChurch(ctx context.Context, name string) models.Church {
	f.t.Helper()
	now := time.Now().UTC()
	c := models.Church{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		TimeZone:  "America/Sao_Paulo",
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "churches", c)
	return c
}

func (f *Fixtures) CreateRede(ctx context.Context, churchID primitive.ObjectID, name string, pastor *primitive.ObjectID) models.Rede {
	f.t.Helper()
	now := time.Now().UTC()
	r := models.Rede{
		ID:             primitive.NewObjectID(),
		ChurchID:       churchID,
		Name:           name,
		NameCI:         text.Fold(name),
		PastorMemberID: pastor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.insert(ctx, "redes", r)
	return r
}

func (f *Fixtures) CreateDiscipulado(ctx context.Context, churchID, redeID primitive.ObjectID, name string, discipulador *primitive.ObjectID) models.Discipulado {
	f.t.Helper()
	now := time.Now().UTC()
	d := models.Discipulado{
		ID:                   primitive.NewObjectID(),
		ChurchID:             churchID,
		Name:                 name,
		NameCI:               text.Fold(name),
		RedeID:               redeID,
		DiscipuladorMemberID: discipulador,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	f.insert(ctx, "discipulados", d)
	return d
}

// CreateCelula creates a cell. A negative weekday means no fixed day.
func (f *Fixtures) CreateCelula(ctx context.Context, churchID primitive.ObjectID, discipuladoID *primitive.ObjectID, name string, weekday int, leader *primitive.ObjectID) models.Celula {
	f.t.Helper()
	now := time.Now().UTC()
	c := models.Celula{
		ID:             primitive.NewObjectID(),
		ChurchID:       churchID,
		Name:           name,
		NameCI:         text.Fold(name),
		DiscipuladoID:  discipuladoID,
		LeaderMemberID: leader,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if weekday >= 0 {
		c.Weekday = &weekday
	}
	f.insert(ctx, "celulas", c)
	return c
}

func (f *Fixtures) CreateMember(ctx context.Context, churchID primitive.ObjectID, name string, celulaID *primitive.ObjectID) models.Member {
	f.t.Helper()
	now := time.Now().UTC()
	m := models.Member{
		ID:        primitive.NewObjectID(),
		ChurchID:  churchID,
		Name:      name,
		NameCI:    text.Fold(name),
		CelulaID:  celulaID,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "members", m)
	return m
}

// CreateUser creates an active password user.
func (f *Fixtures) CreateUser(ctx context.Context, churchID primitive.ObjectID, loginID, password, role string, memberID *primitive.ObjectID) models.User {
	f.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("bcrypt: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		ChurchID:     churchID,
		FullName:     "Test " + loginID,
		FullNameCI:   text.Fold("Test " + loginID),
		LoginID:      loginID,
		LoginIDCI:    text.Fold(loginID),
		PasswordHash: string(hash),
		AuthMethod:   "password",
		Role:         role,
		MemberID:     memberID,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "users", u)
	return u
}
