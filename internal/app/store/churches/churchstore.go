package churchstore

import (
	"context"
	"errors"
	"time"

	"github.com/celulahub/celulahub/internal/app/system/normalize"
	"github.com/celulahub/celulahub/internal/app/system/status"
	"github.com/celulahub/celulahub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrDuplicateChurch = errors.New("a church with this name already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("churches")}
}

func (s *Store) Create(ctx context.Context, ch models.Church) (models.Church, error) {
	now := time.Now().UTC()
	ch.ID = primitive.NewObjectID()
	ch.Name = normalize.Name(ch.Name)
	ch.NameCI = text.Fold(ch.Name)
	if ch.Status == "" {
		ch.Status = status.Active
	}
	if ch.TimeZone == "" {
		ch.TimeZone = "UTC"
	}
	ch.CreatedAt = now
	ch.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, ch); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Church{}, ErrDuplicateChurch
		}
		return models.Church{}, err
	}
	return ch, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Church, error) {
	var ch models.Church
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ch); err != nil {
		return models.Church{}, err
	}
	return ch, nil
}

// EnsureDefault returns the church named name, creating it in tz when it
// does not exist yet. A concurrent creator winning the race is not an error.
func (s *Store) EnsureDefault(ctx context.Context, name, tz string) (models.Church, error) {
	var ch models.Church
	err := s.c.FindOne(ctx, bson.M{"name_ci": text.Fold(normalize.Name(name))}).Decode(&ch)
	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Church{}, err
	}
	ch, err = s.Create(ctx, models.Church{Name: name, TimeZone: tz})
	if errors.Is(err, ErrDuplicateChurch) {
		return s.EnsureDefault(ctx, name, tz)
	}
	return ch, err
}

// Location loads the church's time zone, falling back to UTC when the
// stored name is unknown.
func Location(ch models.Church) *time.Location {
	if ch.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(ch.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
