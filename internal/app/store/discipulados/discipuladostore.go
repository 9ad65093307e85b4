package discipuladostore

import (
	"context"
	"errors"
	"time"

	"github.com/celulahub/celulahub/internal/app/system/normalize"
	"github.com/celulahub/celulahub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDuplicateName = errors.New("a discipulado with this name already exists in the rede")
	// ErrInUse is returned by Delete while celulas still point at the discipulado.
	ErrInUse = errors.New("discipulado still has celulas")
)

type Store struct {
	c       *mongo.Collection
	celulas *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:       db.Collection("discipulados"),
		celulas: db.Collection("celulas"),
	}
}

func (s *Store) Create(ctx context.Context, d models.Discipulado) (models.Discipulado, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.Name = normalize.Name(d.Name)
	d.NameCI = text.Fold(d.Name)
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Discipulado{}, ErrDuplicateName
		}
		return models.Discipulado{}, err
	}
	return d, nil
}

func (s *Store) GetByID(ctx context.Context, churchID, id primitive.ObjectID) (models.Discipulado, error) {
	var d models.Discipulado
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "church_id": churchID}).Decode(&d); err != nil {
		return models.Discipulado{}, err
	}
	return d, nil
}

// List returns the church's discipulados ordered by name, narrowed to
// redeID when it is not nil.
func (s *Store) List(ctx context.Context, churchID primitive.ObjectID, redeID *primitive.ObjectID) ([]models.Discipulado, error) {
	filter := bson.M{"church_id": churchID}
	if redeID != nil {
		filter["rede_id"] = *redeID
	}
	return s.find(ctx, filter)
}

// ListByRedes returns the discipulados under any of redeIDs.
func (s *Store) ListByRedes(ctx context.Context, churchID primitive.ObjectID, redeIDs []primitive.ObjectID) ([]models.Discipulado, error) {
	if len(redeIDs) == 0 {
		return []models.Discipulado{}, nil
	}
	return s.find(ctx, bson.M{"church_id": churchID, "rede_id": bson.M{"$in": redeIDs}})
}

// ListByDiscipulador returns the discipulados led by memberID.
func (s *Store) ListByDiscipulador(ctx context.Context, churchID, memberID primitive.ObjectID) ([]models.Discipulado, error) {
	return s.find(ctx, bson.M{"church_id": churchID, "discipulador_member_id": memberID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Discipulado, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Discipulado{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the mutable fields. A nil discipulador clears it.
// Returns mongo.ErrNoDocuments when the discipulado does not exist.
func (s *Store) Update(ctx context.Context, churchID, id primitive.ObjectID, name string, redeID primitive.ObjectID, discipulador *primitive.ObjectID) (models.Discipulado, error) {
	name = normalize.Name(name)
	set := bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"rede_id":    redeID,
		"updated_at": time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if discipulador != nil {
		set["discipulador_member_id"] = *discipulador
	} else {
		update["$unset"] = bson.M{"discipulador_member_id": ""}
	}

	var out models.Discipulado
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "church_id": churchID}, update, opts).Decode(&out)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Discipulado{}, ErrDuplicateName
		}
		return models.Discipulado{}, err
	}
	return out, nil
}

// Delete removes the discipulado, refusing with ErrInUse while celulas
// reference it.
func (s *Store) Delete(ctx context.Context, churchID, id primitive.ObjectID) (int64, error) {
	n, err := s.celulas.CountDocuments(ctx, bson.M{"church_id": churchID, "discipulado_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, ErrInUse
	}
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "church_id": churchID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
