package redestore

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
	ErrDuplicateName = errors.New("a rede with this name already exists")
	// ErrInUse is returned by Delete while discipulados still point at the rede.
	ErrInUse = errors.New("rede still has discipulados")
)

type Store struct {
	c            *mongo.Collection
	discipulados *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:            db.Collection("redes"),
		discipulados: db.Collection("discipulados"),
	}
}

func (s *Store) Create(ctx context.Context, r models.Rede) (models.Rede, error) {
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.Name = normalize.Name(r.Name)
	r.NameCI = text.Fold(r.Name)
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Rede{}, ErrDuplicateName
		}
		return models.Rede{}, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, churchID, id primitive.ObjectID) (models.Rede, error) {
	var r models.Rede
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "church_id": churchID}).Decode(&r); err != nil {
		return models.Rede{}, err
	}
	return r, nil
}

// List returns every rede of the church ordered by name.
func (s *Store) List(ctx context.Context, churchID primitive.ObjectID) ([]models.Rede, error) {
	return s.find(ctx, bson.M{"church_id": churchID})
}

// ListByPastor returns the redes whose pastor is memberID.
func (s *Store) ListByPastor(ctx context.Context, churchID, memberID primitive.ObjectID) ([]models.Rede, error) {
	return s.find(ctx, bson.M{"church_id": churchID, "pastor_member_id": memberID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Rede, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Rede{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the mutable fields. A nil pastor clears it.
// Returns mongo.ErrNoDocuments when the rede does not exist.
func (s *Store) Update(ctx context.Context, churchID, id primitive.ObjectID, name string, pastor *primitive.ObjectID) (models.Rede, error) {
	name = normalize.Name(name)
	set := bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if pastor != nil {
		set["pastor_member_id"] = *pastor
	} else {
		update["$unset"] = bson.M{"pastor_member_id": ""}
	}

	var out models.Rede
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "church_id": churchID}, update, opts).Decode(&out)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Rede{}, ErrDuplicateName
		}
		return models.Rede{}, err
	}
	return out, nil
}

// Delete removes the rede. It refuses with ErrInUse while discipulados
// reference it. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, churchID, id primitive.ObjectID) (int64, error) {
	n, err := s.discipulados.CountDocuments(ctx, bson.M{"church_id": churchID, "rede_id": id}, options.Count().SetLimit(1))
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
