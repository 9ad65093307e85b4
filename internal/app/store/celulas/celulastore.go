package celulastore

import (
	"context"
	"errors"
	"time"

	"github.com/celulahub/celulahub/internal/app/system/normalize"
	"github.com/celulahub/celulahub/internal/app/system/txn"
	"github.com/celulahub/celulahub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrDuplicateName = errors.New("a celula with this name already exists")

type Store struct {
	c       *mongo.Collection
	members *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:       db.Collection("celulas"),
		members: db.Collection("members"),
	}
}

// Fields are the mutable fields of a celula. Nil pointers clear the field.
type Fields struct {
	Name           string
	Weekday        *int
	Time           *string
	DiscipuladoID  *primitive.ObjectID
	LeaderMemberID *primitive.ObjectID
}

// ListFilter narrows List. Nil slices do not filter; empty slices match nothing.
type ListFilter struct {
	IDs            []primitive.ObjectID
	DiscipuladoIDs []primitive.ObjectID
}

func (s *Store) Create(ctx context.Context, churchID primitive.ObjectID, f Fields) (models.Celula, error) {
	now := time.Now().UTC()
	c := models.Celula{
		ID:             primitive.NewObjectID(),
		ChurchID:       churchID,
		Name:           normalize.Name(f.Name),
		Weekday:        f.Weekday,
		Time:           f.Time,
		DiscipuladoID:  f.DiscipuladoID,
		LeaderMemberID: f.LeaderMemberID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	c.NameCI = text.Fold(c.Name)
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Celula{}, ErrDuplicateName
		}
		return models.Celula{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, churchID, id primitive.ObjectID) (models.Celula, error) {
	var c models.Celula
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "church_id": churchID}).Decode(&c); err != nil {
		return models.Celula{}, err
	}
	return c, nil
}

// List returns the church's celulas ordered by name.
func (s *Store) List(ctx context.Context, churchID primitive.ObjectID, lf ListFilter) ([]models.Celula, error) {
	filter := bson.M{"church_id": churchID}
	if lf.IDs != nil {
		filter["_id"] = bson.M{"$in": lf.IDs}
	}
	if lf.DiscipuladoIDs != nil {
		filter["discipulado_id"] = bson.M{"$in": lf.DiscipuladoIDs}
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Celula{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IDsByDiscipulados returns the ids of celulas under any of discipuladoIDs.
func (s *Store) IDsByDiscipulados(ctx context.Context, churchID primitive.ObjectID, discipuladoIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(discipuladoIDs) == 0 {
		return nil, nil
	}
	return s.ids(ctx, bson.M{"church_id": churchID, "discipulado_id": bson.M{"$in": discipuladoIDs}})
}

// IDsByLeader returns the ids of celulas led by memberID.
func (s *Store) IDsByLeader(ctx context.Context, churchID, memberID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return s.ids(ctx, bson.M{"church_id": churchID, "leader_member_id": memberID})
}

func (s *Store) ids(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row.ID)
	}
	return out, cur.Err()
}

// Update replaces the mutable fields.
// Returns mongo.ErrNoDocuments when the celula does not exist.
func (s *Store) Update(ctx context.Context, churchID, id primitive.ObjectID, f Fields) (models.Celula, error) {
	name := normalize.Name(f.Name)
	set := bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}
	unset := bson.M{}
	setOrUnset(set, unset, "weekday", f.Weekday)
	setOrUnset(set, unset, "time", f.Time)
	setOrUnset(set, unset, "discipulado_id", f.DiscipuladoID)
	setOrUnset(set, unset, "leader_member_id", f.LeaderMemberID)

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var out models.Celula
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "church_id": churchID}, update, opts).Decode(&out)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Celula{}, ErrDuplicateName
		}
		return models.Celula{}, err
	}
	return out, nil
}

func setOrUnset[T any](set, unset bson.M, key string, v *T) {
	if v != nil {
		set[key] = *v
		return
	}
	unset[key] = ""
}

// Delete removes the celula and detaches its members, in one transaction
// when the server supports it. Reports stay.
func (s *Store) Delete(ctx context.Context, churchID, id primitive.ObjectID) (int64, error) {
	var deleted int64
	err := txn.Run(ctx, s.c.Database(), func(ctx context.Context) error {
		res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "church_id": churchID})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		if deleted == 0 {
			return nil
		}
		_, err = s.members.UpdateMany(ctx,
			bson.M{"church_id": churchID, "celula_id": id},
			bson.M{"$unset": bson.M{"celula_id": ""}, "$set": bson.M{"updated_at": time.Now().UTC()}},
		)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
