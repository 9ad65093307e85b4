package memberstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/celulahub/celulahub/internal/app/system/normalize"
	"github.com/celulahub/celulahub/internal/app/system/search"
	"github.com/celulahub/celulahub/internal/app/system/status"
	"github.com/celulahub/celulahub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errBadStatus = errors.New(`status must be "active"|"disabled"`)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

// Fields are the mutable fields of a member.
type Fields struct {
	Name             string
	Email            string
	Phone            string
	CelulaID         *primitive.ObjectID
	MinistryPosition *models.MinistryPosition
	Status           string
}

// ListFilter narrows List. A nil CelulaIDs does not filter; an empty one
// matches nothing.
type ListFilter struct {
	CelulaIDs []primitive.ObjectID
	Status    string
	Search    string
}

func (s *Store) Create(ctx context.Context, churchID primitive.ObjectID, f Fields) (models.Member, error) {
	now := time.Now().UTC()
	m := models.Member{
		ID:               primitive.NewObjectID(),
		ChurchID:         churchID,
		Name:             normalize.Name(f.Name),
		Email:            normalize.Email(f.Email),
		Phone:            normalize.Name(f.Phone),
		CelulaID:         f.CelulaID,
		MinistryPosition: f.MinistryPosition,
		Status:           normalize.Status(f.Status),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.NameCI = text.Fold(m.Name)
	if m.Status == "" {
		m.Status = status.Active
	}
	if !status.IsValid(m.Status) {
		return models.Member{}, errBadStatus
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Member{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, churchID, id primitive.ObjectID) (models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "church_id": churchID}).Decode(&m); err != nil {
		return models.Member{}, err
	}
	return m, nil
}

// List returns the church's members ordered by name. Search matches a
// folded name prefix, or an email prefix when it contains '@'.
func (s *Store) List(ctx context.Context, churchID primitive.ObjectID, lf ListFilter) ([]models.Member, error) {
	filter := bson.M{"church_id": churchID}
	if lf.CelulaIDs != nil {
		filter["celula_id"] = bson.M{"$in": lf.CelulaIDs}
	}
	if lf.Status != "" {
		filter["status"] = normalize.Status(lf.Status)
	}
	sortField := search.ByName
	if q := strings.TrimSpace(lf.Search); q != "" {
		sortField = search.FieldFor(q)
		if sortField == search.ByEmail {
			q = normalize.Email(q)
		} else {
			q = text.Fold(q)
		}
		lo, hi := search.Prefix(q)
		filter[string(sortField)] = bson.M{"$gte": lo, "$lt": hi}
	}
	opts := options.Find().SetSort(bson.D{{Key: string(sortField), Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Member{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveInCelula returns the active members of celulaID, for the
// attendance checklist.
func (s *Store) ActiveInCelula(ctx context.Context, churchID, celulaID primitive.ObjectID) ([]models.Member, error) {
	return s.List(ctx, churchID, ListFilter{CelulaIDs: []primitive.ObjectID{celulaID}, Status: status.Active})
}

// Update replaces the mutable fields. Nil CelulaID or MinistryPosition
// clears them. Returns mongo.ErrNoDocuments when the member does not exist.
func (s *Store) Update(ctx context.Context, churchID, id primitive.ObjectID, f Fields) (models.Member, error) {
	st := normalize.Status(f.Status)
	if st == "" {
		st = status.Active
	}
	if !status.IsValid(st) {
		return models.Member{}, errBadStatus
	}
	name := normalize.Name(f.Name)
	set := bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"email":      normalize.Email(f.Email),
		"phone":      normalize.Name(f.Phone),
		"status":     st,
		"updated_at": time.Now().UTC(),
	}
	unset := bson.M{}
	if f.CelulaID != nil {
		set["celula_id"] = *f.CelulaID
	} else {
		unset["celula_id"] = ""
	}
	if f.MinistryPosition != nil {
		set["ministry_position"] = *f.MinistryPosition
	} else {
		unset["ministry_position"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var out models.Member
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "church_id": churchID}, update, opts).Decode(&out); err != nil {
		return models.Member{}, err
	}
	return out, nil
}

// Delete removes a member. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, churchID, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "church_id": churchID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountInCelula counts members of celulaID among ids. Used to check that a
// report only marks members of its own cell as present.
func (s *Store) CountInCelula(ctx context.Context, churchID, celulaID primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.c.CountDocuments(ctx, bson.M{
		"church_id": churchID,
		"celula_id": celulaID,
		"_id":       bson.M{"$in": ids},
	})
}
