package reportstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/celulahub/celulahub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateDate is returned when the celula already has a report for the date.
var ErrDuplicateDate = errors.New("a report for this celula and date already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reports")}
}

// Create stores r with a new id and timestamps. Date must already be a
// "2006-01-02" calendar day.
func (s *Store) Create(ctx context.Context, r models.Report) (models.Report, error) {
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	if r.PresentMemberIDs == nil {
		r.PresentMemberIDs = []primitive.ObjectID{}
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Report{}, ErrDuplicateDate
		}
		return models.Report{}, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, churchID, id primitive.ObjectID) (models.Report, error) {
	var r models.Report
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "church_id": churchID}).Decode(&r); err != nil {
		return models.Report{}, err
	}
	return r, nil
}

// MonthRange returns the [from, to) date strings covering year/month.
func MonthRange(year int, month time.Month) (string, string) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	return first.Format("2006-01-02"), next.Format("2006-01-02")
}

// ListMonth returns the reports of celulaIDs dated inside year/month,
// ordered by date. Dates compare as strings because the layout is fixed.
func (s *Store) ListMonth(ctx context.Context, churchID primitive.ObjectID, celulaIDs []primitive.ObjectID, year int, month time.Month) ([]models.Report, error) {
	if len(celulaIDs) == 0 {
		return []models.Report{}, nil
	}
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("reportstore: bad month %d", month)
	}
	from, to := MonthRange(year, month)
	filter := bson.M{
		"church_id": churchID,
		"celula_id": bson.M{"$in": celulaIDs},
		"date":      bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "celula_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Report{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a report. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, churchID, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "church_id": churchID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
