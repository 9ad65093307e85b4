// Package apikeystore issues and resolves API keys.
//
// A key reads "chk_<prefix>_<secret>". The prefix is stored in clear for
// lookup; the secret only as a bcrypt hash.
package apikeystore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/celulahub/celulahub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const keyScheme = "chk"

var ErrMalformedKey = errors.New("malformed api key")

// BcryptCost is the cost used for secret hashes. Tests lower it.
var BcryptCost = bcrypt.DefaultCost

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("api_keys")}
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Create issues a key acting as userID. The plaintext is returned once and
// never stored.
func (s *Store) Create(ctx context.Context, churchID, userID, createdBy primitive.ObjectID, name string) (models.APIKey, string, error) {
	prefix := newToken()[:10]
	secret := newToken()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), BcryptCost)
	if err != nil {
		return models.APIKey{}, "", err
	}
	k := models.APIKey{
		ID:        primitive.NewObjectID(),
		ChurchID:  churchID,
		Name:      strings.TrimSpace(name),
		Prefix:    prefix,
		Hash:      string(hash),
		UserID:    userID,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, k); err != nil {
		return models.APIKey{}, "", err
	}
	return k, keyScheme + "_" + prefix + "_" + secret, nil
}

// List returns the church's keys, newest first. Revoked keys are included.
func (s *Store) List(ctx context.Context, churchID primitive.ObjectID) ([]models.APIKey, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"church_id": churchID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.APIKey{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Revoke marks a key revoked. Returns mongo.ErrNoDocuments when no active
// key matches.
func (s *Store) Revoke(ctx context.Context, churchID, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "church_id": churchID, "revoked_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revoked_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func parseKey(key string) (prefix, secret string, err error) {
	parts := strings.Split(strings.TrimSpace(key), "_")
	if len(parts) != 3 || parts[0] != keyScheme || parts[1] == "" || parts[2] == "" {
		return "", "", ErrMalformedKey
	}
	return parts[1], parts[2], nil
}

// Lookup returns the active key matching plaintext.
func (s *Store) Lookup(ctx context.Context, plaintext string) (models.APIKey, error) {
	prefix, secret, err := parseKey(plaintext)
	if err != nil {
		return models.APIKey{}, err
	}
	var k models.APIKey
	err = s.c.FindOne(ctx, bson.M{"prefix": prefix, "revoked_at": bson.M{"$exists": false}}).Decode(&k)
	if err != nil {
		return models.APIKey{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(secret)) != nil {
		return models.APIKey{}, mongo.ErrNoDocuments
	}
	return k, nil
}

// ResolveAPIKey implements auth.APIKeyResolver and records last use.
func (s *Store) ResolveAPIKey(ctx context.Context, key string) (string, bool) {
	k, err := s.Lookup(ctx, key)
	if err != nil {
		return "", false
	}
	_, _ = s.c.UpdateByID(ctx, k.ID, bson.M{"$set": bson.M{"last_used_at": time.Now().UTC()}})
	return k.UserID.Hex(), true
}
