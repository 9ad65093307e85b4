package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/inputval"
	"github.com/celulahub/celulahub/internal/app/system/normalize"
	"github.com/celulahub/celulahub/internal/app/system/status"
	"github.com/celulahub/celulahub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrDuplicateLoginID is returned when the login id is taken in the church.
	ErrDuplicateLoginID = errors.New("a user with this login id already exists")
	// ErrBadCredentials covers unknown login ids and wrong passwords.
	ErrBadCredentials = errors.New("invalid login id or password")
	errBadRole        = errors.New(`role must be "admin"|"user"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
	errBadAuthMethod  = errors.New(`auth method must be "password"|"google"`)
	errPasswordNeeded = errors.New("password users need a password")

	// ErrNotPasswordUser is returned when a Google user tries to set a password.
	ErrNotPasswordUser = errors.New("password change is only available for password sign-in")
	// ErrWrongPassword is returned when the current password does not match.
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrSamePassword is returned when the new password equals the current one.
	ErrSamePassword = errors.New("new password must differ from the current one")
)

// BcryptCost is the cost used for new password hashes. Tests lower it.
var BcryptCost = bcrypt.DefaultCost

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// NewUser carries the fields accepted when creating a user.
type NewUser struct {
	ChurchID   primitive.ObjectID
	FullName   string
	LoginID    string
	Email      string
	Password   string
	AuthMethod string
	Role       string
	MemberID   *primitive.ObjectID
}

// Create validates, hashes the password and inserts a new active user.
func (s *Store) Create(ctx context.Context, nu NewUser) (models.User, error) {
	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		ChurchID:   nu.ChurchID,
		FullName:   normalize.Name(nu.FullName),
		LoginID:    normalize.Name(nu.LoginID),
		Email:      normalize.Email(nu.Email),
		AuthMethod: normalize.AuthMethod(nu.AuthMethod),
		Role:       normalize.Role(nu.Role),
		MemberID:   nu.MemberID,
		Status:     status.Active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	u.FullNameCI = text.Fold(u.FullName)
	u.LoginIDCI = text.Fold(u.LoginID)
	if u.AuthMethod == "" {
		u.AuthMethod = "password"
	}
	if u.Role == "" {
		u.Role = authz.RoleUser
	}
	if !inputval.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	if !inputval.IsValidAuthMethod(u.AuthMethod) {
		return models.User{}, errBadAuthMethod
	}

	if u.AuthMethod == "password" {
		if nu.Password == "" {
			return models.User{}, errPasswordNeeded
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), BcryptCost)
		if err != nil {
			return models.User{}, err
		}
		u.PasswordHash = string(hash)
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateLoginID
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) GetByID(ctx context.Context, churchID, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "church_id": churchID}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByLoginID looks a user up by case-folded login id across churches.
// Login ids are only unique per church; the oldest match wins.
func (s *Store) GetByLoginID(ctx context.Context, loginID string) (models.User, error) {
	var u models.User
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if err := s.c.FindOne(ctx, bson.M{"login_id_ci": text.Fold(normalize.Name(loginID))}, opts).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetByEmail returns the oldest user with email. Returns mongo.ErrNoDocuments if none.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}, opts).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Authenticate checks loginID and password. Unknown users and wrong
// passwords both return ErrBadCredentials together with whatever user was
// found, so callers can audit the difference.
func (s *Store) Authenticate(ctx context.Context, loginID, password string) (models.User, error) {
	u, err := s.GetByLoginID(ctx, loginID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrBadCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return u, ErrBadCredentials
	}
	return u, nil
}

// ChangePassword replaces the user's password after checking the current
// one.
func (s *Store) ChangePassword(ctx context.Context, churchID, id primitive.ObjectID, current, next string) error {
	u, err := s.GetByID(ctx, churchID, id)
	if err != nil {
		return err
	}
	if u.AuthMethod != "password" {
		return ErrNotPasswordUser
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return ErrWrongPassword
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(next)) == nil {
		return ErrSamePassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), BcryptCost)
	if err != nil {
		return err
	}
	_, err = s.c.UpdateOne(ctx,
		bson.M{"_id": id, "church_id": churchID},
		bson.M{"$set": bson.M{"password_hash": string(hash), "updated_at": time.Now().UTC()}})
	return err
}

// List returns the church's users ordered by name.
func (s *Store) List(ctx context.Context, churchID primitive.ObjectID) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"church_id": churchID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Names maps the given user ids in the church to their full names. Unknown
// ids are left out.
func (s *Store) Names(ctx context.Context, churchID primitive.ObjectID, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"full_name": 1})
	cur, err := s.c.Find(ctx, bson.M{"church_id": churchID, "_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u struct {
			ID       primitive.ObjectID `bson:"_id"`
			FullName string             `bson:"full_name"`
		}
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u.FullName
	}
	return out, cur.Err()
}

// SetRole changes the role and, when memberID is not nil, the linked
// member. It returns the previous role.
func (s *Store) SetRole(ctx context.Context, churchID, id primitive.ObjectID, role string, memberID *primitive.ObjectID) (string, error) {
	role = normalize.Role(role)
	if !inputval.IsValidRole(role) {
		return "", errBadRole
	}
	set := bson.M{"role": role, "updated_at": time.Now().UTC()}
	if memberID != nil {
		set["member_id"] = *memberID
	}
	var before models.User
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"role": 1})
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "church_id": churchID}, bson.M{"$set": set}, opts).Decode(&before)
	if err != nil {
		return "", err
	}
	return before.Role, nil
}

// SetStatus enables or disables a user.
func (s *Store) SetStatus(ctx context.Context, churchID, id primitive.ObjectID, st string) error {
	st = normalize.Status(st)
	if !status.IsValid(st) {
		return errBadStatus
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "church_id": churchID},
		bson.M{"$set": bson.M{"status": st, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// CountAdmins counts active admins of the church.
func (s *Store) CountAdmins(ctx context.Context, churchID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"church_id": churchID, "role": authz.RoleAdmin, "status": status.Active})
}

// GetByAuthReturnID finds the google user already linked to the provider
// subject id.
func (s *Store) GetByAuthReturnID(ctx context.Context, authMethod, returnID string) (models.User, error) {
	var u models.User
	filter := bson.M{"auth_method": normalize.AuthMethod(authMethod), "auth_return_id": returnID}
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// LinkAuthReturnID records the provider subject id on a user that signed
// in by email for the first time.
func (s *Store) LinkAuthReturnID(ctx context.Context, id primitive.ObjectID, returnID string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"auth_return_id": returnID, "updated_at": time.Now().UTC()}})
	return err
}
