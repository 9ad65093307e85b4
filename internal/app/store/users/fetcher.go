package userstore

import (
	"context"
	"errors"

	celulastore "github.com/celulahub/celulahub/internal/app/store/celulas"
	discipuladostore "github.com/celulahub/celulahub/internal/app/store/discipulados"
	redestore "github.com/celulahub/celulahub/internal/app/store/redes"
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"github.com/celulahub/celulahub/internal/app/system/authz"
	"github.com/celulahub/celulahub/internal/app/system/normalize"
	"github.com/celulahub/celulahub/internal/app/system/status"
	"github.com/celulahub/celulahub/internal/app/system/timeouts"
	"github.com/celulahub/celulahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Fetcher implements auth.UserFetcher. It reloads the user on every request
// and derives the hierarchy permission from the linked member.
type Fetcher struct {
	users        *mongo.Collection
	members      *mongo.Collection
	redes        *redestore.Store
	discipulados *discipuladostore.Store
	celulas      *celulastore.Store
	log          *zap.Logger
}

func NewFetcher(db *mongo.Database, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		users:        db.Collection("users"),
		members:      db.Collection("members"),
		redes:        redestore.New(db),
		discipulados: discipuladostore.New(db),
		celulas:      celulastore.New(db),
		log:          log,
	}
}

// FetchUser returns nil if the user is not found, disabled, or on any error.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":       1,
		"church_id": 1,
		"full_name": 1,
		"login_id":  1,
		"role":      1,
		"status":    1,
		"member_id": 1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		return nil
	}
	if normalize.Status(u.Status) == status.Disabled {
		return nil
	}

	su := &auth.SessionUser{
		ID:       u.ID.Hex(),
		Name:     u.FullName,
		LoginID:  u.LoginID,
		Role:     normalize.Role(u.Role),
		ChurchID: u.ChurchID.Hex(),
	}
	if u.MemberID != nil {
		su.MemberID = u.MemberID.Hex()
	}

	perm, err := f.Derive(ctx, u.ChurchID, su.Role, u.MemberID)
	if err != nil {
		// Role-only permission.
		f.log.Warn("permission derivation failed",
			zap.String("user_id", su.ID), zap.Error(err))
		perm = models.Permission{IsAdmin: su.Role == authz.RoleAdmin}
	}
	su.Permission = perm
	return su
}

// Derive builds the permission for a user of churchID with role and an
// optional linked member:
//
//   - role admin sets IsAdmin
//   - pastor of redes: Pastor, RedeID and every cell under those redes
//   - discipulador of discipulados: Discipulador, DiscipuladoID and their cells
//   - leader of celulas: Leader and those cells
//   - member of a cell: that cell
//
// CelulaIDs is the deduplicated union in that order. ManagedCelulaIDs is
// the same union without the member's own cell.
func (f *Fetcher) Derive(ctx context.Context, churchID primitive.ObjectID, role string, memberID *primitive.ObjectID) (models.Permission, error) {
	p := models.Permission{
		IsAdmin:          role == authz.RoleAdmin,
		CelulaIDs:        []primitive.ObjectID{},
		ManagedCelulaIDs: []primitive.ObjectID{},
	}
	if memberID == nil {
		return p, nil
	}
	seen := map[primitive.ObjectID]bool{}
	add := func(ids []primitive.ObjectID, managed bool) {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			p.CelulaIDs = append(p.CelulaIDs, id)
			if managed {
				p.ManagedCelulaIDs = append(p.ManagedCelulaIDs, id)
			}
		}
	}

	redes, err := f.redes.ListByPastor(ctx, churchID, *memberID)
	if err != nil {
		return p, err
	}
	if len(redes) > 0 {
		p.Pastor = true
		id := redes[0].ID
		p.RedeID = &id

		redeIDs := make([]primitive.ObjectID, len(redes))
		for i, r := range redes {
			redeIDs[i] = r.ID
		}
		ds, err := f.discipulados.ListByRedes(ctx, churchID, redeIDs)
		if err != nil {
			return p, err
		}
		cells, err := f.celulas.IDsByDiscipulados(ctx, churchID, discipuladoIDs(ds))
		if err != nil {
			return p, err
		}
		add(cells, true)
	}

	ds, err := f.discipulados.ListByDiscipulador(ctx, churchID, *memberID)
	if err != nil {
		return p, err
	}
	if len(ds) > 0 {
		p.Discipulador = true
		id := ds[0].ID
		p.DiscipuladoID = &id
		if p.RedeID == nil {
			rede := ds[0].RedeID
			p.RedeID = &rede
		}
		cells, err := f.celulas.IDsByDiscipulados(ctx, churchID, discipuladoIDs(ds))
		if err != nil {
			return p, err
		}
		add(cells, true)
	}

	led, err := f.celulas.IDsByLeader(ctx, churchID, *memberID)
	if err != nil {
		return p, err
	}
	if len(led) > 0 {
		p.Leader = true
		add(led, true)
	}

	var m struct {
		CelulaID *primitive.ObjectID `bson:"celula_id"`
	}
	err = f.members.FindOne(ctx, bson.M{"_id": *memberID, "church_id": churchID},
		options.FindOne().SetProjection(bson.M{"celula_id": 1})).Decode(&m)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return p, err
	}
	if m.CelulaID != nil {
		add([]primitive.ObjectID{*m.CelulaID}, false)
	}
	return p, nil
}

func discipuladoIDs(ds []models.Discipulado) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}
