// Package hierarchy loads a church's redes, discipulados and celulas for
// handlers that need the whole tree, and parses the optional id query
// parameters those handlers accept.
package hierarchy

import (
	"context"
	"errors"
	"strings"

	"github.com/celulahub/celulahub/internal/app/policy/scopepolicy"
	celulastore "github.com/celulahub/celulahub/internal/app/store/celulas"
	discipuladostore "github.com/celulahub/celulahub/internal/app/store/discipulados"
	memberstore "github.com/celulahub/celulahub/internal/app/store/members"
	redestore "github.com/celulahub/celulahub/internal/app/store/redes"
	"github.com/celulahub/celulahub/internal/app/system/normalize"
	"github.com/celulahub/celulahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Level names, as used in notices and POST /api/filters/{level}.
const (
	LevelRede        = "rede"
	LevelDiscipulado = "discipulado"
	LevelCelula      = "celula"
)

// Notice reports a level whose list could not be loaded.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Loaded is the result of Load. A level that failed to load has an empty
// list and a Notice.
type Loaded struct {
	Lists   scopepolicy.Lists
	Notices []Notice
}

// Ready reports whether every level loaded.
func (l Loaded) Ready() bool { return len(l.Notices) == 0 }

// Loader reads the three levels of a church.
type Loader struct {
	Redes        *redestore.Store
	Discipulados *discipuladostore.Store
	Celulas      *celulastore.Store
	Log          *zap.Logger
}

func NewLoader(db *mongo.Database, logger *zap.Logger) *Loader {
	return &Loader{
		Redes:        redestore.New(db),
		Discipulados: discipuladostore.New(db),
		Celulas:      celulastore.New(db),
		Log:          logger,
	}
}

// Load fetches every level independently. A failed level is logged and
// left empty so the other filters keep working.
func (l *Loader) Load(ctx context.Context, churchID primitive.ObjectID) Loaded {
	var out Loaded

	redes, err := l.Redes.List(ctx, churchID)
	if err != nil {
		out.Notices = append(out.Notices, l.notice(LevelRede, err))
		redes = []models.Rede{}
	}
	discs, err := l.Discipulados.List(ctx, churchID, nil)
	if err != nil {
		out.Notices = append(out.Notices, l.notice(LevelDiscipulado, err))
		discs = []models.Discipulado{}
	}
	cells, err := l.Celulas.List(ctx, churchID, celulastore.ListFilter{})
	if err != nil {
		out.Notices = append(out.Notices, l.notice(LevelCelula, err))
		cells = []models.Celula{}
	}

	out.Lists = scopepolicy.Lists{Redes: redes, Discipulados: discs, Celulas: cells}
	return out
}

func (l *Loader) notice(level string, err error) Notice {
	l.Log.Warn("hierarchy list failed", zap.String("level", level), zap.Error(err))
	return Notice{Level: level, Message: "Could not load the " + level + " list."}
}

// ParseID reads an optional id. Empty and "all" give (nil, true); a
// malformed id gives (nil, false).
func ParseID(s string) (*primitive.ObjectID, bool) {
	s = normalize.IDParam(s)
	if s == "" {
		return nil, true
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, false
	}
	return &oid, true
}

// ParseRequiredID reads an id that must be present.
func ParseRequiredID(s string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return oid, err == nil
}

// OptionalID converts an already validated optional hex id.
func OptionalID(s *string) *primitive.ObjectID {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	return &oid
}

// MemberExists reports whether id names a member of the church. A nil id
// is trivially fine.
func MemberExists(ctx context.Context, members *memberstore.Store, churchID primitive.ObjectID, id *primitive.ObjectID) (bool, error) {
	if id == nil {
		return true, nil
	}
	_, err := members.GetByID(ctx, churchID, *id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return err == nil, err
}
