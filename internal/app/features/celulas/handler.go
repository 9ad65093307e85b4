// Package celulas serves the celula CRUD endpoints.
package celulas

import (
	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	celulastore "github.com/celulahub/celulahub/internal/app/store/celulas"
	discipuladostore "github.com/celulahub/celulahub/internal/app/store/discipulados"
	memberstore "github.com/celulahub/celulahub/internal/app/store/members"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Celulas      *celulastore.Store
	Discipulados *discipuladostore.Store
	Members      *memberstore.Store
	Loader       *hierarchy.Loader
	AuditLog     *auditlog.Logger
	Log          *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Celulas:      celulastore.New(db),
		Discipulados: discipuladostore.New(db),
		Members:      memberstore.New(db),
		Loader:       hierarchy.NewLoader(db, logger),
		AuditLog:     audit,
		Log:          logger,
	}
}
