// Package discipulados serves the discipulado CRUD endpoints.
package discipulados

import (
	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	discipuladostore "github.com/celulahub/celulahub/internal/app/store/discipulados"
	memberstore "github.com/celulahub/celulahub/internal/app/store/members"
	redestore "github.com/celulahub/celulahub/internal/app/store/redes"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Discipulados *discipuladostore.Store
	Redes        *redestore.Store
	Members      *memberstore.Store
	Loader       *hierarchy.Loader
	AuditLog     *auditlog.Logger
	Log          *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Discipulados: discipuladostore.New(db),
		Redes:        redestore.New(db),
		Members:      memberstore.New(db),
		Loader:       hierarchy.NewLoader(db, logger),
		AuditLog:     audit,
		Log:          logger,
	}
}
