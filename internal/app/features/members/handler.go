// Package members serves the member endpoints. Reads are scoped to the
// user's cells; leaders may manage members of the cells they hold.
package members

import (
	celulastore "github.com/celulahub/celulahub/internal/app/store/celulas"
	discipuladostore "github.com/celulahub/celulahub/internal/app/store/discipulados"
	memberstore "github.com/celulahub/celulahub/internal/app/store/members"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB           *mongo.Database
	Members      *memberstore.Store
	Celulas      *celulastore.Store
	Discipulados *discipuladostore.Store
	AuditLog     *auditlog.Logger
	Log          *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:           db,
		Members:      memberstore.New(db),
		Celulas:      celulastore.New(db),
		Discipulados: discipuladostore.New(db),
		AuditLog:     audit,
		Log:          logger,
	}
}
