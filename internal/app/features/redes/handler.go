// Package redes serves the rede CRUD endpoints. Everyone signed in can
// read the redes they may filter by; only admins write.
package redes

import (
	"github.com/celulahub/celulahub/internal/app/features/shared/hierarchy"
	memberstore "github.com/celulahub/celulahub/internal/app/store/members"
	redestore "github.com/celulahub/celulahub/internal/app/store/redes"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Redes    *redestore.Store
	Members  *memberstore.Store
	Loader   *hierarchy.Loader
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Redes:    redestore.New(db),
		Members:  memberstore.New(db),
		Loader:   hierarchy.NewLoader(db, logger),
		AuditLog: audit,
		Log:      logger,
	}
}
