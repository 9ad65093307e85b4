// Package users serves the admin-only user and role endpoints.
package users

import (
	memberstore "github.com/celulahub/celulahub/internal/app/store/members"
	userstore "github.com/celulahub/celulahub/internal/app/store/users"
	"github.com/celulahub/celulahub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users    *userstore.Store
	Members  *memberstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:    userstore.New(db),
		Members:  memberstore.New(db),
		AuditLog: audit,
		Log:      logger,
	}
}
