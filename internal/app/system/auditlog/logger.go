// Package auditlog writes auth and admin audit events to MongoDB and zap.
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/celulahub/celulahub/internal/app/store/audit"
	"github.com/celulahub/celulahub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth covers login, logout and API key events.
	Auth string
	// Admin covers hierarchy, member, user and report changes.
	Admin string
}

// Logger records audit events. A nil *Logger is a no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.ChurchID != nil {
		fields = append(fields, zap.String("church_id", event.ChurchID.Hex()))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryAdmin:
		return l.config.Admin
	default:
		return All
	}
}

// Log routes event to the destinations configured for its category.
// Store failures are logged and swallowed.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.setting(event.Category)
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}
	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// Actor returns the signed-in user's id and church id as hex strings, the
// form the admin event methods take. Anonymous requests yield "", "".
func Actor(r *http.Request) (actorID, churchID string) {
	if u, ok := auth.CurrentUser(r); ok {
		return u.ID, u.ChurchID
	}
	return "", ""
}

func oidPtr(id string) *primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	return &oid
}

// --- Authentication Events ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID, churchID primitive.ObjectID, authMethod, loginID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		ChurchID:  &churchID,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details:   map[string]string{"auth_method": authMethod, "login_id": loginID},
	})
}

func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedLoginID string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		FailureReason: "user not found",
		Details:       map[string]string{"attempted_login_id": attemptedLoginID},
	})
}

func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID, churchID primitive.ObjectID, loginID string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		ChurchID:      &churchID,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		FailureReason: "wrong password",
		Details:       map[string]string{"login_id": loginID},
	})
}

func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID, churchID primitive.ObjectID, loginID string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserDisabled,
		ChurchID:      &churchID,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		FailureReason: "user disabled",
		Details:       map[string]string{"login_id": loginID},
	})
}

func (l *Logger) Logout(ctx context.Context, r *http.Request, userID, churchID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		ChurchID:  oidPtr(churchID),
		UserID:    oidPtr(userID),
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID, churchID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventPasswordChanged,
		ChurchID:  oidPtr(churchID),
		UserID:    oidPtr(userID),
		ActorID:   oidPtr(userID),
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// APIKeyCreated records a new key for userID. Only the prefix is logged.
func (l *Logger) APIKeyCreated(ctx context.Context, r *http.Request, actorID, churchID string, userID primitive.ObjectID, prefix string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventAPIKeyCreated,
		ChurchID:  oidPtr(churchID),
		UserID:    &userID,
		ActorID:   oidPtr(actorID),
		IP:        getClientIP(r),
		Success:   true,
		Details:   map[string]string{"prefix": prefix},
	})
}

func (l *Logger) APIKeyRevoked(ctx context.Context, r *http.Request, actorID, churchID string, keyID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventAPIKeyRevoked,
		ChurchID:  oidPtr(churchID),
		ActorID:   oidPtr(actorID),
		IP:        getClientIP(r),
		Success:   true,
		Details:   map[string]string{"api_key_id": keyID.Hex()},
	})
}

// --- Admin Events ---

func (l *Logger) UserCreated(ctx context.Context, r *http.Request, actorID, churchID string, userID primitive.ObjectID, role string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserCreated,
		ChurchID:  oidPtr(churchID),
		UserID:    &userID,
		ActorID:   oidPtr(actorID),
		IP:        getClientIP(r),
		Success:   true,
		Details:   map[string]string{"role": role},
	})
}

func (l *Logger) UserRoleChanged(ctx context.Context, r *http.Request, actorID, churchID string, userID primitive.ObjectID, oldRole, newRole string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserRoleChanged,
		ChurchID:  oidPtr(churchID),
		UserID:    &userID,
		ActorID:   oidPtr(actorID),
		IP:        getClientIP(r),
		Success:   true,
		Details:   map[string]string{"old_role": oldRole, "new_role": newRole},
	})
}

func (l *Logger) UserStatusChanged(ctx context.Context, r *http.Request, actorID, churchID string, userID primitive.ObjectID, newStatus string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserStatusChanged,
		ChurchID:  oidPtr(churchID),
		UserID:    &userID,
		ActorID:   oidPtr(actorID),
		IP:        getClientIP(r),
		Success:   true,
		Details:   map[string]string{"status": newStatus},
	})
}

// EntityChanged records a create, update or delete of a rede, discipulado,
// celula or member. eventType is one of the audit.Event* admin constants.
func (l *Logger) EntityChanged(ctx context.Context, r *http.Request, actorID, churchID, eventType string, entityID primitive.ObjectID, name string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ChurchID:  oidPtr(churchID),
		ActorID:   oidPtr(actorID),
		IP:        getClientIP(r),
		Success:   true,
		Details:   map[string]string{"entity_id": entityID.Hex(), "name": name},
	})
}

// ReportSubmitted records a stored report. Overridden dates get their own
// event type so they can be reviewed separately.
func (l *Logger) ReportSubmitted(ctx context.Context, r *http.Request, actorID, churchID string, reportID, celulaID primitive.ObjectID, date string, present int, override bool) {
	eventType := audit.EventReportSubmitted
	if override {
		eventType = audit.EventReportOverride
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: eventType,
		ChurchID:  oidPtr(churchID),
		ActorID:   oidPtr(actorID),
		IP:        getClientIP(r),
		Success:   true,
		Details: map[string]string{
			"report_id": reportID.Hex(),
			"celula_id": celulaID.Hex(),
			"date":      date,
			"present":   strconv.Itoa(present),
		},
	})
}

func (l *Logger) ReportDeleted(ctx context.Context, r *http.Request, actorID, churchID string, reportID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventReportDeleted,
		ChurchID:  oidPtr(churchID),
		ActorID:   oidPtr(actorID),
		IP:        getClientIP(r),
		Success:   true,
		Details:   map[string]string{"report_id": reportID.Hex()},
	})
}
