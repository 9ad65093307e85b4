// Package indexes reconciles the MongoDB indexes the stores rely on.
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func idx(name string, unique bool, keys ...bson.E) mongo.IndexModel {
	opts := options.Index().SetName(name)
	if unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: bson.D(keys), Options: opts}
}

func asc(k string) bson.E  { return bson.E{Key: k, Value: 1} }
func desc(k string) bson.E { return bson.E{Key: k, Value: -1} }

// Desired lists every collection's indexes. Unique indexes back the
// stores' duplicate sentinels.
func Desired() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		"churches": {
			idx("uniq_churches_name_ci", true, asc("name_ci")),
		},
		"users": {
			idx("uniq_users_church_login", true, asc("church_id"), asc("login_id_ci")),
			idx("idx_users_church_name", false, asc("church_id"), asc("full_name_ci")),
			idx("idx_users_member", false, asc("church_id"), asc("member_id")),
			idx("idx_users_email", false, asc("email")),
			idx("idx_users_auth_return", false, asc("auth_method"), asc("auth_return_id")),
		},
		"redes": {
			idx("uniq_redes_church_name", true, asc("church_id"), asc("name_ci")),
			idx("idx_redes_pastor", false, asc("church_id"), asc("pastor_member_id")),
		},
		"discipulados": {
			idx("uniq_discipulados_rede_name", true, asc("church_id"), asc("rede_id"), asc("name_ci")),
			idx("idx_discipulados_discipulador", false, asc("church_id"), asc("discipulador_member_id")),
		},
		"celulas": {
			idx("uniq_celulas_church_name", true, asc("church_id"), asc("name_ci")),
			idx("idx_celulas_discipulado", false, asc("church_id"), asc("discipulado_id")),
			idx("idx_celulas_leader", false, asc("church_id"), asc("leader_member_id")),
		},
		"members": {
			idx("idx_members_church_name", false, asc("church_id"), asc("name_ci")),
			idx("idx_members_celula", false, asc("church_id"), asc("celula_id"), asc("name_ci")),
			idx("idx_members_church_email", false, asc("church_id"), asc("email")),
		},
		"reports": {
			idx("uniq_reports_celula_date", true, asc("celula_id"), asc("date")),
			idx("idx_reports_church_date", false, asc("church_id"), asc("date")),
		},
		"api_keys": {
			idx("uniq_api_keys_prefix", true, asc("prefix")),
			idx("idx_api_keys_church_user", false, asc("church_id"), asc("user_id")),
		},
		"audit_events": {
			idx("idx_audit_church_time", false, asc("church_id"), desc("timestamp")),
			idx("idx_audit_user_time", false, asc("user_id"), desc("timestamp")),
			idx("idx_audit_type_time", false, asc("event_type"), desc("timestamp")),
		},
	}
}

// EnsureAll is called at startup. Problems are aggregated so every one is
// visible and startup can fail fast.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for coll, models := range Desired() {
		if err := ensureIndexSet(ctx, db.Collection(coll), models); err != nil {
			problems = append(problems, coll+": "+err.Error())
		}
	}
	if err := ensureOAuthStates(ctx, db); err != nil {
		problems = append(problems, "oauth_states: "+err.Error())
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func listExisting(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var ex existingIndex
		if err := cur.Decode(&ex); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(ex.Key)] = ex
	}
	return out, cur.Err()
}

// ensureIndexSet creates missing indexes and rebuilds ones whose name or
// uniqueness drifted from models.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listExisting(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		name := *m.Options.Name
		unique := m.Options.Unique != nil && *m.Options.Unique
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if ex.Name == name && ex.Unique == unique {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()), zap.String("name", name))
				continue
			}
			zap.L().Info("rebuilding index",
				zap.String("collection", coll.Name()),
				zap.String("from", ex.Name),
				zap.String("to", name),
				zap.Bool("unique", unique))
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop %s failed: %v", name, ex.Name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && wafflemongo.IsDup(err) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present on %s)", name, sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
			continue
		}
		zap.L().Info("index created",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// oauth_states carries a TTL index, which ensureIndexSet does not compare.
func ensureOAuthStates(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("oauth_states").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{asc("state")},
			Options: options.Index().SetUnique(true).SetName("uniq_oauth_state"),
		},
		{
			Keys:    bson.D{asc("expires_at")},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_oauth_expires"),
		},
	})
	return err
}
