// Package txn runs multi-document writes in a MongoDB transaction when the
// deployment supports them, and directly when it does not (standalone
// servers used in development and tests).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// IsNotSupported reports whether err means the server cannot run
// transactions or sessions. Codes: 20 IllegalOperation, 51
// IllegalOperation (legacy), 263 OperationNotSupportedInTransaction.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }
	switch {
	case has("transaction") && has("replica set"),
		has("session") && has("not supported"),
		has("transaction") && has("session"),
		has("illegal operation") && has("transaction"):
		return true
	}
	return false
}

// Run calls fn inside a transaction on db's client. When the deployment
// has no transaction support fn runs once without one.
func Run(ctx context.Context, db *mongo.Database, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if IsNotSupported(err) {
		return fn(ctx)
	}
	return err
}
