// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Ensurer is implemented by every store that owns indexes on its collection.
type Ensurer interface {
	EnsureIndexes(ctx context.Context) error
}

// Set names the stores whose indexes are ensured at startup. Each store
// defines its own indexes next to the queries that rely on them; this
// package just drives them and aggregates failures so startup can fail fast.
type Set struct {
	Users         Ensurer
	Organizations Ensurer
	Profiles      Ensurer
	Connections   Ensurer
	Messages      Ensurer
	Invitations   Ensurer
	Audit         Ensurer
}

// EnsureAll runs EnsureIndexes on every store in the set. Every ensure call
// is idempotent. Errors are aggregated so any problem is visible at once.
func EnsureAll(ctx context.Context, set Set) error {
	var problems []string

	ensure := func(name string, e Ensurer) {
		if e == nil {
			return
		}
		start := time.Now()
		if err := e.EnsureIndexes(ctx); err != nil {
			problems = append(problems, name+": "+err.Error())
			return
		}
		zap.L().Info("indexes ensured",
			zap.String("collection", name),
			zap.Duration("took", time.Since(start)))
	}

	ensure("users", set.Users)
	ensure("organizations", set.Organizations)
	ensure("profiles", set.Profiles)
	ensure("connections", set.Connections)
	ensure("connection_messages", set.Messages)
	ensure("anonymous_connections", set.Invitations)
	ensure("audit_events", set.Audit)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
