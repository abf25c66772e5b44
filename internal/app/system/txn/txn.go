// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// maxAttempts bounds how often a transaction is retried on transient
// aborts (write conflicts, primary stepdowns) before giving up.
const maxAttempts = 3

// ErrContention is returned when a transaction keeps aborting on transient
// conflicts and the retry budget is exhausted. Callers should surface it as
// a retryable condition, not a permanent failure.
var ErrContention = errors.New("storage contention, try again")

// WithTransaction runs fn inside a multi-document transaction, retrying a
// bounded number of times on transient aborts. On deployments without
// transaction support (standalone mongod, as in most dev setups) it falls
// back to running fn directly without a session.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		_, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			return nil, fn(sc)
		})
		if err == nil {
			return nil
		}
		if IsNotSupported(err) {
			return fn(ctx)
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 25 * time.Millisecond):
		}
	}
	return fmt.Errorf("%w: %v", ErrContention, lastErr)
}

// IsTransient reports whether err is a transient transaction abort that is
// safe to retry with the same inputs.
func IsTransient(err error) bool {
	var se mongo.ServerError
	if errors.As(err, &se) {
		return se.HasErrorLabel("TransientTransactionError")
	}
	return false
}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions at all (standalone deployment, old wire
// version). Known command error codes are checked first, then message
// heuristics for drivers/proxies that wrap the original error.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "illegal operation"):
		return true
	case strings.Contains(msg, "transaction") && strings.Contains(msg, "replica set"):
		return true
	case strings.Contains(msg, "transaction") && strings.Contains(msg, "session"):
		return true
	case strings.Contains(msg, "session") && strings.Contains(msg, "not supported"):
		return true
	}
	return false
}
