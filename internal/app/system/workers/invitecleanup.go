// internal/app/system/workers/invitecleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	anonconnectionstore "github.com/dalemusser/mentorhub/internal/app/store/anonconnections"
	"go.uber.org/zap"
)

// InviteCleanup is a background worker that purges expired invitations.
// Mongo's TTL index reaps them eventually; this keeps the outstanding
// invitation lists accurate between TTL sweeps.
type InviteCleanup struct {
	invites  *anonconnectionstore.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewInviteCleanup creates an invitation cleanup worker that runs every
// interval.
func NewInviteCleanup(invites *anonconnectionstore.Store, logger *zap.Logger, interval time.Duration) *InviteCleanup {
	return &InviteCleanup{
		invites:  invites,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *InviteCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("invitation cleanup worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *InviteCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("invitation cleanup worker stopped")
}

func (w *InviteCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

func (w *InviteCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.invites.PurgeExpired(ctx)
	if err != nil {
		w.log.Error("failed to purge expired invitations", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("purged expired invitations", zap.Int64("count", count))
	}
}
