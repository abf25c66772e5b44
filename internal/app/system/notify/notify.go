// internal/app/system/notify/notify.go
//
// Package notify dispatches transactional email in the background. Handlers
// must not block on (or fail because of) the mail relay, so every send runs
// in its own goroutine and failures are logged rather than returned.
package notify

import (
	"sync"

	"github.com/dalemusser/mentorhub/internal/app/system/mailer"
	"go.uber.org/zap"
)

// Notifier sends email asynchronously. Safe for concurrent use.
// A nil Notifier is a no-op, which keeps tests simple.
type Notifier struct {
	mail *mailer.Mailer
	log  *zap.Logger
	wg   sync.WaitGroup
}

// New creates a Notifier over the given mailer.
func New(mail *mailer.Mailer, log *zap.Logger) *Notifier {
	return &Notifier{mail: mail, log: log}
}

// Send queues the email for background delivery.
func (n *Notifier) Send(e mailer.Email) {
	if n == nil {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.mail.Send(e); err != nil {
			n.log.Error("email delivery failed",
				zap.String("to", e.To),
				zap.String("subject", e.Subject),
				zap.Error(err))
		}
	}()
}

// SendInvitation emails a role invitation with its claim link.
func (n *Notifier) SendInvitation(to string, data mailer.InvitationEmailData) {
	if n == nil {
		return
	}
	e := mailer.BuildInvitationEmail(data)
	e.To = to
	n.Send(e)
}

// SendWelcome emails the post-registration welcome message.
func (n *Notifier) SendWelcome(to string, data mailer.WelcomeEmailData) {
	if n == nil {
		return
	}
	e := mailer.BuildWelcomeEmail(data)
	e.To = to
	n.Send(e)
}

// Close waits for in-flight sends to finish. Called during shutdown.
func (n *Notifier) Close() {
	if n == nil {
		return
	}
	n.wg.Wait()
}
