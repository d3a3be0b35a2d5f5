package notify

import (
	"context"
	"log"
	"time"

	"kabro/internal/apperr"
	"kabro/internal/config"
	"kabro/pkg/metrics"
	"kabro/pkg/storage"

	"github.com/google/uuid"
)

// EmailNotifier delivers email in two steps: the configured primary transport
// when it is fully set up, then the sandbox when the primary is absent or fails.
type EmailNotifier struct {
	from    string
	primary emailTransport
	sandbox emailTransport
	now     func() time.Time
}

// NewEmailNotifier picks the primary transport from cfg. Half-configured
// transports are ignored so that mail always lands in the sandbox.
func NewEmailNotifier(ctx context.Context, cfg config.MailConfig, previews storage.Disk) (*EmailNotifier, error) {
	var primary emailTransport
	switch {
	case cfg.Transport == TransportSES && cfg.SESConfigured():
		ses, err := newSESTransport(ctx, cfg.SESRegion, cfg.SESAccessKey, cfg.SESSecretKey)
		if err != nil {
			return nil, err
		}
		primary = ses
	case cfg.Transport == TransportSMTP && cfg.SMTPConfigured():
		primary = newSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	default:
		log.Printf("Mail transport %q not fully configured, emails go to the sandbox", cfg.Transport)
	}
	return newEmailNotifier(cfg.From, primary, newSandbox(previews)), nil
}

func newSandbox(disk storage.Disk) *sandboxTransport {
	return &sandboxTransport{disk: disk, newID: func() string { return uuid.New().String() }}
}

func newEmailNotifier(from string, primary, sandbox emailTransport) *EmailNotifier {
	return &EmailNotifier{from: from, primary: primary, sandbox: sandbox, now: time.Now}
}

// Deliver implements Notifier. The returned error is a NotificationFailure
// when even the sandbox could not take the message.
func (n *EmailNotifier) Deliver(ctx context.Context, msg Message) (*Outcome, error) {
	out := &Outcome{Channel: ChannelEmail}

	raw, err := buildMIME(n.from, msg, n.now())
	if err != nil {
		out.Error = err.Error()
		return out, &apperr.NotificationFailure{Channel: ChannelEmail, Err: err}
	}
	env := envelope{From: n.from, To: msg.To, Message: msg, Raw: raw}

	if n.primary != nil {
		if rcpt, ok := n.attempt(ctx, out, n.primary, env); ok {
			return n.succeed(out, rcpt), nil
		}
	}

	rcpt, ok := n.attempt(ctx, out, n.sandbox, env)
	if !ok {
		last := out.Attempts[len(out.Attempts)-1]
		out.Error = last.Error
		return out, &apperr.NotificationFailure{Channel: ChannelEmail, Err: rcpt.err}
	}
	return n.succeed(out, rcpt), nil
}

type attemptResult struct {
	*receipt
	err error
}

func (n *EmailNotifier) attempt(ctx context.Context, out *Outcome, t emailTransport, env envelope) (attemptResult, bool) {
	start := time.Now()
	rcpt, err := t.Send(ctx, env)
	a := Attempt{Transport: t.Name(), OK: err == nil, Duration: time.Since(start)}
	if err != nil {
		a.Error = err.Error()
		log.Printf("Email to %s via %s failed: %v", env.To, t.Name(), err)
	}
	out.Attempts = append(out.Attempts, a)
	metrics.RecordNotification(ChannelEmail, t.Name(), err == nil)
	return attemptResult{receipt: rcpt, err: err}, err == nil
}

func (n *EmailNotifier) succeed(out *Outcome, r attemptResult) *Outcome {
	out.OK = true
	out.MessageID = r.MessageID
	out.PreviewURL = r.PreviewURL
	return out
}
