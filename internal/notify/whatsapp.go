package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kabro/internal/apperr"
	"kabro/internal/config"
	"kabro/pkg/metrics"
)

// ErrMissingTwilioEnv is the Outcome.Error of a half-configured Twilio provider.
const ErrMissingTwilioEnv = "missing_twilio_env"

// ProviderTwilio is the only provider that sends anything.
const ProviderTwilio = "twilio"

// HTTPDoer executes HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WhatsAppNotifier sends a plain-text summary to the shop owner.
type WhatsAppNotifier struct {
	cfg    config.WhatsAppConfig
	client HTTPDoer
}

// NewWhatsAppNotifier builds the notifier. A nil client gets a 15s timeout client.
func NewWhatsAppNotifier(cfg config.WhatsAppConfig, client HTTPDoer) *WhatsAppNotifier {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.twilio.com"
	}
	return &WhatsAppNotifier{cfg: cfg, client: client}
}

// Deliver implements Notifier. Only msg.Text is sent; msg.To overrides the
// configured owner number.
func (n *WhatsAppNotifier) Deliver(ctx context.Context, msg Message) (*Outcome, error) {
	out := &Outcome{Channel: ChannelWhatsApp}
	if n.cfg.Provider != ProviderTwilio {
		out.OK = true
		return out, nil
	}

	to := msg.To
	if to == "" {
		to = n.cfg.OwnerTo
	}
	if n.cfg.AccountSID == "" || n.cfg.AuthToken == "" || n.cfg.From == "" || to == "" {
		out.Error = ErrMissingTwilioEnv
		metrics.RecordNotification(ChannelWhatsApp, ProviderTwilio, false)
		return out, nil
	}

	start := time.Now()
	ok, detail, err := n.post(ctx, to, msg.Text)
	attempt := Attempt{Transport: ProviderTwilio, OK: ok, Duration: time.Since(start)}
	metrics.RecordNotification(ChannelWhatsApp, ProviderTwilio, ok)

	switch {
	case err != nil:
		attempt.Error = err.Error()
		out.Error = attempt.Error
		out.Attempts = append(out.Attempts, attempt)
		return out, &apperr.NotificationFailure{Channel: ChannelWhatsApp, Err: err}
	case !ok:
		attempt.Error = detail
		out.Error = detail
		log.Printf("WhatsApp message rejected by Twilio: %s", detail)
	default:
		out.OK = true
		out.MessageID = detail
	}
	out.Attempts = append(out.Attempts, attempt)
	return out, nil
}

// post returns (true, sid) on 2xx and (false, body) otherwise.
func (n *WhatsAppNotifier) post(ctx context.Context, to, body string) (bool, string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", n.cfg.APIBase, url.PathEscape(n.cfg.AccountSID))
	form := url.Values{}
	form.Set("From", n.cfg.From)
	form.Set("To", to)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, "", fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(n.cfg.AccountSID, n.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return false, "", fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return false, "", fmt.Errorf("read twilio response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, string(respBody), nil
	}

	var created struct {
		SID string `json:"sid"`
	}
	_ = json.Unmarshal(respBody, &created)
	return true, created.SID, nil
}
