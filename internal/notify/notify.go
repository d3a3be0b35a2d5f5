// Package notify delivers transactional emails and WhatsApp messages.
// Delivery is best effort: callers log and count the Outcome, then move on.
package notify

import (
	"context"
	"time"
)

// Channels.
const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

// Attachment is an inline MIME part referenced from the HTML by ContentID.
type Attachment struct {
	Filename    string
	ContentType string
	ContentID   string
	Content     []byte
}

// Message is a channel-neutral outgoing notification. WhatsApp uses Text only.
type Message struct {
	To          string
	ReplyTo     string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Attempt records one transport try.
type Attempt struct {
	Transport string        `json:"transport"`
	OK        bool          `json:"ok"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Outcome is the inspectable result of a delivery.
type Outcome struct {
	Channel    string    `json:"channel"`
	OK         bool      `json:"ok"`
	MessageID  string    `json:"messageId,omitempty"`
	PreviewURL string    `json:"previewUrl,omitempty"`
	Error      string    `json:"error,omitempty"`
	Attempts   []Attempt `json:"attempts,omitempty"`
}

// Notifier delivers a message on one channel. A non-nil error means the
// channel could not deliver at all; an Outcome with OK=false is a soft failure.
type Notifier interface {
	Deliver(ctx context.Context, msg Message) (*Outcome, error)
}
